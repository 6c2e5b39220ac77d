package mcpserver

// ContractURI is the resource URI of the metadata contract.
const ContractURI = "framelens://metadata-contract"

// MetadataContract describes the design metadata record produced by
// framelens, for LLM consumers reading or editing analyses.
const MetadataContract = `# Framelens Design Metadata Contract

Every analysis stores exactly one metadata record with these ten fields.

## Schema

` + "```" + `json
{
  "headline": "string | null",
  "subheadline": "string | null",
  "body_text": "string | null",
  "call_to_action": "string | null",
  "disclaimer": "string | null",
  "keywords": ["string"],
  "locale": "string",
  "aspect_ratio": "W:H",
  "background_color": "string",
  "objects": ["string"]
}
` + "```" + `

## Rules

1. **Text fields** are null when absent. An empty string is a present value.
2. **Arrays** (` + "`" + `keywords` + "`" + `, ` + "`" + `objects` + "`" + `) are never null; use ` + "`" + `[]` + "`" + `.
3. **locale** is an ISO 639-1 code in lower case. Default ` + "`" + `en` + "`" + `.
4. **aspect_ratio** is width:height reduced to lowest terms (` + "`" + `1080x1920` + "`" + ` is ` + "`" + `9:16` + "`" + `). Default ` + "`" + `1:1` + "`" + `.
5. **background_color** is one of ` + "`" + `transparent` + "`" + `, ` + "`" + `light` + "`" + `, ` + "`" + `dark` + "`" + `,
   ` + "`" + `red` + "`" + `, ` + "`" + `light red` + "`" + `, ` + "`" + `green` + "`" + `, ` + "`" + `light green` + "`" + `, ` + "`" + `blue` + "`" + `, ` + "`" + `light blue` + "`" + `,
   or ` + "`" + `rgb(r, g, b)` + "`" + ` for anything else. Default ` + "`" + `transparent` + "`" + `.
6. **Heuristic extraction** ranks the texts of a frame by length: the longest is
   the headline, the second the body text, the third the call to action.
   Subheadline, disclaimer, keywords and objects are only filled by enhancement
   or manual edits.

## Sources

- ` + "`" + `baseline` + "`" + `: heuristic extraction only.
- ` + "`" + `enhanced` + "`" + `: merged with a vision model answer (non-empty answers win).
- ` + "`" + `edited` + "`" + `: changed by hand before saving.

## Example

` + "```" + `json
{
  "headline": "Up to 50% off everything in store",
  "subheadline": null,
  "body_text": "Summer Sale",
  "call_to_action": "Shop now",
  "disclaimer": null,
  "keywords": ["sale", "summer"],
  "locale": "en",
  "aspect_ratio": "9:16",
  "background_color": "light red",
  "objects": ["sunglasses"]
}
` + "```" + `
`
