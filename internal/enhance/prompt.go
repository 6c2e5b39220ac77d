package enhance

// Prompt is the instruction sent alongside the rendered design.
const Prompt = `You are given a rendered marketing or UI design. Read it and return its metadata.

Fill in these ten fields:
1. headline: the main headline text
2. subheadline: the secondary headline, if any
3. body_text: the body copy
4. call_to_action: the call-to-action text
5. disclaimer: any disclaimer or fine print
6. keywords: keywords that describe the content
7. locale: the language of the copy as an ISO 639-1 code
8. aspect_ratio: the aspect ratio as "W:H"
9. background_color: a short description of the background color
10. objects: the objects and elements visible in the design

Reply with JSON only, matching this schema exactly:
{
  "headline": string or null,
  "subheadline": string or null,
  "body_text": string or null,
  "call_to_action": string or null,
  "disclaimer": string or null,
  "keywords": array of strings,
  "locale": string,
  "aspect_ratio": string,
  "background_color": string,
  "objects": array of strings
}`
