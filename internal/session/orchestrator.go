// Package session drives one analysis at a time: extraction, optional
// enhancement, manual edits and saving, reporting progress as events.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/starford/framelens/internal/apperr"
	"github.com/starford/framelens/internal/credential"
	"github.com/starford/framelens/internal/enhance"
	"github.com/starford/framelens/internal/models"
	"github.com/starford/framelens/internal/protocol"
	"github.com/starford/framelens/internal/storage"
	"github.com/starford/framelens/internal/store"
)

// State is the orchestrator's position in the analysis flow.
type State string

const (
	StateIdle          State = "idle"
	StateExtracting    State = "extracting"
	StateExtractedOnly State = "extracted"
	StateEnhancing     State = "enhancing"
	StateEnhanced      State = "enhanced"
	StateEnhanceFailed State = "enhance_failed"
)

// User-facing event messages.
const (
	MsgNoSelection          = "No selection"
	MsgInvalidSelectionType = "Invalid selection type"
	MsgAnalysisFailed       = "Error analyzing selection"
	MsgEmptyAPIKey          = "API key must not be empty"
	MsgSaveAPIKeyFailed     = "Failed to save API key"
	MsgNothingToSave        = "Nothing to save"
	MsgSaveFailed           = "Failed to save results"
	MsgEnhanceFailed        = "Error enhancing metadata"
	MsgEmptyReply           = "Enhancement returned no content"
	MsgMalformedReply       = "Enhancement reply could not be parsed"
)

// SelectionProvider returns the host's current selection.
type SelectionProvider interface {
	Selection(ctx context.Context) ([]*models.Node, error)
}

// Emitter delivers outbound events to the host.
type Emitter interface {
	Emit(event protocol.Event)
}

// Extractor produces baseline metadata for a node.
type Extractor interface {
	Extract(node *models.Node) (models.DesignMetadata, error)
}

// Rasterizer renders a node to PNG.
type Rasterizer interface {
	Render(ctx context.Context, node *models.Node) ([]byte, error)
}

// Enhancer improves baseline metadata using the rendered image.
type Enhancer interface {
	Enhance(ctx context.Context, image []byte, baseline models.DesignMetadata, credential string) (models.DesignMetadata, error)
}

// AnalysisSaver persists a finished analysis.
type AnalysisSaver interface {
	SaveAnalysis(ctx context.Context, a store.Analysis) (*store.Analysis, error)
}

// ImageWriter stores rendered images.
type ImageWriter interface {
	Write(path string, content []byte) error
}

// Deps are the collaborators of an Orchestrator. All are required except
// Logger.
type Deps struct {
	Selection   SelectionProvider
	Emitter     Emitter
	Extractor   Extractor
	Rasterizer  Rasterizer
	Enhancer    Enhancer
	Analyses    AnalysisSaver
	Images      ImageWriter
	Credentials *credential.Cache
	Logger      *slog.Logger
}

// Snapshot is a read-only view of the orchestrator.
type Snapshot struct {
	State       State                  `json:"state"`
	SelectionID string                 `json:"selection_id,omitempty"`
	Name        string                 `json:"name,omitempty"`
	Metadata    *models.DesignMetadata `json:"metadata,omitempty"`
	Source      string                 `json:"source,omitempty"`
	HasImage    bool                   `json:"has_image"`
	HasAPIKey   bool                   `json:"has_api_key"`
}

// Orchestrator owns the session state. Handle may be called from any
// goroutine; enhancement runs in the background and its result is dropped
// when a newer analysis or a cancel has happened in the meantime.
type Orchestrator struct {
	deps   Deps
	logger *slog.Logger

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	mu            sync.Mutex
	state         State
	generation    uint64
	selectionID   string
	name          string
	image         []byte
	current       *models.DesignMetadata
	source        string
	cancelEnhance context.CancelFunc
}

// New creates an idle orchestrator.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		deps:       deps,
		logger:     logger,
		baseCtx:    ctx,
		baseCancel: cancel,
		state:      StateIdle,
	}
}

// Start loads the stored credential, falling back to fallback when the
// store is empty, and announces it with api-key-loaded. A load failure is
// logged and does not stop the session.
func (o *Orchestrator) Start(ctx context.Context, fallback string) {
	ok, err := o.deps.Credentials.Init(ctx, fallback)
	if err != nil {
		o.logger.Warn("session: credential load failed", slog.String("error", err.Error()))
	}
	if !ok {
		return
	}
	key, _ := o.deps.Credentials.Get()
	o.deps.Emitter.Emit(protocol.Event{Type: protocol.EventAPIKeyLoaded, APIKey: key})
}

// Close cancels background enhancement and waits for it to finish.
func (o *Orchestrator) Close() {
	o.baseCancel()
	o.wg.Wait()
}

// Snapshot returns the current state.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, hasKey := o.deps.Credentials.Get()
	s := Snapshot{
		State:       o.state,
		SelectionID: o.selectionID,
		Name:        o.name,
		Source:      o.source,
		HasImage:    len(o.image) > 0,
		HasAPIKey:   hasKey,
	}
	if o.current != nil {
		md := o.current.Clone()
		s.Metadata = &md
	}
	return s
}

// Handle processes one inbound request. Outcomes are reported as events;
// the returned error is for the caller's logging and status mapping.
func (o *Orchestrator) Handle(ctx context.Context, req protocol.Request) error {
	switch req.Type {
	case protocol.RequestAnalyzeSelection:
		return o.analyze(ctx)
	case protocol.RequestEnhance:
		return o.enhance()
	case protocol.RequestUpdateField:
		return o.updateField(req.Field, req.Value)
	case protocol.RequestSaveResults:
		return o.save(ctx, req.Results)
	case protocol.RequestSaveAPIKey:
		return o.saveAPIKey(ctx, req.APIKey)
	case protocol.RequestCancel:
		o.cancel()
		return nil
	default:
		return fmt.Errorf("session: %q: %w", req.Type, apperr.ErrUnknownRequest)
	}
}

func (o *Orchestrator) emit(ev protocol.Event) {
	o.deps.Emitter.Emit(ev)
}

func (o *Orchestrator) analyze(ctx context.Context) error {
	selection, err := o.deps.Selection.Selection(ctx)
	if err != nil {
		o.emit(protocol.Event{Type: protocol.EventAnalysisError, Message: MsgAnalysisFailed})
		return fmt.Errorf("session: read selection: %w", err)
	}
	if len(selection) == 0 || selection[0] == nil {
		o.emit(protocol.Event{Type: protocol.EventAnalysisError, Message: MsgNoSelection})
		return fmt.Errorf("session: %w", apperr.ErrNoSelection)
	}
	node := selection[0]
	if !node.IsAnalyzable() {
		o.emit(protocol.Event{Type: protocol.EventAnalysisError, Message: MsgInvalidSelectionType})
		return fmt.Errorf("session: node type %s: %w", node.Type, apperr.ErrInvalidSelectionType)
	}

	o.mu.Lock()
	o.generation++
	gen := o.generation
	o.stopEnhanceLocked()
	o.state = StateExtracting
	o.selectionID = node.ID
	o.name = node.Name
	o.image = nil
	o.current = nil
	o.source = ""
	o.emit(protocol.Event{Type: protocol.EventAnalysisStart})
	o.mu.Unlock()

	o.logger.Info("session: analysis started", slog.String("selection_id", node.ID))

	md, image, err := o.extract(ctx, node)

	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation {
		o.logger.Debug("session: stale analysis dropped", slog.String("selection_id", node.ID))
		return nil
	}
	if err != nil {
		o.state = StateIdle
		o.selectionID = ""
		o.name = ""
		o.emit(protocol.Event{Type: protocol.EventAnalysisError, Message: MsgAnalysisFailed})
		o.logger.Error("session: analysis failed", slog.String("selection_id", node.ID), slog.String("error", err.Error()))
		return err
	}

	o.state = StateExtractedOnly
	o.image = image
	o.current = &md
	o.source = store.SourceBaseline
	out := md.Clone()
	o.emit(protocol.Event{
		Type:     protocol.EventMetadataExtracted,
		Metadata: &out,
		Image:    base64.StdEncoding.EncodeToString(image),
	})

	if _, ok := o.deps.Credentials.Get(); !ok {
		o.emit(protocol.Event{Type: protocol.EventAPIKeyRequired})
		return nil
	}
	o.startEnhanceLocked()
	return nil
}

func (o *Orchestrator) extract(ctx context.Context, node *models.Node) (_ models.DesignMetadata, _ []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session: render panicked: %v: %w", r, apperr.ErrRasterization)
		}
	}()
	md, err := o.deps.Extractor.Extract(node)
	if err != nil {
		return models.DesignMetadata{}, nil, fmt.Errorf("session: extract: %w", err)
	}
	image, err := o.deps.Rasterizer.Render(ctx, node)
	if err != nil {
		return models.DesignMetadata{}, nil, fmt.Errorf("session: render: %w", err)
	}
	return md, image, nil
}

func (o *Orchestrator) enhance() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch o.state {
	case StateExtractedOnly, StateEnhanced, StateEnhanceFailed:
	default:
		return fmt.Errorf("session: enhance in state %s: %w", o.state, apperr.ErrInvalidState)
	}
	if _, ok := o.deps.Credentials.Get(); !ok {
		o.emit(protocol.Event{Type: protocol.EventAPIKeyRequired})
		return fmt.Errorf("session: enhance: %w", apperr.ErrMissingCredential)
	}
	o.startEnhanceLocked()
	return nil
}

// startEnhanceLocked runs enhancement of the current record in the
// background. o.mu must be held.
func (o *Orchestrator) startEnhanceLocked() {
	key, _ := o.deps.Credentials.Get()
	gen := o.generation
	baseline := o.current.Clone()
	image := o.image
	selectionID := o.selectionID

	ctx, cancel := context.WithCancel(o.baseCtx)
	o.cancelEnhance = cancel
	o.state = StateEnhancing
	o.emit(protocol.Event{Type: protocol.EventEnhancementStart})

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()

		md, err := o.deps.Enhancer.Enhance(ctx, image, baseline, key)
		o.finishEnhance(gen, selectionID, md, err)
	}()
}

func (o *Orchestrator) finishEnhance(gen uint64, selectionID string, md models.DesignMetadata, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if gen != o.generation || o.state != StateEnhancing {
		o.logger.Debug("session: stale enhancement dropped", slog.String("selection_id", selectionID))
		return
	}
	o.cancelEnhance = nil
	if err != nil {
		o.state = StateEnhanceFailed
		o.emit(protocol.Event{Type: protocol.EventEnhancementError, Message: enhanceMessage(err)})
		o.logger.Warn("session: enhancement failed", slog.String("selection_id", selectionID), slog.String("error", err.Error()))
		return
	}
	o.state = StateEnhanced
	o.current = &md
	o.source = store.SourceEnhanced
	out := md.Clone()
	o.emit(protocol.Event{Type: protocol.EventMetadataEnhanced, Metadata: &out})
	o.logger.Info("session: enhancement finished", slog.String("selection_id", selectionID))
}

func enhanceMessage(err error) string {
	var re *enhance.RemoteError
	switch {
	case errors.As(err, &re) && re.Message != "":
		return re.Message
	case errors.Is(err, apperr.ErrEmptyResponse):
		return MsgEmptyReply
	case errors.Is(err, apperr.ErrMalformedResponse):
		return MsgMalformedReply
	default:
		return MsgEnhanceFailed
	}
}

func (o *Orchestrator) stopEnhanceLocked() {
	if o.cancelEnhance != nil {
		o.cancelEnhance()
		o.cancelEnhance = nil
	}
}

func (o *Orchestrator) updateField(field string, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.current == nil || o.state == StateEnhancing {
		return fmt.Errorf("session: update-field in state %s: %w", o.state, apperr.ErrInvalidState)
	}
	md := o.current.Clone()
	if err := md.SetField(field, value); err != nil {
		if errors.Is(err, apperr.ErrUnknownField) {
			return fmt.Errorf("session: update-field: %w", err)
		}
		return fmt.Errorf("session: update-field %s: %w: %w", field, apperr.ErrInvalidInput, err)
	}
	o.current = &md
	o.source = store.SourceEdited
	out := md.Clone()
	o.emit(protocol.Event{Type: protocol.EventMetadataUpdated, Metadata: &out})
	return nil
}

func (o *Orchestrator) save(ctx context.Context, results *models.DesignMetadata) error {
	o.mu.Lock()
	switch o.state {
	case StateExtractedOnly, StateEnhanced, StateEnhanceFailed:
	default:
		state := o.state
		o.mu.Unlock()
		o.emit(protocol.Event{Type: protocol.EventSaveError, Message: MsgNothingToSave})
		return fmt.Errorf("session: save in state %s: %w", state, apperr.ErrInvalidState)
	}
	gen := o.generation
	record := o.current.Clone()
	source := o.source
	if results != nil {
		record = results.Clone()
		source = store.SourceEdited
	}
	a := store.Analysis{
		SelectionID: o.selectionID,
		Name:        o.name,
		Source:      source,
		Metadata:    record,
		ImagePath:   storage.ImagePath(o.selectionID),
	}
	image := o.image
	o.mu.Unlock()

	if err := record.Validate(); err != nil {
		o.emit(protocol.Event{Type: protocol.EventSaveError, Message: MsgSaveFailed})
		return fmt.Errorf("session: save: %w: %w", apperr.ErrInvalidInput, err)
	}
	if err := o.deps.Images.Write(a.ImagePath, image); err != nil {
		o.emit(protocol.Event{Type: protocol.EventSaveError, Message: MsgSaveFailed})
		o.logger.Error("session: write image failed", slog.String("selection_id", a.SelectionID), slog.String("error", err.Error()))
		return fmt.Errorf("session: save image: %w", err)
	}
	saved, err := o.deps.Analyses.SaveAnalysis(ctx, a)
	if err != nil {
		o.emit(protocol.Event{Type: protocol.EventSaveError, Message: MsgSaveFailed})
		o.logger.Error("session: save analysis failed", slog.String("selection_id", a.SelectionID), slog.String("error", err.Error()))
		return fmt.Errorf("session: save: %w", err)
	}

	o.mu.Lock()
	if gen == o.generation {
		o.current = &record
		o.source = source
	}
	o.mu.Unlock()

	o.emit(protocol.Event{Type: protocol.EventResultsSaved, SelectionID: saved.SelectionID})
	o.logger.Info("session: results saved",
		slog.String("selection_id", saved.SelectionID),
		slog.String("source", saved.Source),
		slog.String("checksum", saved.Checksum),
	)
	return nil
}

func (o *Orchestrator) saveAPIKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		o.emit(protocol.Event{Type: protocol.EventAPIKeyError, Message: MsgEmptyAPIKey})
		return fmt.Errorf("session: save-api-key: %w", apperr.ErrInvalidInput)
	}
	if err := o.deps.Credentials.Save(ctx, key); err != nil {
		o.emit(protocol.Event{Type: protocol.EventAPIKeyError, Message: MsgSaveAPIKeyFailed})
		o.logger.Error("session: save api key failed", slog.String("error", err.Error()))
		return err
	}
	o.emit(protocol.Event{Type: protocol.EventAPIKeySaved})
	return nil
}

func (o *Orchestrator) cancel() {
	o.mu.Lock()
	o.generation++
	o.stopEnhanceLocked()
	o.state = StateIdle
	o.selectionID = ""
	o.name = ""
	o.image = nil
	o.current = nil
	o.source = ""
	o.emit(protocol.Event{Type: protocol.EventAnalysisCancelled})
	o.mu.Unlock()
}
