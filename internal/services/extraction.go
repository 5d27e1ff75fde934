package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ytscript-backend/internal/apperr"
	"ytscript-backend/internal/export"
	"ytscript-backend/internal/models"
	"ytscript-backend/internal/transcript"
)

type State string

const (
	StateReceived    State = "RECEIVED"
	StateResolvingID State = "RESOLVING_ID"
	StateFetching    State = "FETCHING"
	StateRendering   State = "RENDERING"
	StatePersisting  State = "PERSISTING"
	StateCompleted   State = "COMPLETED"
	StateFailed      State = "FAILED"
)

var stateSteps = map[State]int{
	StateReceived:    1,
	StateResolvingID: 2,
	StateFetching:    3,
	StateRendering:   4,
	StatePersisting:  5,
	StateCompleted:   6,
}

var stateNames = map[State]string{
	StateReceived:    "Request received",
	StateResolvingID: "Resolving video",
	StateFetching:    "Fetching captions",
	StateRendering:   "Rendering formats",
	StatePersisting:  "Saving transcript",
	StateCompleted:   "Completed",
	StateFailed:      "Failed",
}

// Formats only PRO plans may render.
var premiumFormats = map[export.Format]bool{
	export.FormatPDF:  true,
	export.FormatDOCX: true,
	export.FormatXLSX: true,
}

func IsPremiumFormat(f export.Format) bool {
	return premiumFormats[f]
}

// TranscriptStore persists extraction records. Finish must only move a
// PROCESSING record to a terminal status.
type TranscriptStore interface {
	Create(ctx context.Context, rec *models.TranscriptRecord) error
	Finish(ctx context.Context, rec *models.TranscriptRecord) error
}

type UsageLogger interface {
	Log(ctx context.Context, entry *models.UsageLog) error
}

type ExtractionRequest struct {
	URL            string
	Language       string
	Formats        []string
	Plan           models.Plan
	IncludeSummary bool
	SummaryType    string
	NoTimestamps   bool
	UserID         uuid.UUID
}

// FormatOutput is one format slot of a result. Exactly one of Data or Err is
// set.
type FormatOutput struct {
	Format      export.Format
	Data        []byte
	ContentType string
	Err         *apperr.Error
}

func (o FormatOutput) OK() bool {
	return o.Err == nil
}

type ExtractionResult struct {
	RequestID    uuid.UUID
	TranscriptID *uuid.UUID
	VideoID      string
	URL          string
	Metadata     transcript.VideoMetadata
	Transcript   *transcript.Transcript
	Formats      []export.Format
	Outputs      map[export.Format]FormatOutput
	Summary      *models.TranscriptSummary
	SummaryErr   *apperr.Error
	Status       string
	States       []State
}

func (r *ExtractionResult) Text() string {
	return r.Transcript.Text()
}

func (r *ExtractionResult) WordCount() int {
	return r.Transcript.WordCount()
}

type Orchestrator struct {
	captions   *CaptionFetcher
	metadata   *MetadataFetcher
	summarizer Summarizer
	store      TranscriptStore
	usage      UsageLogger
	notifier   StatusNotifier
	lookup     func(export.Format) (export.Renderer, bool)
}

// NewOrchestrator wires the pipeline. summarizer, store, usage and notifier
// may be nil.
func NewOrchestrator(
	captions *CaptionFetcher,
	metadata *MetadataFetcher,
	summarizer Summarizer,
	store TranscriptStore,
	usage UsageLogger,
	notifier StatusNotifier,
) *Orchestrator {
	if summarizer == nil {
		summarizer = PlaceholderSummarizer{}
	}
	return &Orchestrator{
		captions:   captions,
		metadata:   metadata,
		summarizer: summarizer,
		store:      store,
		usage:      usage,
		notifier:   notifier,
		lookup:     export.Lookup,
	}
}

// extractionRun tracks the state of one Extract call.
type extractionRun struct {
	o       *Orchestrator
	req     ExtractionRequest
	result  *ExtractionResult
	started time.Time
}

func (run *extractionRun) transition(ctx context.Context, s State) {
	run.result.States = append(run.result.States, s)
	if run.o.notifier == nil || run.req.UserID == uuid.Nil {
		return
	}
	run.o.notifier.Publish(ctx, run.req.UserID, models.WSMessage{
		Type: "status_update",
		Payload: models.StatusUpdate{
			RequestID: run.result.RequestID,
			VideoID:   run.result.VideoID,
			State:     string(s),
			Step:      stateSteps[s],
			StepName:  stateNames[s],
		},
	})
}

func (run *extractionRun) fail(ctx context.Context, err error) error {
	run.result.Status = models.StatusFailed
	run.transition(ctx, StateFailed)

	code := apperr.CodeOf(err)
	message := "An unexpected error occurred"
	if e, ok := apperr.As(err); ok {
		message = e.Message
	}
	log.Printf("Extraction %s failed after %s: %v", run.result.RequestID, time.Since(run.started).Round(time.Millisecond), err)

	if run.o.notifier != nil && run.req.UserID != uuid.Nil {
		run.o.notifier.Publish(ctx, run.req.UserID, models.WSMessage{
			Type: "error",
			Payload: models.ErrorEvent{
				RequestID:    run.result.RequestID,
				ErrorCode:    string(code),
				ErrorMessage: message,
			},
		})
	}
	return err
}

// Extract runs one extraction end to end: resolve the id, fetch captions and
// metadata concurrently, render the permitted formats, then persist.
func (o *Orchestrator) Extract(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	run := &extractionRun{
		o:   o,
		req: req,
		result: &ExtractionResult{
			RequestID: uuid.New(),
			URL:       strings.TrimSpace(req.URL),
			Status:    models.StatusProcessing,
		},
		started: time.Now(),
	}
	res := run.result
	run.transition(ctx, StateReceived)

	// ──── Resolve ────
	run.transition(ctx, StateResolvingID)
	videoID, err := ResolveVideoID(req.URL)
	if err != nil {
		return nil, run.fail(ctx, err)
	}
	res.VideoID = videoID

	formats, err := normalizeFormats(req.Formats)
	if err != nil {
		return nil, run.fail(ctx, err)
	}
	res.Formats = formats
	allowed, denied := gateFormats(req.Plan, formats)

	lang := strings.TrimSpace(req.Language)
	if lang == "" {
		lang = transcript.DefaultLanguage
	}

	// ──── Fetch ────
	run.transition(ctx, StateFetching)
	rec := o.createRecord(ctx, req, res, lang)

	var tr *transcript.Transcript
	var meta transcript.VideoMetadata
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := o.captions.Fetch(gctx, res.URL, videoID, lang)
		if err != nil {
			return err
		}
		tr = t
		return nil
	})
	g.Go(func() error {
		meta = o.metadata.Fetch(gctx, res.URL)
		return nil
	})
	if err := g.Wait(); err != nil {
		if rec != nil {
			code := string(apperr.CodeOf(err))
			rec.Status = models.StatusFailed
			rec.ErrorCode = &code
			o.finishRecord(ctx, rec)
		}
		return nil, run.fail(ctx, err)
	}
	res.Transcript = tr
	res.Metadata = meta

	// ──── Render ────
	run.transition(ctx, StateRendering)
	res.Outputs = o.renderAll(tr, &meta, allowed, req.NoTimestamps)
	for f, marker := range denied {
		res.Outputs[f] = marker
	}

	if req.IncludeSummary {
		res.Summary, res.SummaryErr = o.summarize(ctx, req, tr)
	}

	// ──── Persist ────
	run.transition(ctx, StatePersisting)
	if rec != nil {
		rec.Title = meta.Title
		rec.Channel = meta.Channel
		rec.Duration = meta.Duration
		rec.TranscriptText = tr.Text()
		rec.WordCount = tr.WordCount()
		rec.Formats = renderedFormats(formats, res.Outputs)
		if segs, err := export.EncodeSegments(tr); err == nil {
			rec.SegmentsJSON = segs
		}
		rec.Status = models.StatusCompleted
		if o.finishRecord(ctx, rec) {
			res.TranscriptID = &rec.ID
		}
	}
	o.logUsage(ctx, req.UserID, "transcript_extraction", videoID, formats)

	res.Status = models.StatusCompleted
	run.transition(ctx, StateCompleted)
	if o.notifier != nil && req.UserID != uuid.Nil {
		event := models.CompletedEvent{RequestID: res.RequestID, VideoID: videoID, WordCount: tr.WordCount()}
		if res.TranscriptID != nil {
			event.TranscriptID = *res.TranscriptID
		}
		o.notifier.Publish(ctx, req.UserID, models.WSMessage{Type: "completed", Payload: event})
	}

	log.Printf("Extraction %s for %s completed in %s (%d segments, %d formats)",
		res.RequestID, videoID, time.Since(run.started).Round(time.Millisecond), tr.Len(), len(formats))
	return res, nil
}

// Export re-renders one format from a stored record under the same plan
// rules as Extract.
func (o *Orchestrator) Export(ctx context.Context, rec *models.TranscriptRecord, format string, plan models.Plan, noTimestamps bool) (FormatOutput, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return FormatOutput{}, apperr.Validation(fmt.Sprintf("Invalid format: %s", format)).WithDetail("format", format)
	}
	if _, denied := gateFormats(plan, []export.Format{f}); len(denied) > 0 {
		return FormatOutput{}, apperr.InsufficientPlan(strings.ToUpper(string(f)) + " export")
	}

	tr, err := export.DecodeSegments(rec.SegmentsJSON)
	if err != nil {
		return FormatOutput{}, apperr.Internal(err)
	}
	meta := transcript.VideoMetadata{
		Title:    rec.Title,
		Channel:  rec.Channel,
		Duration: rec.Duration,
		Language: rec.Language,
	}.WithDefaults()

	out := o.renderOne(tr, &meta, f, noTimestamps)
	if !out.OK() {
		return FormatOutput{}, out.Err
	}
	o.logUsage(ctx, rec.UserID, "transcript_export", rec.VideoID, []export.Format{f})
	return out, nil
}

// gateFormats is the single plan check for premium formats. Denied formats
// get an upgrade marker and are never handed to a renderer.
func gateFormats(plan models.Plan, formats []export.Format) ([]export.Format, map[export.Format]FormatOutput) {
	allowed := make([]export.Format, 0, len(formats))
	denied := make(map[export.Format]FormatOutput)
	for _, f := range formats {
		if premiumFormats[f] && plan != models.PlanPro {
			denied[f] = FormatOutput{
				Format: f,
				Err:    apperr.InsufficientPlan(strings.ToUpper(string(f)) + " export"),
			}
			continue
		}
		allowed = append(allowed, f)
	}
	return allowed, denied
}

// normalizeFormats validates names, drops duplicates and defaults to txt.
func normalizeFormats(raw []string) ([]export.Format, error) {
	if len(raw) == 0 {
		return []export.Format{export.FormatTXT}, nil
	}

	seen := make(map[export.Format]bool, len(raw))
	var formats []export.Format
	var invalid []string
	for _, name := range raw {
		f, err := export.ParseFormat(name)
		if err != nil {
			invalid = append(invalid, name)
			continue
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(invalid) > 0 {
		return nil, apperr.Validation("Invalid formats: "+strings.Join(invalid, ", ")).
			WithDetail("formats", strings.Join(invalid, ","))
	}
	return formats, nil
}

// renderAll renders each format in its own goroutine and slot.
func (o *Orchestrator) renderAll(tr *transcript.Transcript, meta *transcript.VideoMetadata, formats []export.Format, noTimestamps bool) map[export.Format]FormatOutput {
	results := make([]FormatOutput, len(formats))

	var wg sync.WaitGroup
	for i, f := range formats {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = o.renderOne(tr, meta, f, noTimestamps)
		}()
	}
	wg.Wait()

	outputs := make(map[export.Format]FormatOutput, len(formats))
	for _, out := range results {
		outputs[out.Format] = out
	}
	return outputs
}

func (o *Orchestrator) renderOne(tr *transcript.Transcript, meta *transcript.VideoMetadata, f export.Format, noTimestamps bool) (out FormatOutput) {
	out.Format = f

	r, ok := o.lookup(f)
	if !ok {
		out.Err = apperr.Render(string(f), fmt.Errorf("no renderer registered"))
		return out
	}
	if f == export.FormatTXT && noTimestamps {
		r = export.TextRenderer{NoTimestamps: true}
	}

	defer func() {
		if p := recover(); p != nil {
			log.Printf("Renderer %s panicked: %v", f, p)
			out = FormatOutput{Format: f, Err: apperr.Render(string(f), fmt.Errorf("panic: %v", p))}
		}
	}()

	data, err := r.Render(tr, meta)
	if err != nil {
		log.Printf("Renderer %s failed: %v", f, err)
		out.Err = apperr.Render(string(f), err)
		return out
	}
	out.Data = data
	out.ContentType = r.ContentType()
	return out
}

func (o *Orchestrator) summarize(ctx context.Context, req ExtractionRequest, tr *transcript.Transcript) (*models.TranscriptSummary, *apperr.Error) {
	if req.Plan != models.PlanPro {
		return nil, apperr.InsufficientPlan("AI summaries")
	}
	summaryType := req.SummaryType
	if summaryType == "" {
		summaryType = "concise"
	}
	summary, err := o.summarizer.Summarize(ctx, tr.Text(), summaryType)
	if err != nil {
		log.Printf("Summary generation failed: %v", err)
		return nil, apperr.Summary(err)
	}
	return summary, nil
}

// persistTimeout bounds record and usage writes, which outlive the caller's
// context so a dropped client never strands a PROCESSING record.
const persistTimeout = 10 * time.Second

func persistContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
}

func (o *Orchestrator) createRecord(ctx context.Context, req ExtractionRequest, res *ExtractionResult, lang string) *models.TranscriptRecord {
	if o.store == nil || req.UserID == uuid.Nil {
		return nil
	}
	rec := &models.TranscriptRecord{
		UserID:   req.UserID,
		VideoID:  res.VideoID,
		URL:      res.URL,
		Language: lang,
		Formats:  []string{},
		Status:   models.StatusProcessing,
	}
	ctx, cancel := persistContext(ctx)
	defer cancel()
	if err := o.store.Create(ctx, rec); err != nil {
		log.Printf("WARNING: failed to create transcript record for %s: %v", res.VideoID, err)
		return nil
	}
	return rec
}

func (o *Orchestrator) finishRecord(ctx context.Context, rec *models.TranscriptRecord) bool {
	ctx, cancel := persistContext(ctx)
	defer cancel()
	if err := o.store.Finish(ctx, rec); err != nil {
		log.Printf("WARNING: failed to save transcript record %s: %v", rec.ID, err)
		return false
	}
	return true
}

func (o *Orchestrator) logUsage(ctx context.Context, userID uuid.UUID, action, videoID string, formats []export.Format) {
	if o.usage == nil || userID == uuid.Nil {
		return
	}
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	ctx, cancel := persistContext(ctx)
	defer cancel()
	if err := o.usage.Log(ctx, &models.UsageLog{
		UserID:  userID,
		Action:  action,
		VideoID: videoID,
		Formats: names,
	}); err != nil {
		log.Printf("WARNING: failed to log usage for user %s: %v", userID, err)
	}
}

func renderedFormats(requested []export.Format, outputs map[export.Format]FormatOutput) []string {
	names := make([]string, 0, len(requested))
	for _, f := range requested {
		if out, ok := outputs[f]; ok && out.OK() {
			names = append(names, string(f))
		}
	}
	return names
}
