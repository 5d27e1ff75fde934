package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytscript-backend/internal/apperr"
	"ytscript-backend/internal/export"
	"ytscript-backend/internal/models"
	"ytscript-backend/internal/transcript"
)

type stubStore struct {
	mu       sync.Mutex
	created  []*models.TranscriptRecord
	finished []models.TranscriptRecord
	err      error
}

func (s *stubStore) Create(ctx context.Context, rec *models.TranscriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.err != nil {
		return s.err
	}
	rec.ID = uuid.New()
	s.created = append(s.created, rec)
	return nil
}

func (s *stubStore) Finish(ctx context.Context, rec *models.TranscriptRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	s.finished = append(s.finished, *rec)
	return nil
}

type stubUsage struct {
	entries []*models.UsageLog
}

func (s *stubUsage) Log(ctx context.Context, entry *models.UsageLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.entries = append(s.entries, entry)
	return nil
}

type stubNotifier struct {
	mu   sync.Mutex
	msgs []models.WSMessage
}

func (n *stubNotifier) Publish(ctx context.Context, userID uuid.UUID, msg models.WSMessage) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *stubNotifier) types() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, m := range n.msgs {
		out = append(out, m.Type)
	}
	return out
}

type countingRenderer struct {
	export.Renderer
	calls *int32
}

func (c countingRenderer) Render(t *transcript.Transcript, meta *transcript.VideoMetadata) ([]byte, error) {
	atomic.AddInt32(c.calls, 1)
	return c.Renderer.Render(t, meta)
}

type failingRenderer struct{ export.Renderer }

func (failingRenderer) Render(*transcript.Transcript, *transcript.VideoMetadata) ([]byte, error) {
	return nil, errors.New("disk full")
}

type panickingRenderer struct{ export.Renderer }

func (panickingRenderer) Render(*transcript.Transcript, *transcript.VideoMetadata) ([]byte, error) {
	panic("nil map")
}

type stubSummarizer struct {
	err   error
	calls int
}

func (s *stubSummarizer) Summarize(ctx context.Context, text, summaryType string) (*models.TranscriptSummary, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &models.TranscriptSummary{Text: "summary of " + text, KeyPoints: []string{"a"}, Type: summaryType}, nil
}

type fixture struct {
	captions *fakeCaptionSource
	store    *stubStore
	usage    *stubUsage
	notifier *stubNotifier
	summary  *stubSummarizer
	calls    map[export.Format]*int32
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		captions: &fakeCaptionSource{files: map[string]string{"en.vtt": helloVTT}},
		store:    &stubStore{},
		usage:    &stubUsage{},
		notifier: &stubNotifier{},
		summary:  &stubSummarizer{},
		calls:    make(map[export.Format]*int32),
	}
	meta := &fakeMetadataSource{meta: transcript.VideoMetadata{Title: "Never Gonna", Channel: "Rick", Duration: 213, Language: "en"}}

	f.orch = NewOrchestrator(
		NewCaptionFetcher(f.captions, t.TempDir(), time.Second),
		NewMetadataFetcher(meta, time.Second),
		f.summary,
		f.store,
		f.usage,
		f.notifier,
	)
	for _, format := range export.Formats() {
		f.calls[format] = new(int32)
	}
	f.orch.lookup = func(format export.Format) (export.Renderer, bool) {
		r, ok := export.Lookup(format)
		if !ok {
			return nil, false
		}
		return countingRenderer{Renderer: r, calls: f.calls[format]}, true
	}
	return f
}

func TestExtract_ProHappyPath(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"txt", "srt", "json", "pdf", "docx", "xlsx"},
		Plan:    models.PlanPro,
		UserID:  userID,
	})
	require.NoError(t, err)

	assert.Equal(t, "dQw4w9WgXcQ", res.VideoID)
	assert.Equal(t, "Hello world", res.Text())
	assert.Equal(t, 2, res.WordCount())
	assert.Equal(t, "Never Gonna", res.Metadata.Title)
	assert.Equal(t, models.StatusCompleted, res.Status)
	assert.Equal(t, []State{StateReceived, StateResolvingID, StateFetching, StateRendering, StatePersisting, StateCompleted}, res.States)

	require.Len(t, res.Outputs, 6)
	for _, format := range export.Formats() {
		out := res.Outputs[format]
		assert.True(t, out.OK(), format)
		assert.NotEmpty(t, out.Data, format)
		assert.EqualValues(t, 1, atomic.LoadInt32(f.calls[format]), format)
	}
	assert.Equal(t, "[0:01] Hello world", string(res.Outputs[export.FormatTXT].Data))
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:03,500\nHello world\n", string(res.Outputs[export.FormatSRT].Data))

	require.Len(t, f.store.created, 1)
	require.Len(t, f.store.finished, 1)
	saved := f.store.finished[0]
	assert.Equal(t, models.StatusCompleted, saved.Status)
	assert.Equal(t, "Never Gonna", saved.Title)
	assert.Equal(t, 2, saved.WordCount)
	assert.Len(t, saved.Formats, 6)
	require.NotNil(t, res.TranscriptID)
	assert.Equal(t, saved.ID, *res.TranscriptID)

	require.Len(t, f.usage.entries, 1)
	assert.Equal(t, "transcript_extraction", f.usage.entries[0].Action)

	types := f.notifier.types()
	assert.Equal(t, "status_update", types[0])
	assert.Equal(t, "completed", types[len(types)-1])
}

func TestExtract_FreePlanNeverInvokesPremiumRenderers(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"txt", "pdf", "xlsx"},
		Plan:    models.PlanFree,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 0, atomic.LoadInt32(f.calls[export.FormatPDF]))
	assert.EqualValues(t, 0, atomic.LoadInt32(f.calls[export.FormatXLSX]))
	assert.EqualValues(t, 1, atomic.LoadInt32(f.calls[export.FormatTXT]))

	pdf := res.Outputs[export.FormatPDF]
	require.NotNil(t, pdf.Err)
	assert.Nil(t, pdf.Data)
	assert.Equal(t, apperr.CodeInsufficientPlan, pdf.Err.Code)
	assert.True(t, pdf.Err.UpgradeRequired())

	assert.True(t, res.Outputs[export.FormatTXT].OK())
	assert.Equal(t, []export.Format{export.FormatTXT, export.FormatPDF, export.FormatXLSX}, res.Formats)
}

func TestExtract_RenderFailureStaysInItsSlot(t *testing.T) {
	f := newFixture(t)
	f.orch.lookup = func(format export.Format) (export.Renderer, bool) {
		r, _ := export.Lookup(format)
		switch format {
		case export.FormatDOCX:
			return failingRenderer{r}, true
		case export.FormatXLSX:
			return panickingRenderer{r}, true
		}
		return r, true
	}

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"docx", "srt", "xlsx", "json"},
		Plan:    models.PlanPro,
		UserID:  uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, apperr.CodeRender, res.Outputs[export.FormatDOCX].Err.Code)
	assert.NotContains(t, res.Outputs[export.FormatDOCX].Err.Message, "disk full")
	assert.Equal(t, apperr.CodeRender, res.Outputs[export.FormatXLSX].Err.Code)
	assert.True(t, res.Outputs[export.FormatSRT].OK())
	assert.True(t, res.Outputs[export.FormatJSON].OK())

	require.Len(t, f.store.finished, 1)
	assert.Equal(t, []string{"srt", "json"}, f.store.finished[0].Formats)
}

func TestExtract_CaptionFailureFails(t *testing.T) {
	f := newFixture(t)
	f.captions.files = nil

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Plan:   models.PlanPro,
		UserID: uuid.New(),
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, apperr.CodeUnavailable, apperr.CodeOf(err))

	require.Len(t, f.store.finished, 1)
	assert.Equal(t, models.StatusFailed, f.store.finished[0].Status)
	require.NotNil(t, f.store.finished[0].ErrorCode)
	assert.Equal(t, "TRANSCRIPT_UNAVAILABLE", *f.store.finished[0].ErrorCode)

	types := f.notifier.types()
	assert.Equal(t, "error", types[len(types)-1])
	for _, c := range f.calls {
		assert.EqualValues(t, 0, atomic.LoadInt32(c))
	}
}

// disconnectingCaptionSource cancels the caller's context while captions are
// being fetched, like a client that hangs up mid-request.
type disconnectingCaptionSource struct {
	cancel context.CancelFunc
	files  map[string]string
}

func (d *disconnectingCaptionSource) DownloadSubtitles(ctx context.Context, req SubtitleRequest) error {
	d.cancel()
	if d.files == nil {
		return &ToolError{Tool: "yt-dlp", Err: ctx.Err()}
	}
	return (&fakeCaptionSource{files: d.files}).DownloadSubtitles(context.Background(), req)
}

func TestExtract_DisconnectDuringFetchStillFailsRecord(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orch.captions = NewCaptionFetcher(&disconnectingCaptionSource{cancel: cancel}, t.TempDir(), time.Second)

	_, err := f.orch.Extract(ctx, ExtractionRequest{
		URL:    "https://youtu.be/dQw4w9WgXcQ",
		Plan:   models.PlanPro,
		UserID: uuid.New(),
	})
	require.Error(t, err)

	require.Len(t, f.store.created, 1)
	require.Len(t, f.store.finished, 1)
	assert.Equal(t, models.StatusFailed, f.store.finished[0].Status)
}

func TestExtract_DisconnectDuringFetchStillCompletesRecord(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.orch.captions = NewCaptionFetcher(&disconnectingCaptionSource{
		cancel: cancel,
		files:  map[string]string{"en.vtt": helloVTT},
	}, t.TempDir(), time.Second)

	res, err := f.orch.Extract(ctx, ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"txt"},
		Plan:    models.PlanFree,
		UserID:  uuid.New(),
	})
	require.NoError(t, err)
	require.NotNil(t, res.TranscriptID)

	require.Len(t, f.store.finished, 1)
	assert.Equal(t, models.StatusCompleted, f.store.finished[0].Status)
	require.Len(t, f.usage.entries, 1)
	assert.Equal(t, "transcript_extraction", f.usage.entries[0].Action)
}

func TestExtract_MetadataFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t)
	f.orch.metadata = NewMetadataFetcher(&fakeMetadataSource{err: errors.New("boom")}, time.Second)

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"json"},
	})
	require.NoError(t, err)
	assert.Equal(t, transcript.DefaultMetadata(), res.Metadata)

	var doc export.Document
	require.NoError(t, json.Unmarshal(res.Outputs[export.FormatJSON].Data, &doc))
	assert.Equal(t, "Unknown Title", doc.Metadata.Title)
}

func TestExtract_InvalidURL(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Extract(context.Background(), ExtractionRequest{URL: "https://example.com/video", UserID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.Equal(t, 0, f.captions.calls)
	assert.Empty(t, f.store.created)
}

func TestExtract_InvalidFormat(t *testing.T) {
	f := newFixture(t)

	_, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"txt", "mp4", "wav"},
	})
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeValidation, appErr.Code)
	assert.Equal(t, "Invalid formats: mp4, wav", appErr.Message)
	assert.Equal(t, 0, f.captions.calls)
}

func TestExtract_DefaultsAndDeduplicatesFormats(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)
	assert.Equal(t, []export.Format{export.FormatTXT}, res.Formats)

	res, err = f.orch.Extract(context.Background(), ExtractionRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Formats: []string{"srt", "SRT", "txt"},
	})
	require.NoError(t, err)
	assert.Equal(t, []export.Format{export.FormatSRT, export.FormatTXT}, res.Formats)
}

func TestExtract_AnonymousIsNotPersisted(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{URL: "https://youtu.be/dQw4w9WgXcQ"})
	require.NoError(t, err)

	assert.Nil(t, res.TranscriptID)
	assert.Empty(t, f.store.created)
	assert.Empty(t, f.usage.entries)
	assert.Empty(t, f.notifier.types())
}

func TestExtract_StoreErrorsAreNotSurfaced(t *testing.T) {
	f := newFixture(t)
	f.store.err = errors.New("connection refused")

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{URL: "https://youtu.be/dQw4w9WgXcQ", UserID: uuid.New()})
	require.NoError(t, err)
	assert.Nil(t, res.TranscriptID)
	assert.Equal(t, models.StatusCompleted, res.Status)
}

func TestExtract_SummaryGating(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:            "https://youtu.be/dQw4w9WgXcQ",
		Plan:           models.PlanFree,
		IncludeSummary: true,
	})
	require.NoError(t, err)
	assert.Nil(t, res.Summary)
	require.NotNil(t, res.SummaryErr)
	assert.True(t, res.SummaryErr.UpgradeRequired())
	assert.Equal(t, 0, f.summary.calls)

	res, err = f.orch.Extract(context.Background(), ExtractionRequest{
		URL:            "https://youtu.be/dQw4w9WgXcQ",
		Plan:           models.PlanPro,
		IncludeSummary: true,
		SummaryType:    "bullet",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, "bullet", res.Summary.Type)
	assert.Nil(t, res.SummaryErr)
}

func TestExtract_SummaryFailureIsAMarker(t *testing.T) {
	f := newFixture(t)
	f.summary.err = errors.New("quota exceeded")

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:            "https://youtu.be/dQw4w9WgXcQ",
		Plan:           models.PlanPro,
		IncludeSummary: true,
	})
	require.NoError(t, err)
	require.NotNil(t, res.SummaryErr)
	assert.Equal(t, apperr.CodeSummary, res.SummaryErr.Code)
}

func TestExtract_NoTimestampsText(t *testing.T) {
	f := newFixture(t)

	res, err := f.orch.Extract(context.Background(), ExtractionRequest{
		URL:          "https://youtu.be/dQw4w9WgXcQ",
		NoTimestamps: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello world", string(res.Outputs[export.FormatTXT].Data))
}

func TestExport_FromStoredRecord(t *testing.T) {
	f := newFixture(t)
	tr := transcript.ParseVTT(helloVTT)
	segs, err := export.EncodeSegments(tr)
	require.NoError(t, err)

	rec := &models.TranscriptRecord{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		VideoID:      "dQw4w9WgXcQ",
		Title:        "Stored",
		SegmentsJSON: segs,
	}

	out, err := f.orch.Export(context.Background(), rec, "srt", models.PlanFree, false)
	require.NoError(t, err)
	assert.Equal(t, "1\n00:00:01,000 --> 00:00:03,500\nHello world\n", string(out.Data))
	require.Len(t, f.usage.entries, 1)
	assert.Equal(t, "transcript_export", f.usage.entries[0].Action)

	_, err = f.orch.Export(context.Background(), rec, "docx", models.PlanFree, false)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeInsufficientPlan, apperr.CodeOf(err))
	assert.EqualValues(t, 0, atomic.LoadInt32(f.calls[export.FormatDOCX]))

	out, err = f.orch.Export(context.Background(), rec, "docx", models.PlanPro, false)
	require.NoError(t, err)
	assert.NotEmpty(t, out.Data)

	_, err = f.orch.Export(context.Background(), rec, "odt", models.PlanPro, false)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
}

func TestGateFormats(t *testing.T) {
	all := export.Formats()

	allowed, denied := gateFormats(models.PlanPro, all)
	assert.Equal(t, all, allowed)
	assert.Empty(t, denied)

	allowed, denied = gateFormats(models.PlanFree, all)
	assert.Equal(t, []export.Format{export.FormatTXT, export.FormatSRT, export.FormatJSON}, allowed)
	assert.Len(t, denied, 3)
	for f := range denied {
		assert.True(t, IsPremiumFormat(f))
	}
}
