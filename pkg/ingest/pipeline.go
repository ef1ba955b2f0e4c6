package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/beeper/recipe-ingest/pkg/aiprovider"
	"github.com/beeper/recipe-ingest/pkg/extract"
	"github.com/beeper/recipe-ingest/pkg/fetch"
	"github.com/beeper/recipe-ingest/pkg/frames"
	"github.com/beeper/recipe-ingest/pkg/prompt"
	"github.com/beeper/recipe-ingest/pkg/recipe"
)

type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*fetch.ScrapedContent, error)
}

type FrameSampler interface {
	ExtractFrames(ctx context.Context, videoURL string, count int) *frames.FrameSet
}

type Completer interface {
	Complete(ctx context.Context, p *aiprovider.Prompt) (*aiprovider.Response, error)
}

// Pipeline runs import and enrich invocations. It holds no per-invocation state,
// so one Pipeline can serve concurrent requests.
type Pipeline struct {
	Fetcher    Fetcher
	Sampler    FrameSampler
	Model      Completer
	Store      recipe.Store
	Prompts    *prompt.Builder
	FrameCount int

	now func() time.Time
}

func NewPipeline(fetcher Fetcher, sampler FrameSampler, model Completer, store recipe.Store, prompts *prompt.Builder) *Pipeline {
	if prompts == nil {
		prompts = &prompt.Builder{}
	}
	return &Pipeline{
		Fetcher: fetcher,
		Sampler: sampler,
		Model:   model,
		Store:   store,
		Prompts: prompts,
		now:     time.Now,
	}
}

type invocation struct {
	id    xid.ID
	log   zerolog.Logger
	stage Stage
}

func newInvocation(ctx context.Context, kind string) *invocation {
	id := xid.New()
	log := zerolog.Ctx(ctx).With().
		Str("component", "ingest").
		Str("invocation", kind).
		Stringer("invocation_id", id).
		Logger()
	inv := &invocation{id: id, log: log, stage: StageStart}
	log.Debug().Str("stage", string(StageStart)).Msg("Ingest invocation started")
	return inv
}

func (inv *invocation) advance(stage Stage) {
	inv.log.Debug().Str("from", string(inv.stage)).Str("stage", string(stage)).Msg("Ingest stage transition")
	inv.stage = stage
}

func (inv *invocation) fail(err error) *StageError {
	stageErr := &StageError{Stage: inv.stage, Err: err}
	inv.log.Warn().Err(err).Str("stage", string(inv.stage)).Msg("Ingest invocation failed")
	return stageErr
}

// ImportFromURL classifies the URL and imports it as a new private recipe owned by authorID.
func (p *Pipeline) ImportFromURL(ctx context.Context, rawURL, authorID string) (*recipe.Record, error) {
	return p.ImportFromSource(ctx, recipe.ClassifySource(rawURL), authorID)
}

// ImportFromSource imports an explicitly classified source. Failures are returned as *StageError.
func (p *Pipeline) ImportFromSource(ctx context.Context, src recipe.SourceReference, authorID string) (*recipe.Record, error) {
	inv := newInvocation(ctx, "import")
	inv.log = inv.log.With().Str("source", src.String()).Logger()
	ctx = inv.log.WithContext(ctx)
	if strings.TrimSpace(src.Locator) == "" {
		return nil, inv.fail(ErrEmptySource)
	}

	inv.advance(StageGathering)
	var extractionPrompt *aiprovider.Prompt
	var scrapedImage string
	switch src.Kind {
	case recipe.SourceVideo:
		set := p.Sampler.ExtractFrames(ctx, src.Locator, p.FrameCount)
		inv.advance(StagePrompting)
		extractionPrompt = p.Prompts.VideoExtraction(src.Locator, set.Frames)
	default:
		content, err := p.Fetcher.Fetch(ctx, src.Locator)
		if err != nil {
			return nil, inv.fail(err)
		}
		scrapedImage = content.PrimaryImageURL
		inv.advance(StagePrompting)
		extractionPrompt = p.Prompts.PageExtraction(content)
	}

	rec, err := p.analyze(ctx, inv, extractionPrompt, src.Locator)
	if err != nil {
		return nil, err
	}
	if rec.ImageURL == nil && scrapedImage != "" {
		rec.ImageURL = &scrapedImage
	}

	inv.advance(StageDone)
	created, err := p.Store.CreateRecipe(ctx, rec, authorID)
	if err != nil {
		return nil, inv.fail(err)
	}
	inv.log.Info().Str("recipe_id", created.ID).Msg("Imported recipe")
	return created, nil
}

// EnrichFromVideo analyzes a video and applies the result to an existing recipe.
// Frame extraction problems degrade to a text-only prompt. It returns false when any
// stage fails or when no recipe matched recipeID.
func (p *Pipeline) EnrichFromVideo(ctx context.Context, recipeID, videoURL string) bool {
	inv := newInvocation(ctx, "enrich")
	inv.log = inv.log.With().Str("recipe_id", recipeID).Str("video_url", videoURL).Logger()
	ctx = inv.log.WithContext(ctx)
	if strings.TrimSpace(videoURL) == "" {
		inv.fail(ErrEmptySource)
		return false
	}

	inv.advance(StageGathering)
	set := p.Sampler.ExtractFrames(ctx, videoURL, p.FrameCount)
	inv.log.Debug().Int("frame_count", set.ActualCount).Msg("Gathered video frames")

	inv.advance(StagePrompting)
	rec, err := p.analyze(ctx, inv, p.Prompts.VideoExtraction(videoURL, set.Frames), videoURL)
	if err != nil {
		return false
	}

	inv.advance(StageDone)
	ok, err := p.Store.UpdateRecipe(ctx, recipeID, recipe.EnrichmentUpdate(rec, p.timestamp()))
	if err != nil {
		inv.fail(err)
		return false
	}
	if !ok {
		inv.log.Warn().Msg("No recipe matched the enrichment update")
		return false
	}
	inv.log.Info().Msg("Enriched recipe from video")
	return true
}

func (p *Pipeline) timestamp() time.Time {
	if p.now != nil {
		return p.now().UTC()
	}
	return time.Now().UTC()
}

func (p *Pipeline) analyze(ctx context.Context, inv *invocation, extractionPrompt *aiprovider.Prompt, sourceURL string) (*recipe.ExtractedRecord, error) {
	inv.advance(StageCompleting)
	resp, err := p.Model.Complete(ctx, extractionPrompt)
	if err != nil {
		return nil, inv.fail(err)
	}

	inv.advance(StageParsing)
	data, err := extract.Parse(resp.RawText)
	if err != nil {
		return nil, inv.fail(err)
	}

	inv.advance(StageMapping)
	rec, err := extract.Map(data, sourceURL)
	if err != nil {
		return nil, inv.fail(err)
	}
	return rec, nil
}

// Analyze runs the completing, parsing and mapping stages for an already built prompt.
// Failures are returned as *StageError tagged with the failing stage.
func Analyze(ctx context.Context, model Completer, extractionPrompt *aiprovider.Prompt, sourceURL string) (*recipe.ExtractedRecord, error) {
	p := &Pipeline{Model: model}
	inv := newInvocation(ctx, "analyze")
	inv.advance(StagePrompting)
	return p.analyze(inv.log.WithContext(ctx), inv, extractionPrompt, sourceURL)
}
