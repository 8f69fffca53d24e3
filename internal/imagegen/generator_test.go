package imagegen

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autopilot/internal/config"
	"autopilot/internal/domain"
	"autopilot/internal/ports"
)

type fakeQueue struct {
	lastModel string
	lastJob   ports.ImageJob
	status    string
}

func (f *fakeQueue) Submit(_ context.Context, model string, job ports.ImageJob) (string, error) {
	f.lastModel = model
	f.lastJob = job
	return "req-1", nil
}

func (f *fakeQueue) Status(context.Context, string, string) (string, error) {
	if f.status == "" {
		return StatusCompleted, nil
	}
	return f.status, nil
}

func (f *fakeQueue) Result(context.Context, string, string) (string, error) {
	return "https://cdn/img.png", nil
}

type fakeMedia struct {
	uploads []ports.MediaUpload
}

func (f *fakeMedia) Upload(_ context.Context, upload ports.MediaUpload) (int64, error) {
	f.uploads = append(f.uploads, upload)
	return int64(len(f.uploads)), nil
}

func (f *fakeMedia) FileURL(context.Context, int64) (string, error) {
	return "https://site/media/img.png", nil
}

func testImageConfig() config.ImageConfig {
	return config.ImageConfig{
		Enabled: true,
		APIKey:  "key",
		Model:   "fal-ai/flux-2-pro",
		Style:   "photorealistic editorial style",
	}
}

func buildGenerator(queue *fakeQueue, media *fakeMedia, cfg config.ImageConfig, inline config.InlineImagesConfig) *Generator {
	return NewGenerator(queue, media, cfg, inline, slog.New(slog.NewTextHandler(io.Discard, nil))).
		WithPoller(NewPollerWith(time.Millisecond, 3))
}

func TestGenerateFeatured(t *testing.T) {
	queue := &fakeQueue{}
	media := &fakeMedia{}
	gen := buildGenerator(queue, media, testImageConfig(), config.InlineImagesConfig{})

	mediaID, err := gen.Generate(context.Background(), "a new hall", "Ny hall åpnet", "alt text", "caption")
	require.NoError(t, err)
	assert.Equal(t, int64(1), mediaID)

	assert.Equal(t, "fal-ai/flux-2-pro", queue.lastModel)
	assert.Equal(t, "photorealistic editorial style: a new hall", queue.lastJob.Prompt)

	require.Len(t, media.uploads, 1)
	upload := media.uploads[0]
	assert.Equal(t, "https://cdn/img.png", upload.SourceURL)
	assert.Equal(t, "ny-hall-pnet.png", upload.Filename)
	assert.Equal(t, "alt text", upload.Alt)
	assert.Equal(t, "caption", upload.Caption)
}

func TestGenerateAltFallsBackToTitle(t *testing.T) {
	queue := &fakeQueue{}
	media := &fakeMedia{}
	gen := buildGenerator(queue, media, testImageConfig(), config.InlineImagesConfig{})

	_, err := gen.Generate(context.Background(), "prompt", "Tittel", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Tittel", media.uploads[0].Alt)
}

func TestGenerateMissingKey(t *testing.T) {
	cfg := testImageConfig()
	cfg.APIKey = ""
	gen := buildGenerator(&fakeQueue{}, &fakeMedia{}, cfg, config.InlineImagesConfig{})

	_, err := gen.Generate(context.Background(), "p", "t", "", "")
	assert.True(t, domain.IsKind(err, domain.ErrConfig))
}

func TestGenerateDisabled(t *testing.T) {
	cfg := testImageConfig()
	cfg.Enabled = false
	gen := buildGenerator(&fakeQueue{}, &fakeMedia{}, cfg, config.InlineImagesConfig{})

	_, err := gen.Generate(context.Background(), "p", "t", "", "")
	assert.True(t, domain.IsKind(err, domain.ErrConfig))
}

func TestGenerateJobFailed(t *testing.T) {
	queue := &fakeQueue{status: StatusFailed}
	gen := buildGenerator(queue, &fakeMedia{}, testImageConfig(), config.InlineImagesConfig{})

	_, err := gen.Generate(context.Background(), "p", "t", "", "")
	assert.True(t, domain.IsKind(err, domain.ErrProvider))
}

func TestGenerateInlineUsesInlineModel(t *testing.T) {
	queue := &fakeQueue{}
	media := &fakeMedia{}
	inline := config.InlineImagesConfig{Enabled: true, Model: "fal-ai/flux-2/klein/realtime"}
	gen := buildGenerator(queue, media, testImageConfig(), inline)

	mediaID, model, err := gen.GenerateInline(context.Background(), "p", "alt", "cap", "Tittel", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), mediaID)
	assert.Equal(t, "fal-ai/flux-2/klein/realtime", model)
	assert.Equal(t, "fal-ai/flux-2/klein/realtime", queue.lastModel)
	assert.Equal(t, "tittel-inline-2.png", media.uploads[0].Filename)
}

func TestGenerateInlineFallsBackToMainModel(t *testing.T) {
	queue := &fakeQueue{}
	gen := buildGenerator(queue, &fakeMedia{}, testImageConfig(), config.InlineImagesConfig{Enabled: true})

	_, model, err := gen.GenerateInline(context.Background(), "p", "", "", "t", 1)
	require.NoError(t, err)
	assert.Equal(t, "fal-ai/flux-2-pro", model)
}

func TestGeneratePosterPassesJobThrough(t *testing.T) {
	queue := &fakeQueue{}
	media := &fakeMedia{}
	gen := buildGenerator(queue, media, testImageConfig(), config.InlineImagesConfig{})

	job := ports.ImageJob{
		Prompt:          "poster prompt",
		ReferenceURLs:   []string{"https://x/a.png"},
		EnableWebSearch: true,
	}
	_, err := gen.GeneratePoster(context.Background(), "fal-ai/nano-banana-pro/edit", job, "Tittel")
	require.NoError(t, err)

	assert.Equal(t, "fal-ai/nano-banana-pro/edit", queue.lastModel)
	assert.Equal(t, "poster prompt", queue.lastJob.Prompt, "poster prompts are not style-prefixed")
	assert.Equal(t, []string{"https://x/a.png"}, queue.lastJob.ReferenceURLs)
	assert.True(t, queue.lastJob.EnableWebSearch)
}
