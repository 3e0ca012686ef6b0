package service

import (
	"context"
	"encoding/json"
	"testing"

	"reelforge-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	statuses  []string
	scenarios []models.Scenario
	videos    []*models.Video
}

func (s *memStore) SetProjectStatus(id, status string) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *memStore) SaveScenarios(scenarios []models.Scenario) error {
	s.scenarios = append(s.scenarios, scenarios...)
	return nil
}

func (s *memStore) CreateVideo(v *models.Video) error {
	s.videos = append(s.videos, v)
	return nil
}

func (s *memStore) SetVideoStatus(v *models.Video, status, fileURL string) error {
	v.Status = status
	if fileURL != "" {
		v.FileUrl = fileURL
	}
	return nil
}

func (s *memStore) SetVideoFrames(v *models.Video, frames int) error {
	v.Frames = frames
	return nil
}

func threeScenarioBatch() scenarioBatchJSON {
	sc := scenarioJSON{
		Title: "Fitness tips",
		Hook:  "Stop doing this at the gym",
		Body:  "Tip one. Tip two. Tip three.",
		CTA:   "Follow for more",
		AssetQueries: []string{
			"woman lifting weights in gym, cinematic lighting",
			"man running on treadmill, moody gym light",
			"protein shake close up, soft light",
		},
		Tone: "educational",
	}
	return scenarioBatchJSON{Scenarios: []scenarioJSON{sc, sc, sc}}
}

func newTestPipeline(t *testing.T, store *memStore, llmURL, pexelsURL string, plans *[][]byte) *Pipeline {
	t.Helper()
	return &Pipeline{
		Store:    store,
		Synth:    newTestSynthesizer(llmURL),
		Resolver: newTestResolver(pexelsURL, nil),
		Upload: func(ctx context.Context, data []byte, objectName string) (string, error) {
			*plans = append(*plans, data)
			return "https://storage.local/" + objectName, nil
		},
		FPS:    30,
		Width:  1080,
		Height: 1920,
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	llm := fakeLLM(t, threeScenarioBatch())
	defer llm.Close()
	pexels := fakePexels(videoFile{Link: "https://videos.pexels.com/clip.mp4", Width: 1080, Height: 1920})
	defer pexels.Close()

	store := &memStore{}
	var plans [][]byte
	p := newTestPipeline(t, store, llm.URL, pexels.URL, &plans)

	var ticks []GenerationProgress
	p.OnProgress = func(g GenerationProgress) { ticks = append(ticks, g) }

	project := &models.Project{ID: "proj-1"}
	result, err := p.Run(context.Background(), project, models.TaskParameters{
		Topic:      "fitness tips",
		VideoCount: 3,
		Language:   "en",
		Duration:   15,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.ScenariosGenerated)
	assert.Equal(t, 3, result.VideosRendered)
	require.Len(t, result.PlanUrls, 3)

	// project walked the full status sequence and ended completed
	assert.Equal(t, []string{
		models.ProjectStatusGeneratingScenarios,
		models.ProjectStatusFetchingAssets,
		models.ProjectStatusComposing,
		models.ProjectStatusCompleted,
	}, store.statuses)

	require.Len(t, store.videos, 3)
	for _, v := range store.videos {
		assert.Equal(t, models.VideoStatusCompleted, v.Status)
		assert.Equal(t, 450, v.Frames)
		assert.NotEmpty(t, v.FileUrl)
	}

	// every plan has 3 equal clips summing to 450 frames at 30fps
	for _, data := range plans {
		var plan RenderPlan
		require.NoError(t, json.Unmarshal(data, &plan))
		assert.Equal(t, 450, plan.DurationFrames)
		assert.Equal(t, 30, plan.FPS)
		require.Len(t, plan.Clips, 3)
		for i, clip := range plan.Clips {
			assert.Equal(t, 150, clip.Frames)
			assert.Equal(t, i*150, clip.StartFrame)
		}
	}

	// progress never decreases within the run
	prev := -1
	for _, g := range ticks {
		assert.GreaterOrEqual(t, g.Progress, prev)
		prev = g.Progress
	}
	assert.Equal(t, 100, ticks[len(ticks)-1].Progress)
	assert.Equal(t, StageCompleted, ticks[len(ticks)-1].Stage)
}

func TestPipelineFailsOnSynthesizerError(t *testing.T) {
	llm := fakeLLMRaw("not json at all")
	defer llm.Close()
	pexels := fakePexels()
	defer pexels.Close()

	store := &memStore{}
	var plans [][]byte
	p := newTestPipeline(t, store, llm.URL, pexels.URL, &plans)

	project := &models.Project{ID: "proj-1"}
	_, err := p.Run(context.Background(), project, models.TaskParameters{
		Topic:      "fitness tips",
		VideoCount: 2,
	})
	require.Error(t, err)

	// short caller-facing message: stage only, no provider detail
	assert.Equal(t, "generation failed at stage generating_scenarios", err.Error())
	assert.Equal(t, models.ProjectStatusFailed, store.statuses[len(store.statuses)-1])
	assert.Empty(t, store.scenarios)
	assert.Empty(t, plans)
}

func TestPipelineFailsOnZeroAssets(t *testing.T) {
	// scenario with no visual queries resolves zero assets; the composition
	// builder must refuse rather than emit an empty timeline
	llm := fakeLLM(t, scenarioBatchJSON{Scenarios: []scenarioJSON{
		{Title: "empty", Hook: "h", Body: "b", CTA: "c"},
	}})
	defer llm.Close()
	pexels := fakePexels()
	defer pexels.Close()

	store := &memStore{}
	var plans [][]byte
	p := newTestPipeline(t, store, llm.URL, pexels.URL, &plans)

	project := &models.Project{ID: "proj-1"}
	_, err := p.Run(context.Background(), project, models.TaskParameters{
		Topic:      "anything",
		VideoCount: 1,
	})
	require.Error(t, err)
	assert.Equal(t, "generation failed at stage rendering", err.Error())

	require.Len(t, store.videos, 1)
	assert.Equal(t, models.VideoStatusFailed, store.videos[0].Status)
}

func TestPipelineFailsOnEmptyTopic(t *testing.T) {
	store := &memStore{}
	var plans [][]byte
	p := newTestPipeline(t, store, "http://127.0.0.1:1", "http://127.0.0.1:1", &plans)

	project := &models.Project{ID: "proj-1"}
	_, err := p.Run(context.Background(), project, models.TaskParameters{})
	require.Error(t, err)
	assert.Equal(t, "generation failed at stage parsing", err.Error())
}
