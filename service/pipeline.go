package service

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"reelforge-server/config"
	"reelforge-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pipeline stages in fixed order. A failed stage halts the run; there is no
// auto-retry.
const (
	StageParsing             = "parsing"
	StageGeneratingScenarios = "generating_scenarios"
	StageFetchingAssets      = "fetching_assets"
	StageRendering           = "rendering"
	StageCompleted           = "completed"
	StageFailed              = "failed"
)

// Progress percentage reached at the end of each stage.
const (
	progressParsing   = 5
	progressScenarios = 30
	progressAssets    = 60
	progressRendering = 90
	progressDone      = 100
)

// GenerationProgress lives only for the duration of one pipeline run; it is
// recreated on every invocation and never persisted as-is.
type GenerationProgress struct {
	ProjectID          string `json:"projectId"`
	Stage              string `json:"stage"`
	Progress           int    `json:"progress"`
	CurrentStep        string `json:"currentStep"`
	ScenariosGenerated int    `json:"scenariosGenerated"`
	VideosRendered     int    `json:"videosRendered"`
	TotalVideos        int    `json:"totalVideos"`
}

// ProgressFunc receives every progress tick. Percentages never decrease
// within one run.
type ProgressFunc func(GenerationProgress)

// PlanUploader stores a serialized render plan and returns its URL.
type PlanUploader func(ctx context.Context, data []byte, objectName string) (string, error)

// PipelineStore is the persistence the pipeline needs per run. Kept narrow so
// the stage sequencing can be exercised with a test double.
type PipelineStore interface {
	SetProjectStatus(id, status string) error
	SaveScenarios(scenarios []models.Scenario) error
	CreateVideo(v *models.Video) error
	SetVideoStatus(v *models.Video, status, fileURL string) error
	SetVideoFrames(v *models.Video, frames int) error
}

type dbStore struct {
	db *gorm.DB
}

func (s dbStore) SetProjectStatus(id, status string) error {
	return models.UpdateProjectStatus(id, status)
}

func (s dbStore) SaveScenarios(scenarios []models.Scenario) error {
	return models.BatchCreateScenarios(s.db, scenarios)
}

func (s dbStore) CreateVideo(v *models.Video) error {
	return s.db.Create(v).Error
}

func (s dbStore) SetVideoStatus(v *models.Video, status, fileURL string) error {
	return v.UpdateStatus(s.db, status, fileURL)
}

func (s dbStore) SetVideoFrames(v *models.Video, frames int) error {
	return s.db.Model(v).Update("frames", frames).Error
}

// Pipeline sequences one generation run: topic -> scenarios -> assets ->
// compositions -> render plans. All collaborators are injected; nothing here
// reaches for a package-level client.
type Pipeline struct {
	Store      PipelineStore
	Synth      *Synthesizer
	Resolver   *Resolver
	Upload     PlanUploader
	FPS        int
	Width      int
	Height     int
	OnProgress ProgressFunc
}

func NewPipeline(db *gorm.DB, synth *Synthesizer, resolver *Resolver) *Pipeline {
	cfg := config.AppConfig
	return &Pipeline{
		Store:    dbStore{db: db},
		Synth:    synth,
		Resolver: resolver,
		Upload: func(ctx context.Context, data []byte, objectName string) (string, error) {
			return UploadToStorage(ctx, bytes.NewReader(data), objectName, int64(len(data)))
		},
		FPS:    cfg.Render.FPS,
		Width:  cfg.Render.Width,
		Height: cfg.Render.Height,
	}
}

func (p *Pipeline) report(progress GenerationProgress) {
	if p.OnProgress != nil {
		p.OnProgress(progress)
	}
}

func (p *Pipeline) setProjectStatus(id, status string) {
	if err := p.Store.SetProjectStatus(id, status); err != nil {
		log.Printf("[pipeline] project status update failed: %v", err)
	}
}

// Run drives the stages in order for one project. Stage N+1 never starts
// before stage N completes. The first stage error flips the project to failed
// and halts; partially written rows and spent credits stay as they are.
func (p *Pipeline) Run(ctx context.Context, project *models.Project, params models.TaskParameters) (models.TaskResult, error) {
	state := GenerationProgress{
		ProjectID:   project.ID,
		Stage:       StageParsing,
		Progress:    0,
		CurrentStep: "Validating request",
		TotalVideos: params.VideoCount,
	}
	result := models.TaskResult{TotalVideos: params.VideoCount}

	// Stage 1: parsing
	if params.Topic == "" {
		return result, p.fail(project, &state, fmt.Errorf("empty topic"))
	}
	if params.VideoCount <= 0 {
		params.VideoCount = 1
	}
	if params.Duration <= 0 {
		params.Duration = 15
	}
	state.Progress = progressParsing
	p.report(state)

	// Stage 2: scenario synthesis
	state.Stage = StageGeneratingScenarios
	state.CurrentStep = fmt.Sprintf("Writing %d script variants", params.VideoCount)
	p.report(state)
	p.setProjectStatus(project.ID, models.ProjectStatusGeneratingScenarios)

	scenarios, err := p.Synth.Generate(ctx, params.Topic, params.VideoCount, params.Language, params.CreatorContext)
	if err != nil {
		return result, p.fail(project, &state, err)
	}
	for i := range scenarios {
		scenarios[i].ProjectId = project.ID
		scenarios[i].DurationSeconds = params.Duration
		scenarios[i].CreatedAt = time.Now()
	}
	if err := p.Store.SaveScenarios(scenarios); err != nil {
		return result, p.fail(project, &state, fmt.Errorf("persist scenarios: %w", err))
	}
	state.ScenariosGenerated = len(scenarios)
	result.ScenariosGenerated = len(scenarios)
	state.Progress = progressScenarios
	p.report(state)

	// Stage 3: asset acquisition (per-scenario queries fan out concurrently,
	// scenarios themselves run in sequence)
	state.Stage = StageFetchingAssets
	p.report(state)
	p.setProjectStatus(project.ID, models.ProjectStatusFetchingAssets)

	assetsByScenario := make([][]Asset, len(scenarios))
	for i, sc := range scenarios {
		state.CurrentStep = fmt.Sprintf("Fetching footage for variant %d/%d", i+1, len(scenarios))
		p.report(state)
		assetsByScenario[i] = p.Resolver.ResolveAll(ctx, sc.AssetQueries)
		state.Progress = progressScenarios + (progressAssets-progressScenarios)*(i+1)/len(scenarios)
		p.report(state)
	}

	// Stage 4: composition + render plan export. Frame evaluation inside each
	// plan is strictly serial; plans are produced one video at a time.
	state.Stage = StageRendering
	p.report(state)
	p.setProjectStatus(project.ID, models.ProjectStatusComposing)

	for i, sc := range scenarios {
		state.CurrentStep = fmt.Sprintf("Rendering video %d/%d", i+1, len(scenarios))
		p.report(state)

		video := models.Video{
			ID:         uuid.NewString(),
			ProjectId:  project.ID,
			ScenarioId: sc.ID,
			Status:     models.VideoStatusQueued,
			Width:      p.Width,
			Height:     p.Height,
			FPS:        p.FPS,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
		if err := p.Store.CreateVideo(&video); err != nil {
			return result, p.fail(project, &state, fmt.Errorf("persist video: %w", err))
		}

		comp, err := BuildComposition(sc, assetsByScenario[i], params.Duration, p.FPS, p.Width, p.Height)
		if err != nil {
			_ = p.Store.SetVideoStatus(&video, models.VideoStatusFailed, "")
			return result, p.fail(project, &state, err)
		}
		_ = p.Store.SetVideoStatus(&video, models.VideoStatusRendering, "")
		_ = p.Store.SetVideoFrames(&video, comp.DurationFrames)

		planURL, err := p.exportPlan(ctx, comp, video.ID)
		if err != nil {
			_ = p.Store.SetVideoStatus(&video, models.VideoStatusFailed, "")
			return result, p.fail(project, &state, fmt.Errorf("export render plan: %w", err))
		}
		if err := p.Store.SetVideoStatus(&video, models.VideoStatusCompleted, planURL); err != nil {
			log.Printf("[pipeline] video status update failed: %v", err)
		}

		state.VideosRendered = i + 1
		result.VideosRendered = i + 1
		result.PlanUrls = append(result.PlanUrls, planURL)
		state.Progress = progressAssets + (progressRendering-progressAssets)*(i+1)/len(scenarios)
		p.report(state)
	}

	// Stage 5: completed
	state.Stage = StageCompleted
	state.CurrentStep = "Done"
	state.Progress = progressDone
	p.report(state)
	p.setProjectStatus(project.ID, models.ProjectStatusCompleted)
	return result, nil
}

func (p *Pipeline) exportPlan(ctx context.Context, comp *Composition, videoID string) (string, error) {
	plan := BuildRenderPlan(comp)
	data, err := plan.Marshal()
	if err != nil {
		return "", err
	}
	objectName := fmt.Sprintf("plans/%s.json", videoID)
	return p.Upload(ctx, data, objectName)
}

// fail flips the project to failed and returns a short caller-facing error.
// Provider-specific detail stays in the log, not in the surfaced message.
func (p *Pipeline) fail(project *models.Project, state *GenerationProgress, cause error) error {
	failedStage := state.Stage
	log.Printf("[pipeline] project %s failed at stage %s: %v", project.ID, failedStage, cause)
	state.Stage = StageFailed
	state.CurrentStep = "Generation failed"
	p.report(*state)
	p.setProjectStatus(project.ID, models.ProjectStatusFailed)
	return fmt.Errorf("generation failed at stage %s", failedStage)
}
