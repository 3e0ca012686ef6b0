package service

import (
	"fmt"

	"reelforge-server/models"
)

// Asset is one stock clip resolved for a single visual query.
type Asset struct {
	URL      string `json:"url"`
	Provider string `json:"provider"` // pexels | coverr | secure-storage
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	AssetID  string `json:"assetId,omitempty"` // object key when persisted to storage
}

// Clip places an asset on the composition timeline. Clips are back-to-back
// starting at frame 0 and rendered scale-to-fill (no letterboxing).
type Clip struct {
	Asset      Asset `json:"asset"`
	StartFrame int   `json:"startFrame"`
	Frames     int   `json:"frames"`
}

// Composition is the fully resolved, frame-timed assembly for one scenario.
// It is derived data: recomputable from the scenario plus its resolved assets.
type Composition struct {
	ID             string          `json:"id"`
	Scenario       models.Scenario `json:"scenario"`
	Clips          []Clip          `json:"clips"`
	DurationFrames int             `json:"durationFrames"`
	FPS            int             `json:"fps"`
	Width          int             `json:"width"`
	Height         int             `json:"height"`
	Subtitles      string          `json:"subtitles"`
	Style          string          `json:"style"`
	Overlay        OverlayConfig   `json:"overlay"`
}

// BuildComposition merges a scenario and its resolved assets into a renderable
// composition. Total frames are exactly fps*seconds; each clip gets an equal
// floor share, so a rounding remainder shortens only the implicit tail of the
// last clip's hold.
func BuildComposition(scenario models.Scenario, assets []Asset, targetDurationSeconds, fps, width, height int) (*Composition, error) {
	if len(assets) == 0 {
		return nil, fmt.Errorf("scenario %s resolved zero assets, refusing to build an empty timeline", scenario.ID)
	}
	if targetDurationSeconds <= 0 {
		return nil, fmt.Errorf("invalid target duration: %d", targetDurationSeconds)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("invalid fps: %d", fps)
	}

	totalFrames := fps * targetDurationSeconds
	perClip := totalFrames / len(assets)

	clips := make([]Clip, 0, len(assets))
	for i, a := range assets {
		clips = append(clips, Clip{
			Asset:      a,
			StartFrame: i * perClip,
			Frames:     perClip,
		})
	}

	return &Composition{
		ID:             scenario.ID + "-comp",
		Scenario:       scenario,
		Clips:          clips,
		DurationFrames: totalFrames,
		FPS:            fps,
		Width:          width,
		Height:         height,
		Subtitles:      scenario.VoiceoverText,
		Style:          scenario.Tone,
		Overlay:        NewOverlayConfig(scenario),
	}, nil
}
