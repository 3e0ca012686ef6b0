package service

import "encoding/json"

// RenderPlan is the serialized instruction set an external frame-capture
// worker consumes: clip placement plus the overlay state of every frame.
type RenderPlan struct {
	CompositionID  string         `json:"compositionId"`
	FPS            int            `json:"fps"`
	Width          int            `json:"width"`
	Height         int            `json:"height"`
	DurationFrames int            `json:"durationFrames"`
	Subtitles      string         `json:"subtitles"`
	Clips          []Clip         `json:"clips"`
	Frames         []OverlayFrame `json:"frames"`
}

// BuildRenderPlan samples the overlay timeline frame by frame. The walk is
// strictly in order: frame K+1 is evaluated only after frame K, matching how
// a compositing surface is driven during capture. Each sample itself is a
// pure function of the frame number, so a player can still seek freely.
func BuildRenderPlan(comp *Composition) *RenderPlan {
	frames := make([]OverlayFrame, 0, comp.DurationFrames)
	for f := 0; f < comp.DurationFrames; f++ {
		frames = append(frames, comp.Overlay.SampleAt(f, comp.DurationFrames))
	}
	return &RenderPlan{
		CompositionID:  comp.ID,
		FPS:            comp.FPS,
		Width:          comp.Width,
		Height:         comp.Height,
		DurationFrames: comp.DurationFrames,
		Subtitles:      comp.Subtitles,
		Clips:          comp.Clips,
		Frames:         frames,
	}
}

func (p *RenderPlan) Marshal() ([]byte, error) {
	return json.Marshal(p)
}
