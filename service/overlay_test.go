package service

import (
	"testing"

	"reelforge-server/models"

	"github.com/stretchr/testify/assert"
)

func TestPhaseBoundaries(t *testing.T) {
	const total = 450
	tests := []struct {
		frame     int
		wantPhase string
		wantStart int
	}{
		{frame: 0, wantPhase: PhaseHook, wantStart: 0},
		{frame: 89, wantPhase: PhaseHook, wantStart: 0},
		{frame: 90, wantPhase: PhaseBody, wantStart: 90},
		{frame: 359, wantPhase: PhaseBody, wantStart: 90},
		{frame: 360, wantPhase: PhaseCTA, wantStart: 360},
		{frame: 449, wantPhase: PhaseCTA, wantStart: 360},
	}
	for _, tt := range tests {
		phase, start := PhaseAt(tt.frame, total)
		assert.Equal(t, tt.wantPhase, phase, "frame=%d", tt.frame)
		assert.Equal(t, tt.wantStart, start, "frame=%d", tt.frame)
	}
}

func TestPhasesNeverGoBackward(t *testing.T) {
	const total = 450
	order := map[string]int{PhaseHook: 0, PhaseBody: 1, PhaseCTA: 2}
	prev := -1
	for f := 0; f < total; f++ {
		phase, _ := PhaseAt(f, total)
		assert.GreaterOrEqual(t, order[phase], prev, "frame=%d", f)
		prev = order[phase]
	}
}

func TestBodyPointIndex(t *testing.T) {
	const total = 450 // body = [90, 360), 270 frames

	// 3 points, 90 frames each
	assert.Equal(t, 0, BodyPointIndex(90, total, 3))
	assert.Equal(t, 0, BodyPointIndex(179, total, 3))
	assert.Equal(t, 1, BodyPointIndex(200, total, 3))
	assert.Equal(t, 2, BodyPointIndex(270, total, 3))

	// last point holds through the rounding remainder
	assert.Equal(t, 2, BodyPointIndex(359, total, 3))

	// 4 points: window = floor(270/4) = 67; frame 359 would index 4, clamped
	assert.Equal(t, 3, BodyPointIndex(359, total, 4))

	// degenerate inputs
	assert.Equal(t, 0, BodyPointIndex(100, total, 0))
	assert.Equal(t, 0, BodyPointIndex(89, total, 3))
}

func TestEntranceAnimation(t *testing.T) {
	cfg := NewOverlayConfig(models.Scenario{Hook: "h", Body: "a. b. c", CTA: "go"})

	start := cfg.EntranceAt(100, 100)
	assert.Equal(t, 0.0, start.Opacity)
	assert.Equal(t, defaultTranslateY, start.TranslateY)
	assert.Equal(t, 0.0, start.TranslateX)

	settled := cfg.EntranceAt(105, 100)
	assert.Equal(t, 1.0, settled.Opacity)
	assert.Equal(t, 0.0, settled.TranslateY)
	assert.Equal(t, 0.0, settled.TranslateX)

	// opacity ramps monotonically inside the window
	prev := -1.0
	for f := 100; f <= 105; f++ {
		tr := cfg.EntranceAt(f, 100)
		assert.Greater(t, tr.Opacity, prev, "frame=%d", f)
		prev = tr.Opacity
	}
}

func TestEntranceIsPureOfFrame(t *testing.T) {
	cfg := NewOverlayConfig(models.Scenario{Hook: "h", Body: "a", CTA: "go"})
	// scrubbing backwards and forwards must give identical results
	a := cfg.EntranceAt(103, 100)
	_ = cfg.EntranceAt(101, 100)
	b := cfg.EntranceAt(103, 100)
	assert.Equal(t, a, b)
}

func TestSampleAtSelectsText(t *testing.T) {
	cfg := NewOverlayConfig(models.Scenario{
		Hook: "did you know?",
		Body: "first point. second point. third point",
		CTA:  "follow for more",
	})
	assert.Len(t, cfg.BodyPoints, 3)

	const total = 450
	assert.Equal(t, "did you know?", cfg.SampleAt(10, total).Text)

	mid := cfg.SampleAt(200, total)
	assert.Equal(t, PhaseBody, mid.Phase)
	assert.Equal(t, 1, mid.PointIndex)
	assert.Equal(t, "second point", mid.Text)

	assert.Equal(t, "follow for more", cfg.SampleAt(400, total).Text)
}

func TestSplitBodyPointsFallback(t *testing.T) {
	cfg := NewOverlayConfig(models.Scenario{Body: ""})
	assert.Len(t, cfg.BodyPoints, 1)
}
