package service

import (
	"testing"

	"reelforge-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeAssets(n int) []Asset {
	assets := make([]Asset, n)
	for i := range assets {
		assets[i] = Asset{URL: "https://example.com/clip.mp4", Provider: ProviderPexels, Width: 1080, Height: 1920}
	}
	return assets
}

func TestBuildCompositionEqualSplit(t *testing.T) {
	sc := models.Scenario{ID: "sc-1", Hook: "h", Body: "a. b. c", CTA: "go"}
	comp, err := BuildComposition(sc, makeAssets(3), 15, 30, 1080, 1920)
	require.NoError(t, err)

	assert.Equal(t, 450, comp.DurationFrames)
	assert.Equal(t, 30, comp.FPS)
	require.Len(t, comp.Clips, 3)

	wantStarts := []int{0, 150, 300}
	for i, clip := range comp.Clips {
		assert.Equal(t, wantStarts[i], clip.StartFrame, "clip %d", i)
		assert.Equal(t, 150, clip.Frames, "clip %d", i)
	}
}

func TestBuildCompositionFrameInvariant(t *testing.T) {
	sc := models.Scenario{ID: "sc-1"}
	for _, tt := range []struct {
		seconds, fps int
	}{
		{seconds: 15, fps: 30},
		{seconds: 30, fps: 24},
		{seconds: 7, fps: 60},
	} {
		comp, err := BuildComposition(sc, makeAssets(2), tt.seconds, tt.fps, 1080, 1920)
		require.NoError(t, err)
		assert.Equal(t, tt.fps*tt.seconds, comp.DurationFrames)
	}
}

func TestBuildCompositionRemainder(t *testing.T) {
	// 450 frames across 4 clips: floor share of 112, back-to-back, no overlap
	sc := models.Scenario{ID: "sc-1"}
	comp, err := BuildComposition(sc, makeAssets(4), 15, 30, 1080, 1920)
	require.NoError(t, err)

	for i, clip := range comp.Clips {
		assert.Equal(t, 112, clip.Frames)
		assert.Equal(t, i*112, clip.StartFrame)
	}
}

func TestBuildCompositionZeroAssets(t *testing.T) {
	sc := models.Scenario{ID: "sc-1"}
	_, err := BuildComposition(sc, nil, 15, 30, 1080, 1920)
	assert.Error(t, err)
}

func TestBuildCompositionInvalidInputs(t *testing.T) {
	sc := models.Scenario{ID: "sc-1"}
	_, err := BuildComposition(sc, makeAssets(1), 0, 30, 1080, 1920)
	assert.Error(t, err)
	_, err = BuildComposition(sc, makeAssets(1), 15, 0, 1080, 1920)
	assert.Error(t, err)
}

func TestBuildCompositionCarriesOverlay(t *testing.T) {
	sc := models.Scenario{ID: "sc-1", Hook: "hook", Body: "one. two", CTA: "cta", VoiceoverText: "vo"}
	comp, err := BuildComposition(sc, makeAssets(1), 15, 30, 1080, 1920)
	require.NoError(t, err)

	assert.Equal(t, "hook", comp.Overlay.Hook)
	assert.Equal(t, []string{"one", "two"}, comp.Overlay.BodyPoints)
	assert.Equal(t, "cta", comp.Overlay.CTA)
	assert.Equal(t, "vo", comp.Subtitles)
}
