package service

import (
	"math"
	"strings"

	"reelforge-server/models"
)

// Overlay phases are strictly sequential. CTA is terminal and holds until the
// composition ends.
const (
	PhaseHook = "HOOK"
	PhaseBody = "BODY"
	PhaseCTA  = "CTA"
)

// Entrance animation defaults. The spring is critically damped so text settles
// without overshoot inside the entrance window.
const (
	defaultEntranceFrames = 5
	defaultStiffness      = 100.0
	defaultTranslateY     = 20.0
	defaultGlitchAmp      = 3.0
)

// OverlayConfig carries everything the timeline needs to place text on a
// frame. Derived once from a scenario; never mutated during playback.
type OverlayConfig struct {
	Hook           string   `json:"hook"`
	BodyPoints     []string `json:"bodyPoints"`
	CTA            string   `json:"cta"`
	EntranceFrames int      `json:"entranceFrames"`
	Stiffness      float64  `json:"stiffness"`
	Damping        float64  `json:"damping"`
}

// NewOverlayConfig splits the scenario body into cycled points (one per
// sentence) and wires the default entrance spring.
func NewOverlayConfig(s models.Scenario) OverlayConfig {
	points := splitBodyPoints(s.Body)
	return OverlayConfig{
		Hook:           s.Hook,
		BodyPoints:     points,
		CTA:            s.CTA,
		EntranceFrames: defaultEntranceFrames,
		Stiffness:      defaultStiffness,
		Damping:        2 * math.Sqrt(defaultStiffness), // critical damping
	}
}

func splitBodyPoints(body string) []string {
	var points []string
	for _, part := range strings.Split(body, ".") {
		part = strings.TrimSpace(part)
		if part != "" {
			points = append(points, part)
		}
	}
	if len(points) == 0 {
		points = []string{body}
	}
	return points
}

// HookFrames / BodyFrames boundaries: HOOK owns [0, 0.2T), BODY [0.2T, 0.8T),
// CTA the remainder.
func hookEndFrame(totalFrames int) int {
	return totalFrames / 5
}

func bodyEndFrame(totalFrames int) int {
	return totalFrames * 4 / 5
}

// PhaseAt returns the active phase and its start frame for a given frame.
// Pure function of (frame, totalFrames); playback may seek to any frame.
func PhaseAt(frame, totalFrames int) (phase string, phaseStart int) {
	hookEnd := hookEndFrame(totalFrames)
	bodyEnd := bodyEndFrame(totalFrames)
	switch {
	case frame < hookEnd:
		return PhaseHook, 0
	case frame < bodyEnd:
		return PhaseBody, hookEnd
	default:
		return PhaseCTA, bodyEnd
	}
}

// BodyPointIndex cycles the body points inside the BODY phase. Each point owns
// floor(bodyFrames/pointCount) frames; the last point absorbs any rounding
// remainder by clamping.
func BodyPointIndex(frame, totalFrames, pointCount int) int {
	if pointCount <= 0 {
		return 0
	}
	hookEnd := hookEndFrame(totalFrames)
	bodyFrames := bodyEndFrame(totalFrames) - hookEnd
	pointDuration := bodyFrames / pointCount
	if pointDuration <= 0 {
		return 0
	}
	idx := (frame - hookEnd) / pointDuration
	if idx < 0 {
		idx = 0
	}
	if idx > pointCount-1 {
		idx = pointCount - 1
	}
	return idx
}

// TextTransform is the entrance animation state for one frame.
type TextTransform struct {
	TranslateX float64 `json:"translateX"`
	TranslateY float64 `json:"translateY"`
	Opacity    float64 `json:"opacity"`
}

// EntranceAt evaluates the phase entrance spring for a frame. Text slides up
// from +20 units while opacity ramps 0 to 1 over the entrance window; a small
// horizontal glitch oscillation decays over the same window. Stateless: only
// (frame, phaseStart) and the config feed the result.
func (c OverlayConfig) EntranceAt(frame, phaseStart int) TextTransform {
	elapsed := frame - phaseStart
	window := c.EntranceFrames
	if window <= 0 {
		window = defaultEntranceFrames
	}
	p := springProgress(elapsed, window, c.Stiffness)
	jitter := 0.0
	if elapsed >= 0 && elapsed < window {
		jitter = defaultGlitchAmp * (1 - p) * math.Sin(float64(elapsed)*2.7)
	}
	return TextTransform{
		TranslateX: jitter,
		TranslateY: defaultTranslateY * (1 - p),
		Opacity:    p,
	}
}

// springProgress maps elapsed frames to 0..1 with a critically damped spring
// response, normalized so the window end lands exactly on 1.
func springProgress(elapsed, window int, stiffness float64) float64 {
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= window {
		return 1
	}
	if stiffness <= 0 {
		stiffness = defaultStiffness
	}
	omega := math.Sqrt(stiffness)
	at := func(t float64) float64 {
		return 1 - (1+omega*t)*math.Exp(-omega*t)
	}
	t := float64(elapsed) / float64(window)
	end := at(1)
	if end <= 0 {
		return t
	}
	p := at(t) / end
	if p > 1 {
		p = 1
	}
	return p
}

// OverlayFrame is one sampled frame of the overlay timeline.
type OverlayFrame struct {
	Frame      int           `json:"frame"`
	Phase      string        `json:"phase"`
	Text       string        `json:"text"`
	PointIndex int           `json:"pointIndex,omitempty"`
	Transform  TextTransform `json:"transform"`
}

// SampleAt resolves the full overlay state for a single frame.
func (c OverlayConfig) SampleAt(frame, totalFrames int) OverlayFrame {
	phase, phaseStart := PhaseAt(frame, totalFrames)
	out := OverlayFrame{
		Frame:     frame,
		Phase:     phase,
		Transform: c.EntranceAt(frame, phaseStart),
	}
	switch phase {
	case PhaseHook:
		out.Text = c.Hook
	case PhaseBody:
		idx := BodyPointIndex(frame, totalFrames, len(c.BodyPoints))
		out.PointIndex = idx
		if idx < len(c.BodyPoints) {
			out.Text = c.BodyPoints[idx]
		}
	case PhaseCTA:
		out.Text = c.CTA
	}
	return out
}
