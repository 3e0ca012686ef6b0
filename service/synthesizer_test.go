package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelforge-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLLM serves a canned chat-completions response whose content is the given
// scenario batch.
func fakeLLM(t *testing.T, batch scenarioBatchJSON) *httptest.Server {
	t.Helper()
	content, err := json.Marshal(batch)
	require.NoError(t, err)
	return fakeLLMRaw(string(content))
}

func fakeLLMRaw(content string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

func newTestSynthesizer(url string) *Synthesizer {
	return &Synthesizer{
		Endpoint:   url,
		Model:      "test-model",
		APIKey:     "test-key",
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGenerateRepairsAndDefaults(t *testing.T) {
	ts := fakeLLM(t, scenarioBatchJSON{Scenarios: []scenarioJSON{
		{
			Title:        "Morning routines",
			Hook:         "You waste your mornings",
			Body:         "Point one. Point two.",
			CTA:          "Follow for more",
			AssetQueries: []string{"sunrise", "man stretching in bedroom, cinematic lighting"},
			Tone:         "SHOUTY", // not in the closed set
			Angle:        "contrarian",
		},
		{
			Title:        "",
			Hook:         "Second variant",
			AssetQueries: []string{"coffee pouring into cup slow motion"},
			Tone:         "casual",
		},
	}})
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	scenarios, err := s.Generate(context.Background(), "morning routines", 2, "en", nil)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)

	first := scenarios[0]
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, models.ToneProfessional, first.Tone, "unknown tone falls back to the default")
	assert.Equal(t, defaultScenarioDuration, first.DurationSeconds)
	// single-word query repaired, already-styled query untouched
	assert.Equal(t, "sunrise, cinematic lighting", first.AssetQueries[0])
	assert.Equal(t, "man stretching in bedroom, cinematic lighting", first.AssetQueries[1])

	second := scenarios[1]
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, "morning routines", second.Title, "missing title defaults to the topic")
	assert.Equal(t, models.ToneCasual, second.Tone)
	assert.Equal(t, "Second variant", second.VoiceoverText, "voiceover assembled from hook/body/cta")
}

func TestGenerateTrimsExtraScenarios(t *testing.T) {
	ts := fakeLLM(t, scenarioBatchJSON{Scenarios: []scenarioJSON{
		{Hook: "a", AssetQueries: []string{"city street at night, neon"}},
		{Hook: "b", AssetQueries: []string{"city street at night, neon"}},
		{Hook: "c", AssetQueries: []string{"city street at night, neon"}},
	}})
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	scenarios, err := s.Generate(context.Background(), "cities", 2, "en", nil)
	require.NoError(t, err)
	assert.Len(t, scenarios, 2)
}

func TestGenerateStripsCodeFences(t *testing.T) {
	batch, _ := json.Marshal(scenarioBatchJSON{Scenarios: []scenarioJSON{
		{Hook: "fenced", AssetQueries: []string{"rain on window, moody"}},
	}})
	ts := fakeLLMRaw("```json\n" + string(batch) + "\n```")
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	scenarios, err := s.Generate(context.Background(), "rain", 1, "en", nil)
	require.NoError(t, err)
	assert.Len(t, scenarios, 1)
}

func TestGenerateFailsOnUnparsableContent(t *testing.T) {
	ts := fakeLLMRaw("sorry, I cannot help with that")
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	_, err := s.Generate(context.Background(), "topic", 1, "en", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateFailsOnEmptyBatch(t *testing.T) {
	ts := fakeLLM(t, scenarioBatchJSON{})
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	_, err := s.Generate(context.Background(), "topic", 1, "en", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateFailsOnProviderError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "rate limited"},
		})
	}))
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	_, err := s.Generate(context.Background(), "topic", 1, "en", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateEnforcesRussianOutput(t *testing.T) {
	ts := fakeLLM(t, scenarioBatchJSON{Scenarios: []scenarioJSON{
		{
			Title:         "Утренние привычки",
			Hook:          "Вы теряете своё утро",
			Body:          "Первый пункт. Второй пункт.",
			CTA:           "Подпишись",
			VoiceoverText: "Вы теряете своё утро. Первый пункт.",
			AssetQueries:  []string{"man stretching in bedroom, cinematic lighting"},
			Tone:          "casual",
		},
	}})
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	scenarios, err := s.Generate(context.Background(), "утро", 1, "ru", nil)
	require.NoError(t, err)
	assert.Len(t, scenarios, 1)
}

func TestGenerateRejectsWrongLanguageText(t *testing.T) {
	ts := fakeLLM(t, scenarioBatchJSON{Scenarios: []scenarioJSON{
		{
			Title:        "Morning habits", // english despite ru request
			Hook:         "You waste your morning",
			AssetQueries: []string{"sunrise over city, golden hour"},
		},
	}})
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	_, err := s.Generate(context.Background(), "утро", 1, "ru", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateRejectsNonEnglishQueries(t *testing.T) {
	ts := fakeLLM(t, scenarioBatchJSON{Scenarios: []scenarioJSON{
		{
			Title:        "Утро",
			Hook:         "Вы теряете утро",
			AssetQueries: []string{"рассвет над городом"}, // must stay english
		},
	}})
	defer ts.Close()

	s := newTestSynthesizer(ts.URL)
	_, err := s.Generate(context.Background(), "утро", 1, "ru", nil)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestRepairQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "sunrise", want: "sunrise, cinematic lighting"},
		{in: "man running on beach", want: "man running on beach, cinematic lighting"},
		{in: "man running on beach, cinematic wide shot", want: "man running on beach, cinematic wide shot"},
		{in: "city at night, neon reflections", want: "city at night, neon reflections"},
		{in: "cinematic", want: "cinematic, cinematic lighting"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RepairQuery(tt.in), "query=%q", tt.in)
	}
}

func TestIsMostlyCyrillic(t *testing.T) {
	assert.True(t, isMostlyCyrillic("Подпишись на канал"))
	assert.True(t, isMostlyCyrillic("Скачай приложение FitApp"))
	assert.False(t, isMostlyCyrillic("Follow for more"))
	assert.False(t, isMostlyCyrillic("123"))
}
