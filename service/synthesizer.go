package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode"

	"reelforge-server/config"
	"reelforge-server/models"

	"github.com/google/uuid"
)

// ErrGenerationFailed wraps every hard synthesizer failure: unreachable
// provider, empty choices, unparsable JSON, broken language contract. Scripted
// content cannot be fabricated locally, so there is no fallback.
var ErrGenerationFailed = errors.New("scenario generation failed")

const defaultScenarioDuration = 15 // seconds

// cinematicSuffix is appended to any visual query missing a style marker.
// Query quality is repaired client-side rather than trusted to prompting.
const cinematicSuffix = ", cinematic lighting"

var styleMarkers = []string{
	"cinematic", "moody", "neon", "golden hour", "slow motion",
	"bokeh", "soft light", "dramatic light", "aesthetic", "film grain",
}

const synthSystemPrompt = `You are a short-form vertical video scriptwriter. Given a topic you produce N distinct script variants for 15-60 second vertical videos.

You MUST respond with ONLY valid JSON, no preamble, no markdown, no explanation:
{"scenarios": [{
  "title": "...",
  "hook": "first 3 seconds, pattern interrupt",
  "body": "2-4 short punchy sentences",
  "cta": "one-line call to action",
  "voiceover_text": "full narration text",
  "asset_queries": ["subject + action + lighting descriptor", ...],
  "tone": "professional|casual|provocative|educational|emotional",
  "angle": "what makes this variant different"
}]}

Rules:
- Each asset_queries entry is an English stock-footage search phrase: subject, action, and a lighting/style descriptor. Never a single word.
- asset_queries are ALWAYS in English, regardless of the output language.
- Every variant takes a different angle on the topic.`

// Synthesizer calls the external chat-completions service and repairs its
// output into fully-typed scenarios. Injected everywhere it is used; there is
// no package-level client.
type Synthesizer struct {
	Endpoint   string
	Model      string
	APIKey     string
	HTTPClient *http.Client
}

func NewSynthesizer(cfg *config.Config) *Synthesizer {
	return &Synthesizer{
		Endpoint:   cfg.Providers.LLM.Endpoint,
		Model:      cfg.Providers.LLM.Model,
		APIKey:     cfg.Providers.LLM.APIKey,
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// scenarioJSON is the raw structure the model returns, before repair.
type scenarioJSON struct {
	Title         string   `json:"title"`
	Hook          string   `json:"hook"`
	Body          string   `json:"body"`
	CTA           string   `json:"cta"`
	VoiceoverText string   `json:"voiceover_text"`
	AssetQueries  []string `json:"asset_queries"`
	Tone          string   `json:"tone"`
	Angle         string   `json:"angle"`
}

type scenarioBatchJSON struct {
	Scenarios []scenarioJSON `json:"scenarios"`
}

// Generate produces count scripted variants for a topic. Every returned
// scenario is fully populated: missing optional fields get defaults, queries
// are repaired, and the output-language contract is verified.
func (s *Synthesizer) Generate(ctx context.Context, topic string, count int, language string, creatorContext map[string]interface{}) ([]models.Scenario, error) {
	if topic == "" {
		return nil, fmt.Errorf("%w: empty topic", ErrGenerationFailed)
	}
	if count <= 0 {
		count = 1
	}
	if language == "" {
		language = "en"
	}

	content, err := s.complete(ctx, buildUserPrompt(topic, count, language, creatorContext))
	if err != nil {
		return nil, err
	}

	var batch scenarioBatchJSON
	if err := json.Unmarshal([]byte(cleanJSON(content)), &batch); err != nil {
		return nil, fmt.Errorf("%w: unparsable response: %v", ErrGenerationFailed, err)
	}
	if len(batch.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: response contained no scenarios", ErrGenerationFailed)
	}
	if len(batch.Scenarios) > count {
		batch.Scenarios = batch.Scenarios[:count]
	}

	scenarios := make([]models.Scenario, 0, len(batch.Scenarios))
	for i, raw := range batch.Scenarios {
		sc := repairScenario(raw, i, topic)
		if err := enforceLanguage(sc, language); err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func (s *Synthesizer) complete(ctx context.Context, userPrompt string) (string, error) {
	reqBody := chatRequest{
		Model: s.Model,
		Messages: []chatMessage{
			{Role: "system", Content: synthSystemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.9,
		MaxTokens:   4096,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: provider unreachable: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", ErrGenerationFailed, err)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(respBytes, &chatResp); err != nil {
		return "", fmt.Errorf("%w: parse provider response: %v", ErrGenerationFailed, err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("%w: provider error: %s", ErrGenerationFailed, chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("%w: provider returned no choices", ErrGenerationFailed)
	}
	return chatResp.Choices[0].Message.Content, nil
}

func buildUserPrompt(topic string, count int, language string, creatorContext map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nVariants: %d\n", topic, count)
	if language == "ru" {
		b.WriteString("Output language: Russian. title/hook/body/cta/voiceover_text MUST be in Russian. asset_queries stay in English.\n")
	} else {
		b.WriteString("Output language: English.\n")
	}
	if len(creatorContext) > 0 {
		ctxBytes, err := json.Marshal(creatorContext)
		if err == nil {
			fmt.Fprintf(&b, "Creator context: %s\n", ctxBytes)
		}
	}
	return b.String()
}

// cleanJSON strips markdown code fences the model sometimes wraps around JSON.
func cleanJSON(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// repairScenario coerces a raw model scenario into a fully-populated typed one.
// Default table: tone -> professional, duration -> 15s, missing title -> topic,
// missing body/cta -> empty string, voiceover -> hook+body+cta.
func repairScenario(raw scenarioJSON, index int, topic string) models.Scenario {
	tone := strings.ToLower(strings.TrimSpace(raw.Tone))
	switch tone {
	case models.ToneProfessional, models.ToneCasual, models.ToneProvocative, models.ToneEducational, models.ToneEmotional:
	default:
		tone = models.ToneProfessional
	}

	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = topic
	}
	voiceover := strings.TrimSpace(raw.VoiceoverText)
	if voiceover == "" {
		voiceover = strings.TrimSpace(strings.Join([]string{raw.Hook, raw.Body, raw.CTA}, " "))
	}

	queries := make(models.AssetQueries, 0, len(raw.AssetQueries))
	for _, q := range raw.AssetQueries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		queries = append(queries, RepairQuery(q))
	}

	return models.Scenario{
		ID:              uuid.NewString(),
		Index:           index,
		Title:           title,
		Hook:            strings.TrimSpace(raw.Hook),
		Body:            strings.TrimSpace(raw.Body),
		CTA:             strings.TrimSpace(raw.CTA),
		VoiceoverText:   voiceover,
		AssetQueries:    queries,
		DurationSeconds: defaultScenarioDuration,
		Tone:            tone,
		Angle:           strings.TrimSpace(raw.Angle),
	}
}

// RepairQuery upgrades weak visual queries: single words and queries without a
// recognized style marker get the cinematic suffix appended.
func RepairQuery(q string) string {
	lower := strings.ToLower(q)
	for _, marker := range styleMarkers {
		if strings.Contains(lower, marker) {
			if len(strings.Fields(q)) > 1 {
				return q
			}
			break
		}
	}
	return q + cinematicSuffix
}

// enforceLanguage verifies the output-language contract: for ru every
// user-facing text field must read as Cyrillic, while asset queries must stay
// ASCII in all cases (they feed an English search index).
func enforceLanguage(sc models.Scenario, language string) error {
	for _, q := range sc.AssetQueries {
		if !isASCII(q) {
			return fmt.Errorf("%w: asset query not in English: %q", ErrGenerationFailed, q)
		}
	}
	if language != "ru" {
		return nil
	}
	fields := map[string]string{
		"title":          sc.Title,
		"hook":           sc.Hook,
		"body":           sc.Body,
		"cta":            sc.CTA,
		"voiceover_text": sc.VoiceoverText,
	}
	for name, v := range fields {
		if v == "" {
			continue
		}
		if !isMostlyCyrillic(v) {
			return fmt.Errorf("%w: field %s not in requested language", ErrGenerationFailed, name)
		}
	}
	return nil
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// isMostlyCyrillic tolerates digits, punctuation and the odd latin brand name,
// but requires cyrillic letters to dominate the letter content.
func isMostlyCyrillic(s string) bool {
	var cyrillic, latin int
	for _, r := range s {
		switch {
		case unicode.Is(unicode.Cyrillic, r):
			cyrillic++
		case unicode.IsLetter(r):
			latin++
		}
	}
	if cyrillic == 0 {
		return false
	}
	return cyrillic > latin
}
