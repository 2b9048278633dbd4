package title

import (
	"context"
	"log/slog"

	"google.golang.org/genai"

	"systemqa/internal/logging"
	"systemqa/internal/services"
	"systemqa/internal/services/gemini"
)

const defaultMaxOutputTokens = 500

// Generator issues one generateContent call.
type Generator interface {
	GenerateContent(ctx context.Context, req gemini.Request) (gemini.Response, error)
}

// Store persists the synthesized title.
type Store interface {
	SetTitle(ctx context.Context, id, title string) error
}

// Synthesizer builds the title prompt, calls the model once and stores the result.
type Synthesizer struct {
	generator       Generator
	store           Store
	maxOutputTokens int
	logger          *slog.Logger
}

// NewSynthesizer wires a Synthesizer. A maxOutputTokens of 0 uses 500.
func NewSynthesizer(generator Generator, store Store, maxOutputTokens int, logger *slog.Logger) *Synthesizer {
	if maxOutputTokens <= 0 {
		maxOutputTokens = defaultMaxOutputTokens
	}
	return &Synthesizer{
		generator:       generator,
		store:           store,
		maxOutputTokens: maxOutputTokens,
		logger:          logging.NewComponentLogger(logger, "title"),
	}
}

// Request returns the generateContent request for parts: one candidate,
// temperature 0, bounded output, and no safety blocking.
func (s *Synthesizer) Request(parts []*genai.Part) gemini.Request {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategorySexuallyExplicit,
		genai.HarmCategoryHarassment,
		genai.HarmCategoryDangerousContent,
	}
	safety := make([]*genai.SafetySetting, 0, len(categories))
	for _, category := range categories {
		safety = append(safety, &genai.SafetySetting{Category: category, Threshold: genai.HarmBlockThresholdBlockNone})
	}
	return gemini.Request{
		Contents: []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			CandidateCount:  1,
			Temperature:     genai.Ptr[float32](0),
			MaxOutputTokens: int32(s.maxOutputTokens),
			SafetySettings:  safety,
		},
	}
}

// Synthesize generates a title for manualID from steps and writes it verbatim.
func (s *Synthesizer) Synthesize(ctx context.Context, manualID string, steps []Step) (string, error) {
	logger := logging.WithContext(ctx, s.logger)

	parts, err := BuildPrompt(steps)
	if err != nil {
		return "", err
	}
	images := 0
	for _, step := range steps {
		if step.ImagePath != "" {
			images++
		}
	}
	logger.Debug("title prompt assembled",
		logging.Int("steps", len(steps)),
		logging.Int("images", images),
		logging.Int("parts", len(parts)),
	)

	resp, err := s.generator.GenerateContent(ctx, s.Request(parts))
	if err != nil {
		return "", err
	}
	if err := s.store.SetTitle(ctx, manualID, resp.Text); err != nil {
		return "", services.Wrap(services.ErrStorage, "title", "store", "persist title", err)
	}
	logger.Info("manual title generated",
		logging.String(logging.FieldEventType, "title_generated"),
		logging.String("title", resp.Text),
		logging.Int("total_tokens", resp.Usage.TotalTokenCount),
	)
	return resp.Text, nil
}
