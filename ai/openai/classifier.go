package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxParseAttempts bounds how often a malformed model answer is re-requested.
const maxParseAttempts = 3

// ErrNoChoices is returned when the model produces no answer.
var ErrNoChoices = errors.New("model returned no choices")

// Classifier implements ai.SentimentClassifier using OpenAI-compatible chat APIs.
type Classifier struct {
	client       llms.Model
	systemPrompt string
	logger       *slog.Logger
}

var _ ai.SentimentClassifier = (*Classifier)(nil)

// sentimentResponse is the JSON document the model is asked to produce.
type sentimentResponse struct {
	Sentiment string `json:"sentiment"`
	Scores    *struct {
		Positive float64 `json:"positive"`
		Negative float64 `json:"negative"`
		Neutral  float64 `json:"neutral"`
		Mixed    float64 `json:"mixed"`
	} `json:"scores"`
}

// NewClassifier creates a sentiment classifier using the provided configuration.
//
// Returns ai.SentimentClassifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.SentimentClassifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}
	return newClassifier(client), nil
}

func newClassifier(client llms.Model) *Classifier {
	return &Classifier{
		client:       client,
		systemPrompt: buildSystemPrompt(),
		logger:       slog.Default().With("component", "openai-classifier"),
	}
}

// DetectSentiment asks the model for a JSON sentiment label. Malformed or
// unlabeled answers are re-requested up to three times; a failed request is
// returned immediately.
func (c *Classifier) DetectSentiment(ctx context.Context, text, languageCode string) (*ai.SentimentResult, error) {
	if languageCode == "" {
		languageCode = ai.DefaultLanguageCode
	}
	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(c.systemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildUserPrompt(text, languageCode))},
		},
	}

	var lastErr error
	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		response, err := c.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			c.logger.Error("failed to generate content", "attempt", attempt, "err", err)
			return nil, &core.TransportError{Op: "openai generate content", Err: err}
		}
		if len(response.Choices) < 1 {
			lastErr = ErrNoChoices
			continue
		}

		responseText := repairJSON(response.Choices[0].Content)
		result, err := parseResponse(responseText)
		if err != nil {
			lastErr = err
			c.logger.Warn("error parsing classifier response",
				"attempt", attempt,
				"response", responseText,
				"err", err)
			continue
		}
		return result, nil
	}

	c.logger.Error("failed to parse classifier response after retries", "err", lastErr)
	return nil, fmt.Errorf("classifier response: %w", lastErr)
}

func parseResponse(responseText string) (*ai.SentimentResult, error) {
	var parsed sentimentResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, err
	}
	sentiment, err := core.ParseSentiment(parsed.Sentiment)
	if err != nil {
		return nil, err
	}

	result := &ai.SentimentResult{Sentiment: sentiment}
	if parsed.Scores != nil {
		result.Scores = core.SentimentScores{
			Positive: parsed.Scores.Positive,
			Negative: parsed.Scores.Negative,
			Neutral:  parsed.Scores.Neutral,
			Mixed:    parsed.Scores.Mixed,
		}
		return result, nil
	}

	// Without scores, the chosen label gets full confidence.
	switch sentiment {
	case core.SentimentPositive:
		result.Scores.Positive = 1
	case core.SentimentNegative:
		result.Scores.Negative = 1
	case core.SentimentNeutral:
		result.Scores.Neutral = 1
	case core.SentimentMixed:
		result.Scores.Mixed = 1
	}
	return result, nil
}
