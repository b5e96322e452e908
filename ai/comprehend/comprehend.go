// Package comprehend implements ai.SentimentClassifier with Amazon Comprehend.
package comprehend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/comprehend"
	"github.com/aws/aws-sdk-go/service/comprehend/comprehendiface"
	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/core"
)

// MaxTextBytes is Comprehend's limit on UTF-8 encoded input per request.
const MaxTextBytes = 5000

// Classifier calls DetectSentiment once per text.
type Classifier struct {
	api    comprehendiface.ComprehendAPI
	logger *slog.Logger
}

var _ ai.SentimentClassifier = (*Classifier)(nil)

// NewClassifier creates a classifier from an AWS session.
//
// Returns ai.SentimentClassifier interface to enforce abstraction.
func NewClassifier(sess client.ConfigProvider) ai.SentimentClassifier {
	return newClassifier(comprehend.New(sess))
}

// NewClassifierWithAPI creates a classifier on an existing Comprehend client.
func NewClassifierWithAPI(api comprehendiface.ComprehendAPI) ai.SentimentClassifier {
	return newClassifier(api)
}

func newClassifier(api comprehendiface.ComprehendAPI) *Classifier {
	return &Classifier{
		api:    api,
		logger: slog.Default().With("component", "comprehend-classifier"),
	}
}

// DetectSentiment classifies text. Text longer than MaxTextBytes is truncated
// at a rune boundary.
func (c *Classifier) DetectSentiment(ctx context.Context, text, languageCode string) (*ai.SentimentResult, error) {
	if languageCode == "" {
		languageCode = ai.DefaultLanguageCode
	}
	if len(text) > MaxTextBytes {
		c.logger.Debug("truncating text", "bytes", len(text))
		text = ai.TruncateUTF8(text, MaxTextBytes)
	}

	out, err := c.api.DetectSentimentWithContext(ctx, &comprehend.DetectSentimentInput{
		Text:         aws.String(text),
		LanguageCode: aws.String(languageCode),
	})
	if err != nil {
		return nil, &core.TransportError{Op: "comprehend detect sentiment", Err: err}
	}

	sentiment, err := core.ParseSentiment(aws.StringValue(out.Sentiment))
	if err != nil {
		return nil, fmt.Errorf("comprehend: %w", err)
	}

	result := &ai.SentimentResult{Sentiment: sentiment}
	if s := out.SentimentScore; s != nil {
		result.Scores = core.SentimentScores{
			Positive: aws.Float64Value(s.Positive),
			Negative: aws.Float64Value(s.Negative),
			Neutral:  aws.Float64Value(s.Neutral),
			Mixed:    aws.Float64Value(s.Mixed),
		}
	}
	return result, nil
}
