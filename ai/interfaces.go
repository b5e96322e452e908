package ai

import (
	"context"

	"github.com/poiesic/linestream/core"
)

// SentimentClassifier labels text with a sentiment.
// Implementations must be thread-safe for concurrent use.
type SentimentClassifier interface {
	// DetectSentiment classifies text written in languageCode (an ISO 639-1
	// code such as "en"). An error means no label was produced; a result
	// always carries one of the core.Sentiments.
	DetectSentiment(ctx context.Context, text, languageCode string) (*SentimentResult, error)
}

// SentimentResult is the outcome of one classification.
type SentimentResult struct {
	Sentiment core.Sentiment
	Scores    core.SentimentScores
}
