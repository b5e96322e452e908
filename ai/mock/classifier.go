package mock

import (
	"context"
	"strings"
	"sync"

	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/core"
)

var (
	positiveWords = []string{"good", "great", "love", "excellent", "happy", "nice", "awesome", "thanks"}
	negativeWords = []string{"bad", "awful", "hate", "terrible", "sad", "angry", "broken", "worst"}
)

// MockClassifier is a test double for ai.SentimentClassifier.
// It allows custom behavior injection via function fields and is safe for
// concurrent use.
type MockClassifier struct {
	// DetectSentimentFunc is called by DetectSentiment if set.
	// If nil, uses a keyword heuristic.
	DetectSentimentFunc func(ctx context.Context, text, languageCode string) (*ai.SentimentResult, error)

	mu        sync.Mutex
	callCount int
	texts     []string
}

var _ ai.SentimentClassifier = (*MockClassifier)(nil)

// NewMockClassifier creates a mock classifier with default behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// WithDetectSentimentFunc sets custom behavior and returns the mock.
func (m *MockClassifier) WithDetectSentimentFunc(fn func(ctx context.Context, text, languageCode string) (*ai.SentimentResult, error)) *MockClassifier {
	m.DetectSentimentFunc = fn
	return m
}

// DetectSentiment classifies text.
// Default behavior: counts positive and negative keywords. Both present is
// MIXED, neither is NEUTRAL.
func (m *MockClassifier) DetectSentiment(ctx context.Context, text, languageCode string) (*ai.SentimentResult, error) {
	m.mu.Lock()
	m.callCount++
	m.texts = append(m.texts, text)
	fn := m.DetectSentimentFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text, languageCode)
	}
	return Heuristic(text), nil
}

// Heuristic is the default keyword classification.
func Heuristic(text string) *ai.SentimentResult {
	words := strings.Fields(strings.ToLower(text))
	var pos, neg int
	for _, w := range words {
		w = strings.Trim(w, ".,!?;:\"'()[]{}")
		for _, p := range positiveWords {
			if w == p {
				pos++
			}
		}
		for _, n := range negativeWords {
			if w == n {
				neg++
			}
		}
	}

	res := &ai.SentimentResult{}
	switch {
	case pos > 0 && neg > 0:
		res.Sentiment = core.SentimentMixed
		res.Scores.Mixed = 1
	case pos > 0:
		res.Sentiment = core.SentimentPositive
		res.Scores.Positive = 1
	case neg > 0:
		res.Sentiment = core.SentimentNegative
		res.Scores.Negative = 1
	default:
		res.Sentiment = core.SentimentNeutral
		res.Scores.Neutral = 1
	}
	return res
}

// CallCount returns the number of times DetectSentiment was called.
func (m *MockClassifier) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Texts returns every text passed to DetectSentiment, in call order.
func (m *MockClassifier) Texts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

// Reset clears the call count and custom functions.
func (m *MockClassifier) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.texts = nil
	m.DetectSentimentFunc = nil
}
