// Package mock provides test double implementations of the AI service
// interfaces.
//
// MockClassifier implements ai.SentimentClassifier without any external
// service, so enrichment can be tested deterministically.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	classifier := mock.NewMockClassifier()
//	res, err := classifier.DetectSentiment(ctx, "great work", "en") // POSITIVE
//
//	// Custom behavior injection
//	classifier := mock.NewMockClassifier().
//	    WithDetectSentimentFunc(func(ctx context.Context, text, lang string) (*ai.SentimentResult, error) {
//	        return nil, errors.New("service unavailable")
//	    })
//
//	// Check call counts
//	count := classifier.CallCount()
//
// # Default Behavior
//
// The default classification counts a small list of positive and negative
// keywords: only positive is POSITIVE, only negative is NEGATIVE, both is
// MIXED and neither is NEUTRAL.
package mock
