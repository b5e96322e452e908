package core

import (
	"time"
)

// Sentiment is the classification label attached to an enriched record.
type Sentiment string

const (
	SentimentPositive Sentiment = "POSITIVE"
	SentimentNegative Sentiment = "NEGATIVE"
	SentimentNeutral  Sentiment = "NEUTRAL"
	SentimentMixed    Sentiment = "MIXED"
)

// Sentiments lists every valid label.
var Sentiments = []Sentiment{
	SentimentPositive,
	SentimentNegative,
	SentimentNeutral,
	SentimentMixed,
}

// TextRecord is a single non-empty line of an ingested text, numbered by its
// position among the kept lines of its source.
type TextRecord struct {
	SourceID  string    `json:"sourceId"`
	Line      int       `json:"line"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// SentimentScores holds the classifier confidence for each label.
type SentimentScores struct {
	Positive float64 `json:"positive"`
	Negative float64 `json:"negative"`
	Neutral  float64 `json:"neutral"`
	Mixed    float64 `json:"mixed"`
}

// EnrichedRecord is a TextRecord after it has been read back off the queue
// and, once classified, carries its sentiment.
type EnrichedRecord struct {
	TextRecord
	Sentiment  Sentiment        `json:"sentiment,omitempty"`
	Scores     *SentimentScores `json:"scores,omitempty"`
	ReceivedAt *time.Time       `json:"receivedAt,omitempty"` // Stamped by the stream decoder
	EnrichedAt *time.Time       `json:"enrichedAt,omitempty"` // Set together with Sentiment
}

// IsEnriched reports whether the record carries a classification.
func (r EnrichedRecord) IsEnriched() bool {
	return r.Sentiment != "" && r.EnrichedAt != nil
}
