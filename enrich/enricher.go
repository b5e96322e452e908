package enrich

import (
	"context"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/core"
)

// Enricher attaches a sentiment to every record of a batch.
type Enricher struct {
	classifier   ai.SentimentClassifier
	pool         *ants.Pool
	languageCode string
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures an Enricher.
type Option func(*Enricher) error

// WithPoolSize sets the number of classification calls in flight at once.
// Default is runtime.NumCPU(), with a minimum of 2.
func WithPoolSize(size int) Option {
	return func(e *Enricher) error {
		if size < 1 {
			size = 1
		}
		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithLanguageCode sets the language passed to the classifier.
// Default is "en".
func WithLanguageCode(code string) Option {
	return func(e *Enricher) error {
		if code != "" {
			e.languageCode = code
		}
		return nil
	}
}

// WithClock replaces the clock used for enrichedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Enricher) error {
		if now != nil {
			e.now = now
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Enricher) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEnricher creates an enricher that classifies with classifier.
func NewEnricher(classifier ai.SentimentClassifier, opts ...Option) (*Enricher, error) {
	if classifier == nil {
		return nil, ErrClassifierRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 2))
	if err != nil {
		return nil, err
	}

	e := &Enricher{
		classifier:   classifier,
		pool:         pool,
		languageCode: ai.DefaultLanguageCode,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}
	e.logger = e.logger.With("component", "enricher")
	return e, nil
}

// classification is the outcome of one classifier call.
type classification struct {
	result *ai.SentimentResult
	at     time.Time
	err    error
}

// Enrich classifies every record concurrently and waits for all calls to
// finish. If any call fails, the returned *core.AggregateError lists every
// failed record index and no records are returned. The input is not
// modified.
func (e *Enricher) Enrich(ctx context.Context, records []core.EnrichedRecord) ([]core.EnrichedRecord, error) {
	if len(records) == 0 {
		return []core.EnrichedRecord{}, nil
	}

	results := make([]classification, len(records))
	var wg sync.WaitGroup
	for i := range records {
		wg.Add(1)
		submitErr := e.pool.Submit(func() {
			defer wg.Done()
			results[i] = e.classify(ctx, records[i])
		})
		if submitErr != nil {
			wg.Done()
			results[i].err = submitErr
		}
	}
	wg.Wait()

	var failures []core.IndexedError
	for i, r := range results {
		if r.err != nil {
			failures = append(failures, core.IndexedError{Index: i, Err: r.err})
		}
	}
	if len(failures) > 0 {
		err := &core.AggregateError{Op: "enrich", Total: len(records), Failures: failures}
		e.logger.Error("enrichment failed", "records", len(records), "failed", len(failures), "err", err)
		return nil, err
	}

	out := make([]core.EnrichedRecord, len(records))
	for i, r := range results {
		out[i] = merge(records[i], r)
	}
	e.logger.Debug("enriched records", "records", len(out))
	return out, nil
}

func (e *Enricher) classify(ctx context.Context, record core.EnrichedRecord) classification {
	if err := core.ValidateTextRecord(record.TextRecord); err != nil {
		return classification{err: err}
	}
	result, err := e.classifier.DetectSentiment(ctx, record.Text, e.languageCode)
	if err != nil {
		return classification{err: err}
	}
	if result == nil {
		return classification{err: ErrNoResult}
	}
	label, err := core.ParseSentiment(string(result.Sentiment))
	if err != nil {
		return classification{err: err}
	}
	normalized := *result
	normalized.Sentiment = label
	return classification{result: &normalized, at: e.now()}
}

// merge returns a copy of record carrying the classification.
func merge(record core.EnrichedRecord, c classification) core.EnrichedRecord {
	scores := c.result.Scores
	at := c.at
	record.Sentiment = c.result.Sentiment
	record.Scores = &scores
	record.EnrichedAt = &at
	return record
}

// Release releases the worker pool.
// The enricher should not be used after calling Release.
func (e *Enricher) Release() {
	if e.pool != nil {
		e.pool.Release()
	}
}
