package linestream

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/linestream/ai"
	"github.com/poiesic/linestream/ai/mock"
	"github.com/poiesic/linestream/config"
	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/delivery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore map[string]string

func (m memoryStore) Get(_ context.Context, bucket, key string) ([]byte, error) {
	return []byte(m[bucket+"/"+key]), nil
}

type bulkServer struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bulkServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.bodies = append(b.bodies, string(data))
	b.mu.Unlock()
	_, _ = w.Write([]byte(`{"errors":false,"items":[]}`))
}

func testConfig(t *testing.T, endpoint string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Classifier.Provider = ai.ProviderMock
	cfg.Delivery.Endpoint = endpoint
	cfg.PoolSize = 2
	return cfg
}

func TestNewPipeline(t *testing.T) {
	t.Run("in-memory queue", func(t *testing.T) {
		p, err := NewPipeline(testConfig(t, "http://localhost:9200"))
		require.NoError(t, err)
		defer p.Close()

		assert.NotNil(t, p.Queue())
		assert.Equal(t, "text-lines", p.Publisher().Stream())
	})

	t.Run("on-disk queue", func(t *testing.T) {
		cfg := testConfig(t, "http://localhost:9200")
		cfg.Queue.Path = filepath.Join(t.TempDir(), "queue")
		p, err := NewPipeline(cfg)
		require.NoError(t, err)
		assert.NotNil(t, p.Queue())
		assert.NoError(t, p.Close())
	})

	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig(t, "http://localhost:9200")
		cfg.Queue.Backend = "carrier-pigeon"
		p, err := NewPipeline(cfg)
		assert.Error(t, err)
		assert.Nil(t, p)
	})
}

func TestPipeline_EndToEndBulk(t *testing.T) {
	ctx := context.Background()
	srv := &bulkServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	classifier := mock.NewMockClassifier()
	p, err := NewPipeline(testConfig(t, ts.URL+"/"),
		WithClassifier(classifier),
		WithBlobStore(memoryStore{"uploads/review.txt": "I love this, great work\n\nterrible support\nit arrived on tuesday"}),
	)
	require.NoError(t, err)
	defer p.Close()

	ing, err := p.Ingestor()
	require.NoError(t, err)
	n, err := ing.IngestNotification(ctx, []byte(`{"Records":[{"s3":{"bucket":{"name":"uploads"},"object":{"key":"review.txt"}}}]}`))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	consumer, err := p.Consumer()
	require.NoError(t, err)
	handled, err := consumer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, handled)
	assert.Equal(t, 3, classifier.CallCount())

	require.Len(t, srv.bodies, 1)
	lines := strings.Split(strings.TrimSuffix(srv.bodies[0], "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Contains(t, lines[1], `"sentiment":"POSITIVE"`)
	assert.Contains(t, lines[3], `"sentiment":"NEGATIVE"`)
	assert.Contains(t, lines[5], `"sentiment":"NEUTRAL"`)

	// Committed records are not handled again.
	handled, err = consumer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, handled)
}

func TestPipeline_QueueForward(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, "")
	cfg.Delivery.Mode = string(delivery.ModeQueueForward)

	p, err := NewPipeline(cfg)
	require.NoError(t, err)
	defer p.Close()

	ing, err := p.Ingestor()
	require.NoError(t, err)
	body := `{"name":"post.txt","type":"text/plain","data":"` + base64.StdEncoding.EncodeToString([]byte("good\nbad")) + `"}`
	resp := ing.HandleRequest(ctx, []byte(body))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	consumer, err := p.Consumer()
	require.NoError(t, err)
	handled, err := consumer.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, handled)

	src, err := p.Queue().Source(cfg.Queue.OutputStream, "check")
	require.NoError(t, err)
	d, err := src.Fetch(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, d.Len())

	env, err := core.ParseEnvelope(mustJSON(t, d.Envelope))
	require.NoError(t, err)
	assert.Equal(t, 2, env.Len())
}

func TestPipeline_HandlerFailsAsUnit(t *testing.T) {
	ctx := context.Background()
	srv := &bulkServer{}
	ts := httptest.NewServer(srv)
	defer ts.Close()

	classifier := mock.NewMockClassifier().WithDetectSentimentFunc(
		func(_ context.Context, text, _ string) (*ai.SentimentResult, error) {
			if text == "two" {
				return nil, &core.TransportError{Op: "detect sentiment", Err: io.ErrUnexpectedEOF}
			}
			return mock.Heuristic(text), nil
		})
	p, err := NewPipeline(testConfig(t, ts.URL), WithClassifier(classifier))
	require.NoError(t, err)
	defer p.Close()

	ing, err := p.Ingestor()
	require.NoError(t, err)
	_, err = ing.IngestText(ctx, "s", []byte("one\ntwo\nthree"))
	require.NoError(t, err)

	consumer, err := p.Consumer()
	require.NoError(t, err)
	_, err = consumer.RunOnce(ctx)
	var agg *core.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Equal(t, []int{1}, agg.FailedIndexes())
	assert.Empty(t, srv.bodies)
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
