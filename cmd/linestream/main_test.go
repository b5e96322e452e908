package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/linestream/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var out bytes.Buffer
	app.Writer = &out
	app.ErrWriter = io.Discard
	err := app.Run(append([]string{"linestream"}, args...))
	return out.String(), err
}

type bulkRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (b *bulkRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.bodies = append(b.bodies, string(data))
	b.mu.Unlock()
	_, _ = w.Write([]byte(`{"errors":false}`))
}

func TestCommandFlags(t *testing.T) {
	app := newApp()

	t.Run("ingest-file requires file", func(t *testing.T) {
		_, err := runApp(t, "ingest-file")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "file")
	})

	t.Run("every command is registered", func(t *testing.T) {
		names := make([]string, len(app.Commands))
		for i, cmd := range app.Commands {
			names[i] = cmd.Name
		}
		assert.ElementsMatch(t, []string{"ingest-file", "ingest-event", "serve", "consume", "handle-event"}, names)
	})

	t.Run("event defaults to stdin", func(t *testing.T) {
		for _, cmd := range app.Commands {
			if cmd.Name != "handle-event" {
				continue
			}
			for _, flag := range cmd.Flags {
				if f, ok := flag.(*cli.StringFlag); ok && f.Name == "event" {
					assert.Equal(t, "-", f.Value)
					return
				}
			}
		}
		t.Fatal("event flag not found")
	})
}

func TestSetupLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "Warn", "error"} {
		t.Run(level, func(t *testing.T) {
			app := &cli.App{
				Name:   "test",
				Flags:  []cli.Flag{&cli.StringFlag{Name: "log-level", Value: "info"}},
				Before: setupLogger,
				Action: func(c *cli.Context) error { return nil },
			}
			require.NoError(t, app.Run([]string{"test", "--log-level", level}))
		})
	}

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, err := runApp(t, "--log-level", "chatty", "consume")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestLoadConfig_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linestream.yaml")
	require.NoError(t, os.WriteFile(path, []byte("queue:\n  stream: from-file\nclassifier:\n  provider: comprehend\n"), 0644))

	app := newApp()
	app.Commands = []*cli.Command{{
		Name: "check",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			require.NoError(t, err)
			assert.Equal(t, "from-file", cfg.Queue.Stream)
			assert.Equal(t, "mock", cfg.Classifier.Provider)
			assert.Equal(t, "QUEUE_FORWARD", cfg.Delivery.Mode)
			assert.Equal(t, "/data/q", cfg.Queue.Path)
			return nil
		},
	}}
	err := app.Run([]string{"linestream", "-c", path, "--classifier", "mock",
		"--delivery-mode", "queue_forward", "--queue-path", "/data/q", "check"})
	require.NoError(t, err)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := runApp(t, "--queue-backend", "smoke-signals", "consume", "--once")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue.backend")
}

func TestIngestFileThenConsume(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "review.txt")
	require.NoError(t, os.WriteFile(file, []byte("great product\n\nbroken on arrival\n"), 0644))

	rec := &bulkRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	common := []string{"--queue-path", filepath.Join(dir, "queue"), "--classifier", "mock", "--search-endpoint", srv.URL}

	out, err := runApp(t, append(common, "ingest-file", "--file", file)...)
	require.NoError(t, err)
	assert.Contains(t, out, "published 2 records from review.txt")

	out, err = runApp(t, append(common, "consume", "--once")...)
	require.NoError(t, err)
	assert.Contains(t, out, "handled 2 records")

	require.Len(t, rec.bodies, 1)
	assert.Equal(t, 4, strings.Count(rec.bodies[0], "\n"))
	assert.Contains(t, rec.bodies[0], `"sentiment":"POSITIVE"`)
	assert.Contains(t, rec.bodies[0], `"sentiment":"NEGATIVE"`)
}

func TestIngestFile_RejectsUnsupportedFormat(t *testing.T) {
	file := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	_, err := runApp(t, "--classifier", "mock", "ingest-file", "--file", file)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedFormat)
}

func TestHandleEvent(t *testing.T) {
	dir := t.TempDir()
	rec := &bulkRecorder{}
	srv := httptest.NewServer(rec)
	defer srv.Close()

	var env core.Envelope
	for i, text := range []string{"awesome", "awful"} {
		data, err := json.Marshal(core.TextRecord{SourceID: "evt", Line: i, Text: text, CreatedAt: time.Now().UTC()})
		require.NoError(t, err)
		env.Records = append(env.Records, core.NewEnvelopeRecord(data, "pk", "seq", time.Now()))
	}
	event, err := json.Marshal(env)
	require.NoError(t, err)
	path := filepath.Join(dir, "event.json")
	require.NoError(t, os.WriteFile(path, event, 0644))

	out, err := runApp(t, "--classifier", "mock", "--search-endpoint", srv.URL, "handle-event", "--event", path)
	require.NoError(t, err)
	assert.Contains(t, out, "delivered 2 records")
	require.Len(t, rec.bodies, 1)
}

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	code := m.Run()
	os.Exit(code)
}
