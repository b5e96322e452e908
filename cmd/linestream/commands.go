package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/poiesic/linestream"
	"github.com/poiesic/linestream/config"
	"github.com/poiesic/linestream/core"
	"github.com/poiesic/linestream/ingestion"
	"github.com/urfave/cli/v2"
)

// loadConfig reads the configuration file, if any, and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if v := c.String("queue-backend"); v != "" {
		cfg.Queue.Backend = v
	}
	if v := c.String("queue-path"); v != "" {
		cfg.Queue.Path = v
	}
	if v := c.String("classifier"); v != "" {
		cfg.Classifier.Provider = v
	}
	if v := c.String("delivery-mode"); v != "" {
		cfg.Delivery.Mode = v
	}
	if v := c.String("search-endpoint"); v != "" {
		cfg.Delivery.Endpoint = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openPipeline(c *cli.Context) (*linestream.Pipeline, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	p, err := linestream.NewPipeline(cfg, linestream.WithLogger(slog.Default()))
	if err != nil {
		return nil, fmt.Errorf("failed to open pipeline: %w", err)
	}
	return p, nil
}

func readEvent(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func ingestFileCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := c.String("file")
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := core.ValidateFormat(filepath.Base(path)); err != nil {
		return err
	}
	source := c.String("source")
	if source == "" {
		source = filepath.Base(path)
	}

	p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	ing, err := p.Ingestor()
	if err != nil {
		return err
	}
	n, err := ing.IngestText(ctx, source, payload)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "published %d records from %s\n", n, source)
	return nil
}

func ingestEventCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	event, err := readEvent(c.String("event"))
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	ing, err := p.Ingestor()
	if err != nil {
		return err
	}
	n, err := ing.IngestNotification(ctx, event)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "published %d records\n", n)
	return nil
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	ing, err := p.Ingestor()
	if err != nil {
		return err
	}

	addr := c.String("listen")
	if addr == "" {
		addr = p.Config().Ingest.Listen
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           ingestion.NewAPI(ing, slog.Default()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("ingest API listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func consumeCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if size := c.Int("batch-size"); size > 0 {
		cfg.Queue.FetchSize = size
	}
	p, err := linestream.NewPipeline(cfg, linestream.WithLogger(slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to open pipeline: %w", err)
	}
	defer p.Close()

	consumer, err := p.Consumer()
	if err != nil {
		return err
	}
	if c.Bool("once") {
		n, err := consumer.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("consume failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "handled %d records\n", n)
		return nil
	}
	return consumer.Run(ctx)
}

func handleEventCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	event, err := readEvent(c.String("event"))
	if err != nil {
		return fmt.Errorf("failed to read event: %w", err)
	}

	p, err := openPipeline(c)
	if err != nil {
		return err
	}
	defer p.Close()

	handler, err := p.Handler()
	if err != nil {
		return err
	}
	n, err := handler.HandleEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("handle failed: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "delivered %d records\n", n)
	return nil
}
