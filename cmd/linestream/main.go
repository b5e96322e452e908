// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	eventFlag := &cli.StringFlag{
		Name:    "event",
		Aliases: []string{"e"},
		Usage:   "Path to the event JSON, or - for stdin",
		Value:   "-",
	}

	return &cli.App{
		Name:  "linestream",
		Usage: "Split text into line records, stream them and enrich them with sentiment",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to YAML configuration file",
				EnvVars: []string{"LINESTREAM_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "queue-backend",
				Usage: "Override queue backend (kinesis, kafka, badger)",
			},
			&cli.StringFlag{
				Name:  "queue-path",
				Usage: "Override badger queue directory",
			},
			&cli.StringFlag{
				Name:  "classifier",
				Usage: "Override classifier provider (comprehend, openai, mock)",
			},
			&cli.StringFlag{
				Name:  "delivery-mode",
				Usage: "Override delivery mode (QUEUE_FORWARD, BULK_INDEX)",
			},
			&cli.StringFlag{
				Name:  "search-endpoint",
				Usage: "Override search service endpoint for BULK_INDEX",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest-file",
				Usage:  "Split a local text file and publish its lines",
				Action: ingestFileCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the text file",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Source id recorded on each line (defaults to the file name)",
					},
				},
			},
			{
				Name:   "ingest-event",
				Usage:  "Process an object-created notification",
				Action: ingestEventCommand,
				Flags:  []cli.Flag{eventFlag},
			},
			{
				Name:   "serve",
				Usage:  "Serve direct ingest calls over HTTP",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "listen",
						Usage: "Listen address (defaults to ingest.listen)",
					},
				},
			},
			{
				Name:   "consume",
				Usage:  "Enrich and deliver records from the queue",
				Action: consumeCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Maximum records fetched per delivery (defaults to queue.fetchSize)",
					},
					&cli.BoolFlag{
						Name:  "once",
						Usage: "Handle a single delivery and exit",
					},
				},
			},
			{
				Name:   "handle-event",
				Usage:  "Enrich and deliver the records of one queue event",
				Action: handleEventCommand,
				Flags:  []cli.Flag{eventFlag},
			},
		},
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
