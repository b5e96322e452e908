package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws/credentials"
	v4 "github.com/aws/aws-sdk-go/aws/signer/v4"
	"github.com/poiesic/linestream/core"
)

const (
	// DefaultDocType is the document type named in every index action.
	DefaultDocType = "_doc"

	ndjsonContentType = "application/x-ndjson"
	defaultTimeout    = 30 * time.Second
)

// indexAction is the descriptor line preceding each document.
type indexAction struct {
	Index actionTarget `json:"index"`
}

type actionTarget struct {
	Index string `json:"_index"`
	Type  string `json:"_type"`
}

// BuildBulkBody formats records as a bulk index payload: for each record an
// action line then the document, every line terminated by a newline.
func BuildBulkBody(index, docType string, records []core.EnrichedRecord) ([]byte, error) {
	action, err := json.Marshal(indexAction{Index: actionTarget{Index: index, Type: docType}})
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	for i, record := range records {
		doc, err := json.Marshal(record)
		if err != nil {
			return nil, &core.ParseError{Index: i, Err: fmt.Errorf("marshal document: %w", err)}
		}
		buf.Write(action)
		buf.WriteByte('\n')
		buf.Write(doc)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// bulkResponse is the subset of the bulk API response that reports failures.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// BulkIndexer submits bulk index requests to a search service.
type BulkIndexer struct {
	endpoint string
	index    string
	docType  string
	client   *http.Client
	signer   *v4.Signer
	region   string
	logger   *slog.Logger
}

// BulkOption configures a BulkIndexer.
type BulkOption func(*BulkIndexer)

// WithHTTPClient replaces the HTTP client. Default has a 30s timeout.
func WithHTTPClient(client *http.Client) BulkOption {
	return func(b *BulkIndexer) {
		if client != nil {
			b.client = client
		}
	}
}

// WithDocType sets the document type of index actions. Default is "_doc".
func WithDocType(docType string) BulkOption {
	return func(b *BulkIndexer) {
		if docType != "" {
			b.docType = docType
		}
	}
}

// WithSigV4 signs requests for an Amazon OpenSearch/Elasticsearch domain.
func WithSigV4(creds *credentials.Credentials, region string) BulkOption {
	return func(b *BulkIndexer) {
		b.signer = v4.NewSigner(creds)
		b.region = region
	}
}

// WithBulkLogger sets a custom logger.
// Default is slog.Default().
func WithBulkLogger(logger *slog.Logger) BulkOption {
	return func(b *BulkIndexer) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// NewBulkIndexer creates an indexer for index at endpoint. A trailing slash
// on the endpoint is ignored.
func NewBulkIndexer(endpoint, index string, opts ...BulkOption) (*BulkIndexer, error) {
	endpoint = strings.TrimSuffix(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if index == "" {
		return nil, ErrIndexRequired
	}
	b := &BulkIndexer{
		endpoint: endpoint,
		index:    index,
		docType:  DefaultDocType,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With("component", "bulk-indexer", "index", index)
	return b, nil
}

// URL returns the bulk endpoint.
func (b *BulkIndexer) URL() string {
	return b.endpoint + "/_bulk"
}

// Index posts all records in a single bulk request.
func (b *BulkIndexer) Index(ctx context.Context, records []core.EnrichedRecord) error {
	if len(records) == 0 {
		return nil
	}
	body, err := BuildBulkBody(b.index, b.docType, records)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.URL(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", ndjsonContentType)
	if b.signer != nil {
		if _, err := b.signer.Sign(req, bytes.NewReader(body), "es", b.region, time.Now()); err != nil {
			return &core.TransportError{Op: "sign bulk request", Err: err}
		}
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return &core.TransportError{Op: "bulk index", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &core.TransportError{Op: "bulk index", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &core.TransportError{
			Op:  "bulk index",
			Err: fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	if err := checkBulkResponse(respBody); err != nil {
		return &core.TransportError{Op: "bulk index", Err: err}
	}
	b.logger.Debug("indexed documents", "documents", len(records))
	return nil
}

func checkBulkResponse(body []byte) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var resp bulkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if !resp.Errors {
		return nil
	}

	failed := 0
	var first string
	for _, item := range resp.Items {
		for _, result := range item {
			if result.Error == nil && result.Status < 300 {
				continue
			}
			failed++
			if first == "" && result.Error != nil {
				first = result.Error.Type + ": " + result.Error.Reason
			}
		}
	}
	return fmt.Errorf("%w: %d of %d (%s)", ErrBulkItemsFailed, failed, len(resp.Items), first)
}
