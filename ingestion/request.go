package ingestion

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/poiesic/linestream/core"
)

// FileRequest is the body of a direct ingest call. Data is base64 encoded.
type FileRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"`
}

// Response is the reply to a direct ingest call.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// CORSHeaders returns the headers sent with every direct-call response.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Content-Type":                "application/json",
		"Access-Control-Allow-Origin": "*",
	}
}

// ParseFileRequest decodes a request body and its payload.
func ParseFileRequest(body []byte) (*FileRequest, []byte, error) {
	var req FileRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, nil, &core.ParseError{Index: -1, Err: fmt.Errorf("malformed request: %w", err)}
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, nil, &core.ValidationError{Field: "name", Err: errors.New("name cannot be empty")}
	}
	payload, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return nil, nil, &core.ParseError{Index: -1, Err: fmt.Errorf("data is not base64: %w", err)}
	}
	return &req, payload, nil
}

// StatusFor maps a pipeline error onto an HTTP status code.
func StatusFor(err error) int {
	var (
		verr *core.ValidationError
		perr *core.ParseError
		terr *core.TransportError
		aerr *core.AggregateError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr), errors.As(err, &perr):
		return http.StatusBadRequest
	case errors.As(err, &aerr), errors.As(err, &terr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// NewResponse builds the reply for the outcome of a call.
func NewResponse(err error) Response {
	resp := Response{StatusCode: StatusFor(err), Headers: CORSHeaders()}
	if err != nil {
		body, _ := json.Marshal(errorBody{Error: err.Error()})
		resp.Body = string(body)
	}
	return resp
}
