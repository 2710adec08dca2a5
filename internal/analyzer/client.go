// Package analyzer is the HTTP client for the external script-analysis
// service that turns a PDF into the five-part production breakdown.
package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"time"
)

// DefaultAPICalls is the number of model calls one optimized analysis is
// expected to spend. Used when the service omits the actual count and as the
// save-endpoint default.
const DefaultAPICalls = 2

// ErrorKind labels what went wrong during analysis, so handlers can pick the
// right HTTP status without string matching.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindExtraction ErrorKind = "extraction"
	KindValidation ErrorKind = "validation"
	KindAnalysis   ErrorKind = "analysis"
	KindInternal   ErrorKind = "internal"
)

// Error is the typed failure returned by every client method.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Result is a successful analysis.
type Result struct {
	ComprehensiveAnalysis map[string]interface{}
	APICallsUsed          int
	// ProcessingTime is the service-reported duration, nil when it does not
	// report one.
	ProcessingTime *float64
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Analyze posts a script PDF to the analysis service and returns its
// breakdown. A single attempt, bounded by the client timeout and ctx; errors
// are always *Error.
func (c *Client) Analyze(ctx context.Context, filename string, file []byte) (*Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to build upload form: %v", err)}
	}
	if _, err := part.Write(file); err != nil {
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to build upload form: %v", err)}
	}
	if err := writer.Close(); err != nil {
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to build upload form: %v", err)}
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/analyze"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &Error{Kind: KindTimeout, Message: "analysis timed out"}
		}
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to reach analyzer: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to read analyzer response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		message := errorDetail(raw, resp.StatusCode)
		kind := classify(message)
		if resp.StatusCode == http.StatusRequestTimeout {
			kind = KindTimeout
		}
		return nil, &Error{Kind: kind, Message: message}
	}

	var wire struct {
		ComprehensiveAnalysis map[string]interface{} `json:"comprehensive_analysis"`
		APICallsUsed          *int                   `json:"api_calls_used"`
		TotalProcessingTime   *float64               `json:"total_processing_time"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to decode analyzer response: %v", err)}
	}

	result := &Result{
		ComprehensiveAnalysis: wire.ComprehensiveAnalysis,
		APICallsUsed:          DefaultAPICalls,
		ProcessingTime:        wire.TotalProcessingTime,
	}
	if wire.APICallsUsed != nil {
		result.APICallsUsed = *wire.APICallsUsed
	}
	return result, nil
}

// Chat forwards an assistant question to the analysis service and returns
// its reply text.
func (c *Client) Chat(ctx context.Context, message, contextText string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"message": message,
		"context": contextText,
	})
	if err != nil {
		return "", &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to marshal request: %v", err)}
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", &Error{Kind: KindTimeout, Message: "chat timed out"}
		}
		return "", &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to reach analyzer: %v", err)}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to read analyzer response: %v", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{Kind: KindInternal, Message: errorDetail(raw, resp.StatusCode)}
	}

	var wire struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return "", &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to decode analyzer response: %v", err)}
	}
	return wire.Response, nil
}

// Health reports whether the analysis service is reachable.
func (c *Client) Health(ctx context.Context) error {
	url := strings.TrimSuffix(c.baseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Kind: KindInternal, Message: fmt.Sprintf("failed to reach analyzer: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &Error{Kind: KindInternal, Message: fmt.Sprintf("analyzer unhealthy: status %d", resp.StatusCode)}
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// errorDetail pulls a human-readable message out of an error response body.
func errorDetail(raw []byte, status int) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Detail != "" {
			return payload.Detail
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return fmt.Sprintf("analyzer returned status %d", status)
}

// classify buckets a failure message the same way clients of the service have
// come to expect: extraction and validation problems are the script's fault,
// everything else is the pipeline's.
func classify(message string) ErrorKind {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "extract"):
		return KindExtraction
	case strings.Contains(lower, "validation"):
		return KindValidation
	case strings.Contains(lower, "analysis"):
		return KindAnalysis
	default:
		return KindInternal
	}
}
