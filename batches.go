package anthropic

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

// BatchRequest is one entry of a message batch. CustomID correlates the
// request with its result; when empty, CreateBatch assigns a random one.
type BatchRequest struct {
	CustomID string         `json:"custom_id"`
	Params   *MessageParams `json:"params"`
}

// Batch is a message batch being processed asynchronously.
type Batch struct {
	ID                string             `json:"id"`
	Type              string             `json:"type"`
	ProcessingStatus  string             `json:"processing_status"` // "in_progress" | "canceling" | "ended"
	RequestCounts     BatchRequestCounts `json:"request_counts"`
	CreatedAt         string             `json:"created_at"`
	EndedAt           string             `json:"ended_at,omitzero"`
	ExpiresAt         string             `json:"expires_at,omitzero"`
	CancelInitiatedAt string             `json:"cancel_initiated_at,omitzero"`
	ResultsURL        string             `json:"results_url,omitzero"`
}

// BatchRequestCounts tallies the batch's requests by outcome.
type BatchRequestCounts struct {
	Processing int `json:"processing"`
	Succeeded  int `json:"succeeded"`
	Errored    int `json:"errored"`
	Canceled   int `json:"canceled"`
	Expired    int `json:"expired"`
}

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string   `json:"type"` // "succeeded" | "errored" | "canceled" | "expired"
		Message *Message `json:"message,omitzero"`
		Error   *struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error,omitzero"`
	} `json:"result"`
}

// CreateBatch submits requests for asynchronous processing.
func (c *Client) CreateBatch(ctx context.Context, requests ...*BatchRequest) (*Batch, error) {
	if len(requests) == 0 {
		return nil, &ConfigError{Reason: "at least one batch request is required"}
	}
	for _, request := range requests {
		if request.Params == nil {
			return nil, &ConfigError{Reason: "batch request params are required"}
		}
		if err := request.Params.validate(); err != nil {
			return nil, err
		}
		if request.CustomID == "" {
			request.CustomID = uuid.NewString()
		}
	}
	in := map[string]any{"requests": requests}
	var batch Batch
	if err := c.do(ctx, http.MethodPost, "/v1/messages/batches", in, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Batch returns a batch by id.
func (c *Client) Batch(ctx context.Context, id string) (*Batch, error) {
	if id == "" {
		return nil, &ConfigError{Reason: "batch id is required"}
	}
	var batch Batch
	if err := c.do(ctx, http.MethodGet, "/v1/messages/batches/"+url.PathEscape(id), nil, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// Batches lists all batches in the workspace.
func (c *Client) Batches(ctx context.Context) (batches []*Batch, err error) {
	afterID := ""
	for {
		path := "/v1/messages/batches?limit=100"
		if afterID != "" {
			path += "&after_id=" + url.QueryEscape(afterID)
		}
		var page struct {
			Data    []*Batch `json:"data"`
			HasMore bool     `json:"has_more"`
			LastID  string   `json:"last_id"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, fmt.Errorf("anthropic: listing batches: %w", err)
		}
		batches = append(batches, page.Data...)
		if !page.HasMore || page.LastID == "" {
			return batches, nil
		}
		afterID = page.LastID
	}
}

// CancelBatch asks the API to stop processing a batch. Requests already
// processed still produce results.
func (c *Client) CancelBatch(ctx context.Context, id string) (*Batch, error) {
	if id == "" {
		return nil, &ConfigError{Reason: "batch id is required"}
	}
	var batch Batch
	if err := c.do(ctx, http.MethodPost, "/v1/messages/batches/"+url.PathEscape(id)+"/cancel", nil, &batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// BatchResults streams the results of an ended batch, one per request,
// decoded from the JSONL results endpoint.
func (c *Client) BatchResults(ctx context.Context, id string) (results []*BatchResult, err error) {
	if id == "" {
		return nil, &ConfigError{Reason: "batch id is required"}
	}
	res, err := c.request(ctx, http.MethodGet, "/v1/messages/batches/"+url.PathEscape(id)+"/results", "", "application/x-jsonl", nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	scanner := bufio.NewScanner(res.Body)
	scanner.Buffer(make([]byte, 64<<10), 16<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		result := new(BatchResult)
		if err := json.Unmarshal(line, result); err != nil {
			return nil, &DecodeError{Reason: "invalid batch result line", Cause: err}
		}
		results = append(results, result)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConnectionError{Cause: err}
	}
	return results, nil
}
