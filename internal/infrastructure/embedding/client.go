// Package embedding talks to the external embedding service over HTTP and
// translates transport failures into the application's failure taxonomy.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ssonin/nvstech/internal/application"
	"github.com/ssonin/nvstech/internal/config"
)

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(cfg config.EmbeddingConfig) application.EmbeddingClient {
	return &HTTPClient{
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: cfg.CallTimeout,
		},
	}
}

// Embed performs one outbound request per invocation. Connection-level
// failures, timeouts and 5xx responses come back transient; a well-formed
// rejection from the service comes back permanent.
func (c *HTTPClient) Embed(ctx context.Context, req application.EmbedRequest) (*application.EmbedResponse, error) {
	url := fmt.Sprintf("%s/embeddings", c.baseURL)

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &application.EmbeddingError{
			Kind:    application.KindTransient,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, translateErrorResponse(resp)
	}

	var embedResp application.EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, &application.EmbeddingError{
			Kind:       application.KindTransient,
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			Err:        err,
		}
	}

	if len(embedResp.Embeddings) != len(req.Texts) {
		return nil, &application.EmbeddingError{
			Kind:       application.KindPermanent,
			StatusCode: resp.StatusCode,
			Message: fmt.Sprintf("expected %d embeddings, got %d",
				len(req.Texts), len(embedResp.Embeddings)),
		}
	}

	return &embedResp, nil
}

// Health checks the embedding service's /health endpoint.
func (c *HTTPClient) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", c.baseURL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &application.EmbeddingError{
			Kind:    application.KindTransient,
			Message: "health check failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return translateErrorResponse(resp)
	}

	return nil
}

// errorResponse is the error body shape the embedding service produces.
type errorResponse struct {
	Detail string `json:"detail"`
}

func translateErrorResponse(resp *http.Response) *application.EmbeddingError {
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return &application.EmbeddingError{
			Kind:       application.KindTransient,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("service returned status %d", resp.StatusCode),
		}
	}

	var errResp errorResponse
	message := string(body)
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
		message = errResp.Detail
	}

	return &application.EmbeddingError{
		Kind:       application.KindPermanent,
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}
