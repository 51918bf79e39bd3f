// Package ollama is a minimal client for the Ollama REST API:
// generation, model listing and model pulls. Transport failures and
// 429/5xx responses are reported as RetryableError so callers can
// back off without treating them as per-run fatal.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client communicates with an Ollama server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(baseURL, model string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string { return c.model }

// UseProxy routes all requests through the given HTTP proxy. user and
// pass are optional basic-auth credentials for authenticated proxies.
// Without a proxy the client honors the usual HTTP(S)_PROXY
// environment variables.
func (c *Client) UseProxy(rawURL, user, pass string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("proxy url: %w", err)
	}
	if user != "" {
		if pass != "" {
			u.User = url.UserPassword(user, pass)
		} else {
			u.User = url.User(user)
		}
	}
	c.httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(u)}
	return nil
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	System string   `json:"system,omitempty"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// GenerateOptions are the optional parts of a generate call.
type GenerateOptions struct {
	System string
	// ImagePath attaches one image (base64-encoded) for multimodal
	// models such as llava.
	ImagePath string
}

// Generate runs a single non-streaming completion and returns the
// model's text response.
func (c *Client) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		System: opts.System,
		Stream: false,
	}
	if opts.ImagePath != "" {
		data, err := os.ReadFile(opts.ImagePath)
		if err != nil {
			return "", fmt.Errorf("read image: %w", err)
		}
		reqBody.Images = []string{base64.StdEncoding.EncodeToString(data)}
	}

	var apiResp generateResponse
	if err := c.postJSON(ctx, "/api/generate", reqBody, &apiResp); err != nil {
		return "", err
	}
	if apiResp.Error != "" {
		return "", fmt.Errorf("ollama error: %s", apiResp.Error)
	}
	return strings.TrimSpace(apiResp.Response), nil
}

// Ping checks whether the server is reachable. Used at startup to
// decide between online and offline processing.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama status %d", resp.StatusCode)
	}
	return nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// HasModel reports whether the configured model is present locally.
func (c *Client) HasModel(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("list models: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("list models: status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var tags tagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return false, fmt.Errorf("decode tags: %w", err)
	}
	for _, m := range tags.Models {
		if m.Name == c.model || strings.SplitN(m.Name, ":", 2)[0] == c.model {
			return true, nil
		}
	}
	return false, nil
}

type pullRequest struct {
	Name   string `json:"name"`
	Stream bool   `json:"stream"`
}

type pullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Pull downloads the configured model to the server. Blocking; the
// registry download can take minutes for large models.
func (c *Client) Pull(ctx context.Context) error {
	var apiResp pullResponse
	if err := c.postJSON(ctx, "/api/pull", pullRequest{Name: c.model, Stream: false}, &apiResp); err != nil {
		return err
	}
	if apiResp.Error != "" {
		return fmt.Errorf("pull %s: %s", c.model, apiResp.Error)
	}
	return nil
}

// EnsureModel makes sure the configured model is available, pulling it
// when allowed. Returns an error when the model cannot be made
// available; callers typically degrade to offline mode.
func (c *Client) EnsureModel(ctx context.Context, pullMissing bool) error {
	ok, err := c.HasModel(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if !pullMissing {
		return fmt.Errorf("model %s not available locally", c.model)
	}
	return c.Pull(ctx)
}

func (c *Client) postJSON(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RetryableError{Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{StatusCode: resp.StatusCode, Message: string(raw)}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama %s: status %d: %s", path, resp.StatusCode, truncate(string(raw), 200))
	}

	if err := json.Unmarshal(raw, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// RetryableError indicates a transient failure (network error, 429,
// 5xx) that is worth retrying with backoff.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("retryable error: %s", truncate(e.Message, 200))
	}
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
