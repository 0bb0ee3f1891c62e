package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/go-ports/tradeshop/internal/redaction"
)

// snippetLimit caps how much of an error body is kept in a StatusError.
const snippetLimit = 256

// doJSON executes an HTTP request, marshalling body as JSON and unmarshalling
// the response into out. Pass nil body for GET requests. Pass nil out to discard
// the response body; an empty 2xx body leaves out untouched.
// Transport failures wrap ErrNetwork; non-2xx responses return *StatusError.
func doJSON(ctx context.Context, client *http.Client, method, rawURL string, headers map[string]string, body, out any) error {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("doJSON marshal: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return fmt.Errorf("doJSON new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	slog.Debug("api request", "method", method, "path", req.URL.Path, "request_id", reqID)

	resp, err := client.Do(req) // #nosec G704 -- SSRF risk accepted; URL is the user-configured service endpoint
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, pathOf(rawURL), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, snippetLimit))
		slog.Debug("api response", "status", resp.StatusCode, "request_id", reqID)
		return &StatusError{
			Method: method,
			Path:   req.URL.Path,
			Code:   resp.StatusCode,
			Body:   redaction.Redact(string(bytes.TrimSpace(snippet))),
		}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("doJSON decode: %w", err)
		}
	}
	return nil
}

func pathOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	return u.Path
}
