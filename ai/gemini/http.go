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

package gemini

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
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/fitment/ai"
)

// maxErrorBody caps how much of an error response body is kept in the error.
const maxErrorBody = 512

// postJSON sends body to url and returns the raw response body. Status
// handling is left to the caller. The URL carries the API key, so only the
// model is logged.
func postJSON(ctx context.Context, client *http.Client, url, model string, body any, logger *slog.Logger) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	bs, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bs))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: build request: %v", ai.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("gemini request", "req_id", reqID, "model", model, "content_length", len(bs))

	resp, err := client.Do(req)
	if err != nil {
		logger.Error("gemini request failed",
			"req_id", reqID,
			"model", model,
			"elapsed_ms", time.Since(start).Milliseconds(),
			"err", redact(err))
		return nil, 0, fmt.Errorf("%w: %v", ai.ErrTransport, redact(err))
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Warn("failed to close response body", "req_id", reqID, "err", err)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: read response: %v", ai.ErrTransport, err)
	}

	logger.Debug("gemini response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds())

	return raw, resp.StatusCode, nil
}

// statusError classifies a non-2xx status.
func statusError(status int, body []byte) error {
	if status == http.StatusTooManyRequests {
		return ai.ErrRateLimited
	}
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return fmt.Errorf("%w: %d: %s", ai.ErrProviderStatus, status, bytes.TrimSpace(body))
}

// redact strips the request URL from transport errors, since it holds the key.
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}
