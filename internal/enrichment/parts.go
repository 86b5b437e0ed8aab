package enrichment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rpattn/stockhist/internal/domain"

	"go.uber.org/zap"
)

// PartsClient looks up part details from the parts service in one batched
// call per page of history.
type PartsClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPartsClient builds a catalog lookup against the given base URL. The
// timeout bounds every outbound call; lookups past it degrade to an empty
// result.
func NewPartsClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PartsClient {
	return &PartsClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// envelope is the common response wrapper both upstream services use. Entries
// are decoded individually so one malformed element does not discard the
// batch.
type envelope struct {
	Data []json.RawMessage `json:"data"`
}

// PartDetails posts the id batch to the parts service and returns a map keyed
// by part id. Any transport or decode failure yields an empty map.
func (c *PartsClient) PartDetails(ctx context.Context, partIDs []int64) map[int64]domain.Part {
	if len(partIDs) == 0 {
		return map[int64]domain.Part{}
	}

	result, err := c.fetch(ctx, partIDs)
	return collapse(c.logger, "parts", result, err)
}

func (c *PartsClient) fetch(ctx context.Context, partIDs []int64) (map[int64]domain.Part, error) {
	body, err := json.Marshal(partIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal part ids: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/parts/detail", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build parts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("parts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("parts service returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read parts response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode parts response: %w", err)
	}

	parts := make(map[int64]domain.Part, len(env.Data))
	for _, entry := range env.Data {
		var part domain.Part
		if err := json.Unmarshal(entry, &part); err != nil {
			// Skip the one bad entry, keep the rest of the batch.
			c.logger.Warn("skipping unparseable part entry", zap.Error(err))
			continue
		}
		parts[part.ID] = part
	}

	return parts, nil
}
