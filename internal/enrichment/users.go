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

// UsersClient looks up member profiles from the user service in one batched
// call per page of history.
type UsersClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewUsersClient builds an identity lookup against the given base URL.
func NewUsersClient(baseURL string, timeout time.Duration, logger *zap.Logger) *UsersClient {
	return &UsersClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// MembersByID posts the member id batch to the user service and returns a map
// keyed by member id. Any transport or decode failure yields an empty map.
func (c *UsersClient) MembersByID(ctx context.Context, memberIDs []int64) map[int64]domain.MemberProfile {
	if len(memberIDs) == 0 {
		return map[int64]domain.MemberProfile{}
	}

	result, err := c.fetch(ctx, memberIDs)
	return collapse(c.logger, "users", result, err)
}

func (c *UsersClient) fetch(ctx context.Context, memberIDs []int64) (map[int64]domain.MemberProfile, error) {
	body, err := json.Marshal(map[string][]int64{"memberIds": memberIDs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal member ids: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/user/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build user request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user service returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to decode user response: %w", err)
	}

	profiles := make(map[int64]domain.MemberProfile, len(env.Data))
	for _, entry := range env.Data {
		var profile domain.MemberProfile
		if err := json.Unmarshal(entry, &profile); err != nil {
			c.logger.Warn("skipping unparseable user entry", zap.Error(err))
			continue
		}
		profiles[profile.MemberID] = profile
	}

	return profiles, nil
}
