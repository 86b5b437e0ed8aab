package enrichment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestMembersByIDResolvesBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/user/batch" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string][]int64
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		if len(body["memberIds"]) != 2 {
			t.Errorf("expected 2 member ids, got %v", body)
		}
		_, _ = w.Write([]byte(`{"data":[{"memberId":7,"name":"North Depot","role":"MEMBER"}]}`))
	}))
	defer server.Close()

	client := NewUsersClient(server.URL, time.Second, zap.NewNop())
	profiles := client.MembersByID(context.Background(), []int64{7, 8})

	if len(profiles) != 1 {
		t.Fatalf("expected 1 resolved profile, got %d", len(profiles))
	}
	if profiles[7].Name != "North Depot" {
		t.Fatalf("profile not decoded: %+v", profiles[7])
	}
}

func TestMembersByIDTransportFailureYieldsEmptyMap(t *testing.T) {
	client := NewUsersClient("http://127.0.0.1:0", 50*time.Millisecond, zap.NewNop())
	profiles := client.MembersByID(context.Background(), []int64{7})

	if profiles == nil || len(profiles) != 0 {
		t.Fatalf("transport failure must collapse to empty map, got %v", profiles)
	}
}

func TestCollapse(t *testing.T) {
	logger := zap.NewNop()

	if got := collapse(logger, "parts", map[int64]string{5: "x"}, nil); len(got) != 1 {
		t.Fatalf("successful result must pass through, got %v", got)
	}
	if got := collapse(logger, "parts", map[int64]string{5: "x"}, errors.New("boom")); len(got) != 0 {
		t.Fatalf("error must collapse to empty map, got %v", got)
	}
	if got := collapse[int64, string](logger, "parts", nil, nil); got == nil {
		t.Fatalf("nil result must become an empty map")
	}
}
