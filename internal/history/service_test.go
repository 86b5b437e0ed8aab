package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rpattn/stockhist/internal/domain"

	"go.uber.org/zap"
)

type stubRepo struct {
	saved     []domain.HistoryRecord
	saveErr   error
	page      domain.HistoryPage
	findErr   error
	lastPage  int
	lastSize  int
	lastQuery string
}

func (s *stubRepo) Save(ctx context.Context, record domain.HistoryRecord) (domain.HistoryRecord, error) {
	if s.saveErr != nil {
		return domain.HistoryRecord{}, s.saveErr
	}
	saved := record
	saved.ID = int64(len(s.saved) + 1)
	saved.CreatedAt = time.Now()
	saved.UpdatedAt = saved.CreatedAt
	for i := range saved.Items {
		saved.Items[i].ID = int64(i + 1)
		saved.Items[i].HistoryID = saved.ID
	}
	s.saved = append(s.saved, saved)
	return saved, nil
}

func (s *stubRepo) FindByMember(ctx context.Context, memberID int64, page, size int) (domain.HistoryPage, error) {
	s.lastQuery = "byMember"
	s.lastPage, s.lastSize = page, size
	return s.page, s.findErr
}

func (s *stubRepo) FindAll(ctx context.Context, page, size int) (domain.HistoryPage, error) {
	s.lastQuery = "all"
	s.lastPage, s.lastSize = page, size
	return s.page, s.findErr
}

func (s *stubRepo) FindByOrderNumber(ctx context.Context, orderNumber string, page, size int) (domain.HistoryPage, error) {
	s.lastQuery = "byOrderNumber"
	s.lastPage, s.lastSize = page, size
	return s.page, s.findErr
}

type stubCatalog struct {
	parts   map[int64]domain.Part
	calls   int
	lastIDs []int64
}

func (s *stubCatalog) PartDetails(ctx context.Context, partIDs []int64) map[int64]domain.Part {
	s.calls++
	s.lastIDs = append([]int64{}, partIDs...)
	result := map[int64]domain.Part{}
	for _, id := range partIDs {
		if part, ok := s.parts[id]; ok {
			result[id] = part
		}
	}
	return result
}

type stubIdentity struct {
	profiles map[int64]domain.MemberProfile
	calls    int
}

func (s *stubIdentity) MembersByID(ctx context.Context, memberIDs []int64) map[int64]domain.MemberProfile {
	s.calls++
	result := map[int64]domain.MemberProfile{}
	for _, id := range memberIDs {
		if profile, ok := s.profiles[id]; ok {
			result[id] = profile
		}
	}
	return result
}

func newTestService(repo *stubRepo, catalog *stubCatalog, identity *stubIdentity) *Service {
	return NewService(repo, catalog, identity, zap.NewNop())
}

func strPtr(s string) *string { return &s }
func i64Ptr(v int64) *int64   { return &v }

func samplePage() domain.HistoryPage {
	return domain.HistoryPage{
		Records: []domain.HistoryRecord{
			{
				ID:          2,
				MemberID:    7,
				OrderID:     i64Ptr(100),
				OrderNumber: strPtr("O-100"),
				Message:     "received against order",
				Status:      "RECEIVED",
				Type:        domain.MovementReceiving,
				Items: []domain.HistoryLineItem{
					{ID: 3, HistoryID: 2, PartID: 5, Quantity: 3},
					{ID: 4, HistoryID: 2, PartID: 6, Quantity: 1},
				},
			},
			{
				ID:       1,
				MemberID: 8,
				Message:  "manual release",
				Status:   "RELEASED",
				Type:     domain.MovementRelease,
				Items: []domain.HistoryLineItem{
					{ID: 1, HistoryID: 1, PartID: 5, Quantity: 2},
				},
			},
		},
		TotalElements: 2,
		TotalPages:    1,
		CurrentPage:   0,
		PageSize:      20,
		Last:          true,
	}
}

func TestRegisterCreatesRecordWithItems(t *testing.T) {
	repo := &stubRepo{}
	service := newTestService(repo, &stubCatalog{}, &stubIdentity{})

	resp, err := service.Register(context.Background(), RegisterRequest{
		MemberID:    1,
		OrderNumber: strPtr("O-100"),
		Message:     "stock received",
		Status:      "RECEIVED",
		Items: []RegisterItem{
			{PartID: 5, Quantity: 3},
		},
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if !resp.Success {
		t.Fatalf("expected success response")
	}
	if len(repo.saved) != 1 {
		t.Fatalf("expected exactly one saved record, got %d", len(repo.saved))
	}
	if len(repo.saved[0].Items) != 1 {
		t.Fatalf("expected item count to match request, got %d", len(repo.saved[0].Items))
	}
	if repo.saved[0].Type != domain.MovementReceiving {
		t.Fatalf("expected movement type to default to RECEIVING, got %s", repo.saved[0].Type)
	}
}

func TestRegisterRejectsMissingMember(t *testing.T) {
	repo := &stubRepo{}
	service := newTestService(repo, &stubCatalog{}, &stubIdentity{})

	if _, err := service.Register(context.Background(), RegisterRequest{Message: "x", Status: "RECEIVED"}); err == nil {
		t.Fatalf("expected error for missing member id")
	}
	if len(repo.saved) != 0 {
		t.Fatalf("no record should be created on validation failure")
	}
}

func TestRegisterRejectsUnknownMovementType(t *testing.T) {
	service := newTestService(&stubRepo{}, &stubCatalog{}, &stubIdentity{})

	_, err := service.Register(context.Background(), RegisterRequest{
		MemberID: 1,
		Message:  "x",
		Status:   "RECEIVED",
		Type:     domain.MovementType("TELEPORT"),
	})
	if err == nil {
		t.Fatalf("expected error for unknown movement type")
	}
}

func TestPageAndSizeAreClamped(t *testing.T) {
	cases := []struct {
		name                   string
		page, size             int
		wantPage, wantSize     int
	}{
		{"negative page", -1, 500, 0, 20},
		{"zero size", 3, 0, 3, 20},
		{"oversized", 0, 101, 0, 20},
		{"valid passthrough", 2, 50, 2, 50},
		{"upper bound kept", 0, 100, 0, 100},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &stubRepo{}
			service := newTestService(repo, &stubCatalog{}, &stubIdentity{})

			if _, err := service.All(context.Background(), tc.page, tc.size); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if repo.lastPage != tc.wantPage || repo.lastSize != tc.wantSize {
				t.Fatalf("expected repo call with page=%d size=%d, got page=%d size=%d",
					tc.wantPage, tc.wantSize, repo.lastPage, repo.lastSize)
			}
		})
	}
}

func TestByMemberEnrichesItemsWithoutMemberLookup(t *testing.T) {
	repo := &stubRepo{page: samplePage()}
	catalog := &stubCatalog{parts: map[int64]domain.Part{
		5: {ID: 5, Name: "brake pad", Code: "BP-5", Price: 120, Location: "A-3"},
	}}
	identity := &stubIdentity{}
	service := newTestService(repo, catalog, identity)

	resp, err := service.ByMember(context.Background(), 7, 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if identity.calls != 0 {
		t.Fatalf("member lookup must not run for non-admin reads, got %d calls", identity.calls)
	}
	if catalog.calls != 1 {
		t.Fatalf("expected one batched catalog call per page, got %d", catalog.calls)
	}
	if len(catalog.lastIDs) != 2 {
		t.Fatalf("expected 2 distinct part ids in the batch, got %v", catalog.lastIDs)
	}

	first := resp.Content[0]
	if first.Items[0].Name != "brake pad" || first.Items[0].HistoryQuantity != 3 {
		t.Fatalf("resolved item not merged correctly: %+v", first.Items[0])
	}
}

func TestUnresolvedPartsBecomePlaceholders(t *testing.T) {
	repo := &stubRepo{page: samplePage()}
	catalog := &stubCatalog{} // resolves nothing
	service := newTestService(repo, catalog, &stubIdentity{})

	resp, err := service.ByOrderNumber(context.Background(), "O-100", 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record := resp.Content[0]
	if len(record.Items) != 2 {
		t.Fatalf("every line item must appear even when unresolved, got %d", len(record.Items))
	}

	item := record.Items[0]
	if item.Name != "unknown part" {
		t.Fatalf("expected sentinel name, got %q", item.Name)
	}
	if item.Code != "5" {
		t.Fatalf("expected stringified part id as code, got %q", item.Code)
	}
	if item.HistoryQuantity != 3 {
		t.Fatalf("quantity must be preserved, got %d", item.HistoryQuantity)
	}
	if item.Price != 0 || item.Location != "" {
		t.Fatalf("placeholder fields should stay zero: %+v", item)
	}
}

func TestAdminReadsIncludeMemberProfiles(t *testing.T) {
	repo := &stubRepo{page: samplePage()}
	identity := &stubIdentity{profiles: map[int64]domain.MemberProfile{
		7: {MemberID: 7, Name: "North Depot"},
	}}
	service := newTestService(repo, &stubCatalog{}, identity)

	resp, err := service.All(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if identity.calls != 1 {
		t.Fatalf("expected one batched member lookup per page, got %d", identity.calls)
	}
	if resp.Content[0].MemberInfo == nil || resp.Content[0].MemberInfo.Name != "North Depot" {
		t.Fatalf("resolved member profile missing: %+v", resp.Content[0].MemberInfo)
	}
	if resp.Content[1].MemberInfo != nil {
		t.Fatalf("unresolved member must degrade to nil profile, got %+v", resp.Content[1].MemberInfo)
	}
}

func TestRecordOrderIsPreserved(t *testing.T) {
	repo := &stubRepo{page: samplePage()}
	service := newTestService(repo, &stubCatalog{}, &stubIdentity{})

	resp, err := service.All(context.Background(), 0, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content[0].ID != 2 || resp.Content[1].ID != 1 {
		t.Fatalf("store order must be preserved, got ids %d, %d", resp.Content[0].ID, resp.Content[1].ID)
	}
	if resp.TotalElements != 2 || !resp.IsLast {
		t.Fatalf("pagination metadata not carried through: %+v", resp)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	repo := &stubRepo{findErr: errors.New("connection refused")}
	service := newTestService(repo, &stubCatalog{}, &stubIdentity{})

	if _, err := service.ByMember(context.Background(), 7, 0, 20); err == nil {
		t.Fatalf("store failures must propagate to the caller")
	}
}
