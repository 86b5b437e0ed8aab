package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rpattn/stockhist/internal/domain"
	"github.com/rpattn/stockhist/internal/enrichment"
	"github.com/rpattn/stockhist/internal/middleware"
	"github.com/rpattn/stockhist/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// unknownPartName marks line items whose part id the catalog did not
	// resolve. The item is still returned with its quantity.
	unknownPartName = "unknown part"
)

// RegisterItem is one part/quantity pair on a registration request.
type RegisterItem struct {
	PartID   int64 `json:"partId"`
	Quantity int   `json:"quantity"`
}

// RegisterRequest carries everything needed to persist one history record.
type RegisterRequest struct {
	MemberID    int64               `json:"memberId"`
	OrderID     *int64              `json:"orderId,omitempty"`
	OrderNumber *string             `json:"orderNumber,omitempty"`
	Message     string              `json:"message"`
	Status      string              `json:"status"`
	Type        domain.MovementType `json:"type,omitempty"`
	Items       []RegisterItem      `json:"items,omitempty"`
}

// RegisterResponse reports the persisted record back to the caller.
type RegisterResponse struct {
	ID          int64   `json:"id"`
	MemberID    int64   `json:"memberId"`
	OrderNumber *string `json:"orderNumber"`
	Message     string  `json:"message"`
	Status      string  `json:"status"`
	Success     bool    `json:"success"`
}

// ItemView is one line item merged with the catalog attributes the parts
// service resolved for it.
type ItemView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Price           int    `json:"price"`
	Image           string `json:"image"`
	Trim            string `json:"trim"`
	Model           string `json:"model"`
	Category        int    `json:"category"`
	KorName         string `json:"korName"`
	EngName         string `json:"engName"`
	CategoryName    string `json:"categoryName"`
	Amount          int    `json:"amount"`
	Code            string `json:"code"`
	Location        string `json:"location"`
	Cost            int    `json:"cost"`
	HistoryQuantity int    `json:"historyQuantity"`
}

// RecordView is one enriched history record as served to clients. It is
// computed per query and never persisted.
type RecordView struct {
	ID          int64                 `json:"id"`
	MemberID    int64                 `json:"memberId"`
	OrderID     *int64                `json:"orderId,omitempty"`
	OrderNumber *string               `json:"orderNumber,omitempty"`
	Message     string                `json:"message"`
	Status      string                `json:"status"`
	Type        domain.MovementType   `json:"type"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	MemberInfo  *domain.MemberProfile `json:"memberInfo,omitempty"`
	Items       []ItemView            `json:"items"`
}

// ListResponse is one page of enriched history.
type ListResponse struct {
	TotalElements int64        `json:"totalElements"`
	TotalPages    int          `json:"totalPages"`
	CurrentPage   int          `json:"currentPage"`
	PageSize      int          `json:"pageSize"`
	IsLast        bool         `json:"isLast"`
	Content       []RecordView `json:"content"`
}

// Service registers history records and serves enriched, paginated views of
// them. Enrichment is best effort: store failures propagate, lookup failures
// degrade to placeholders.
type Service struct {
	repo     repository.HistoryRepository
	catalog  enrichment.CatalogLookup
	identity enrichment.IdentityLookup
	logger   *zap.Logger
}

// NewService creates a new history service.
func NewService(
	repo repository.HistoryRepository,
	catalog enrichment.CatalogLookup,
	identity enrichment.IdentityLookup,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:     repo,
		catalog:  catalog,
		identity: identity,
		logger:   logger,
	}
}

// Register persists a new history record with its line items.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (RegisterResponse, error) {
	if req.MemberID <= 0 {
		return RegisterResponse{}, fmt.Errorf("memberId is required")
	}

	movement := req.Type
	if movement == "" {
		movement = domain.MovementReceiving
	}
	if _, err := domain.ParseMovementType(string(movement)); err != nil {
		return RegisterResponse{}, err
	}

	record := domain.HistoryRecord{
		MemberID:    req.MemberID,
		OrderID:     req.OrderID,
		OrderNumber: req.OrderNumber,
		Message:     req.Message,
		Status:      req.Status,
		Type:        movement,
	}
	for _, item := range req.Items {
		record.Items = append(record.Items, domain.HistoryLineItem{
			PartID:   item.PartID,
			Quantity: item.Quantity,
		})
	}

	saved, err := s.repo.Save(ctx, record)
	if err != nil {
		return RegisterResponse{}, fmt.Errorf("failed to register history: %w", err)
	}

	s.logger.Info("history record registered",
		zap.Int64("history_id", saved.ID),
		zap.Int64("member_id", saved.MemberID),
		zap.Int("item_count", len(saved.Items)),
	)

	return RegisterResponse{
		ID:          saved.ID,
		MemberID:    saved.MemberID,
		OrderNumber: saved.OrderNumber,
		Message:     saved.Message,
		Status:      saved.Status,
		Success:     true,
	}, nil
}

// ByMember returns the member's own history, enriched with part details only.
func (s *Service) ByMember(ctx context.Context, memberID int64, page, size int) (ListResponse, error) {
	page, size = clampPage(page), clampSize(size)
	stored, err := s.repo.FindByMember(ctx, memberID, page, size)
	if err != nil {
		return ListResponse{}, fmt.Errorf("failed to load member history: %w", err)
	}
	return s.buildResponse(ctx, stored, false), nil
}

// All returns every member's history for administrators, including member
// profiles.
func (s *Service) All(ctx context.Context, page, size int) (ListResponse, error) {
	page, size = clampPage(page), clampSize(size)
	stored, err := s.repo.FindAll(ctx, page, size)
	if err != nil {
		return ListResponse{}, fmt.Errorf("failed to load history: %w", err)
	}
	return s.buildResponse(ctx, stored, true), nil
}

// ByMemberForAdmin returns one member's history for administrators, including
// the member profile.
func (s *Service) ByMemberForAdmin(ctx context.Context, memberID int64, page, size int) (ListResponse, error) {
	page, size = clampPage(page), clampSize(size)
	stored, err := s.repo.FindByMember(ctx, memberID, page, size)
	if err != nil {
		return ListResponse{}, fmt.Errorf("failed to load member history: %w", err)
	}
	return s.buildResponse(ctx, stored, true), nil
}

// ByOrderNumber returns the history recorded against one order.
func (s *Service) ByOrderNumber(ctx context.Context, orderNumber string, page, size int) (ListResponse, error) {
	page, size = clampPage(page), clampSize(size)
	stored, err := s.repo.FindByOrderNumber(ctx, orderNumber, page, size)
	if err != nil {
		return ListResponse{}, fmt.Errorf("failed to load order history: %w", err)
	}
	return s.buildResponse(ctx, stored, false), nil
}

func clampPage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

func clampSize(size int) int {
	if size <= 0 || size > maxPageSize {
		return defaultPageSize
	}
	return size
}

// buildResponse merges one stored page with enrichment data. Both lookups are
// issued once per page over the distinct ids the page references.
func (s *Service) buildResponse(ctx context.Context, stored domain.HistoryPage, withMembers bool) ListResponse {
	partIDs := distinctPartIDs(stored.Records)
	parts := s.resolveParts(ctx, partIDs)

	var profiles map[int64]domain.MemberProfile
	if withMembers {
		memberIDs := distinctMemberIDs(stored.Records)
		profiles = s.identity.MembersByID(ctx, memberIDs)
	}

	content := make([]RecordView, 0, len(stored.Records))
	for _, record := range stored.Records {
		view := RecordView{
			ID:          record.ID,
			MemberID:    record.MemberID,
			OrderID:     record.OrderID,
			OrderNumber: record.OrderNumber,
			Message:     record.Message,
			Status:      record.Status,
			Type:        record.Type,
			CreatedAt:   record.CreatedAt,
			UpdatedAt:   record.UpdatedAt,
			Items:       make([]ItemView, 0, len(record.Items)),
		}

		if withMembers {
			if profile, ok := profiles[record.MemberID]; ok {
				p := profile
				view.MemberInfo = &p
			}
		}

		for _, item := range record.Items {
			view.Items = append(view.Items, buildItemView(item, parts))
		}

		content = append(content, view)
	}

	return ListResponse{
		TotalElements: stored.TotalElements,
		TotalPages:    stored.TotalPages,
		CurrentPage:   stored.CurrentPage,
		PageSize:      stored.PageSize,
		IsLast:        stored.Last,
		Content:       content,
	}
}

// resolveParts prefers the per-request part loader when the middleware
// attached one, so concurrent resolutions inside one request share a batch.
func (s *Service) resolveParts(ctx context.Context, partIDs []int64) map[int64]domain.Part {
	if len(partIDs) == 0 {
		return map[int64]domain.Part{}
	}
	if loader := middleware.PartLoaderFromContext(ctx); loader != nil {
		return loader.Parts(ctx, partIDs)
	}
	return s.catalog.PartDetails(ctx, partIDs)
}

// buildItemView merges one line item with its catalog attributes, or falls
// back to a placeholder that still carries the moved quantity.
func buildItemView(item domain.HistoryLineItem, parts map[int64]domain.Part) ItemView {
	part, ok := parts[item.PartID]
	if !ok {
		return ItemView{
			ID:              item.PartID,
			Name:            unknownPartName,
			Code:            strconv.FormatInt(item.PartID, 10),
			HistoryQuantity: item.Quantity,
		}
	}

	return ItemView{
		ID:              item.PartID,
		Name:            part.Name,
		Price:           part.Price,
		Image:           part.Image,
		Trim:            part.Trim,
		Model:           part.Model,
		Category:        part.Category,
		KorName:         part.KorName,
		EngName:         part.EngName,
		CategoryName:    part.CategoryName,
		Amount:          part.Amount,
		Code:            part.Code,
		Location:        part.Location,
		Cost:            part.Cost,
		HistoryQuantity: item.Quantity,
	}
}

func distinctPartIDs(records []domain.HistoryRecord) []int64 {
	seen := map[int64]struct{}{}
	ids := []int64{}
	for _, record := range records {
		for _, item := range record.Items {
			if _, ok := seen[item.PartID]; ok {
				continue
			}
			seen[item.PartID] = struct{}{}
			ids = append(ids, item.PartID)
		}
	}
	return ids
}

func distinctMemberIDs(records []domain.HistoryRecord) []int64 {
	seen := map[int64]struct{}{}
	ids := []int64{}
	for _, record := range records {
		if _, ok := seen[record.MemberID]; ok {
			continue
		}
		seen[record.MemberID] = struct{}{}
		ids = append(ids, record.MemberID)
	}
	return ids
}
