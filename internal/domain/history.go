package domain

import (
	"fmt"
	"time"
)

// MovementType distinguishes stock arriving against an order from stock
// released manually.
type MovementType string

const (
	MovementReceiving MovementType = "RECEIVING"
	MovementRelease   MovementType = "RELEASE"
)

// ParseMovementType validates a wire value against the known movement types.
func ParseMovementType(value string) (MovementType, error) {
	switch MovementType(value) {
	case MovementReceiving, MovementRelease:
		return MovementType(value), nil
	default:
		return "", fmt.Errorf("unknown movement type %q", value)
	}
}

// HistoryRecord is one logged inventory movement for a member. Records are
// append-only: once persisted they are never mutated by this service.
type HistoryRecord struct {
	ID          int64             `json:"id"`
	MemberID    int64             `json:"member_id"`
	OrderID     *int64            `json:"order_id,omitempty"`
	OrderNumber *string           `json:"order_number,omitempty"`
	Message     string            `json:"message"`
	Status      string            `json:"status"`
	Type        MovementType      `json:"type"`
	Items       []HistoryLineItem `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// HistoryLineItem is one part and moved quantity inside a record. Items are
// owned by their record and share its lifecycle.
type HistoryLineItem struct {
	ID        int64 `json:"id"`
	HistoryID int64 `json:"history_id"`
	PartID    int64 `json:"part_id"`
	Quantity  int   `json:"quantity"`
}

// HistoryPage is one page of records ordered by creation time descending,
// together with the pagination metadata the store computed.
type HistoryPage struct {
	Records       []HistoryRecord
	TotalElements int64
	TotalPages    int
	CurrentPage   int
	PageSize      int
	Last          bool
}
