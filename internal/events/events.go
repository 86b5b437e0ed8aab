package events

import "strconv"

// HistoryItem is one part and quantity on an inbound history request.
type HistoryItem struct {
	PartID   int64 `json:"partId"`
	Quantity int   `json:"quantity"`
}

// HistoryRequestedEvent is the inbound message emitted by the order approval
// flow when a movement should be recorded. OrderID and OrderNumber are absent
// for manual release flows.
type HistoryRequestedEvent struct {
	OrderID           *int64        `json:"orderId,omitempty"`
	OrderNumber       *string       `json:"orderNumber,omitempty"`
	MemberID          int64         `json:"memberId"`
	Message           string        `json:"message"`
	Status            string        `json:"status"`
	Type              string        `json:"type,omitempty"`
	ApprovalAttemptID string        `json:"approvalAttemptId,omitempty"`
	Items             []HistoryItem `json:"items,omitempty"`
}

// HistorySuccessEvent reports a durably persisted history record back to the
// originating flow.
type HistorySuccessEvent struct {
	OrderID           *int64  `json:"orderId"`
	OrderNumber       *string `json:"orderNumber"`
	ApprovalAttemptID string  `json:"approvalAttemptId"`
	Message           string  `json:"message"`
}

// HistoryFailedEvent reports a failed persist so the originating flow can
// compensate.
type HistoryFailedEvent struct {
	OrderID           *int64  `json:"orderId"`
	OrderNumber       *string `json:"orderNumber"`
	ApprovalAttemptID string  `json:"approvalAttemptId"`
	ErrorMessage      string  `json:"errorMessage"`
	Data              any     `json:"data,omitempty"`
}

// OrderKey renders the partition key for outcome events. Events for the same
// order share a key so they stay ordered relative to each other.
func OrderKey(orderID *int64) []byte {
	if orderID == nil {
		return nil
	}
	return []byte(strconv.FormatInt(*orderID, 10))
}
