package event

import "time"

const (
	OrderTopic          = "captain.orders"
	EventOrderSubmitted = "order.submitted"
)

// OrderSubmittedEvent is emitted after the backend accepted an order placed
// or updated from a captain device. KOTItems lists the units added in the
// submitting session, which is what the kitchen needs to print.
type OrderSubmittedEvent struct {
	EventType   string         `json:"event_type"`
	EventID     string         `json:"event_id"`
	OccurredAt  time.Time      `json:"occurred_at"`
	OutletID    string         `json:"outlet_id"`
	OrderID     string         `json:"order_id,omitempty"`
	TableID     string         `json:"table_id,omitempty"`
	TableNumber string         `json:"table_number,omitempty"`
	IsUpdate    bool           `json:"is_update"`
	Total       float64        `json:"total"`
	KOTItems    []OrderKOTItem `json:"kot_items"`
}

type OrderKOTItem struct {
	MenuID              string `json:"menu_id"`
	Name                string `json:"name"`
	Portion             string `json:"portion"`
	Quantity            int    `json:"quantity"`
	SpecialInstructions string `json:"special_instructions,omitempty"`
}
