package pkg

import "time"

const (
	// TableTopic delivers table changes made from captain devices.
	TableTopic = "captain.tables"

	EventTableReserved   = "table.reserved"
	EventTableUnreserved = "table.unreserved"
	EventTableSwitched   = "table.switched"
)

// TableEvent reports a reservation toggle or a table switch. For switches
// TableID is the table the order left and NewTableID the one it moved to.
type TableEvent struct {
	EventType      string    `json:"event_type"`
	EventID        string    `json:"event_id"`
	OutletID       string    `json:"outlet_id"`
	SectionID      string    `json:"section_id,omitempty"`
	TableID        string    `json:"table_id"`
	TableNumber    string    `json:"table_number"`
	NewTableID     string    `json:"new_table_id,omitempty"`
	NewTableNumber string    `json:"new_table_number,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Source         string    `json:"source,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Affects reports whether the event touches the given table.
func (e TableEvent) Affects(tableID string) bool {
	if tableID == "" {
		return false
	}
	return e.TableID == tableID || e.NewTableID == tableID
}
