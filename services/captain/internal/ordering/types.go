package ordering

import "github.com/appetiteclub/captain/pkg/enums/portion"

// AllCategoryID identifies the synthetic category that lists every item.
const (
	AllCategoryID   = "0"
	AllCategoryName = "ALL"
)

// MaxItemQuantity caps a single cart line.
const MaxItemQuantity = 20

type MenuItem struct {
	MenuID       string  `json:"menu_id"`
	Name         string  `json:"menu_name"`
	FullPrice    float64 `json:"full_price"`
	HalfPrice    float64 `json:"half_price,omitempty"`
	CategoryID   string  `json:"menu_cat_id"`
	CategoryName string  `json:"category_name"`
	FoodType     string  `json:"menu_food_type"`
	OfferPercent int     `json:"offer"`
	Image        string  `json:"image,omitempty"`
}

// HasHalf reports whether the item can be ordered as a half portion.
func (m MenuItem) HasHalf() bool {
	return m.HalfPrice > 0
}

// NeedsPortion reports whether the caller must pick a portion explicitly.
func (m MenuItem) NeedsPortion() bool {
	return m.HalfPrice > 0 && m.FullPrice > 0
}

// PriceFor returns the unit price of the given portion.
func (m MenuItem) PriceFor(p string) float64 {
	if p == portion.Portions.Half.Name {
		return m.HalfPrice
	}
	return m.FullPrice
}

type Category struct {
	CategoryID   string `json:"menu_cat_id"`
	CategoryName string `json:"category_name"`
	MenuCount    int    `json:"menu_count"`
}

// CartLine is one (menu item, portion) pair in the order being composed.
// SentQuantity is the quantity already on the kitchen ticket when the line
// was loaded from an existing order.
type CartLine struct {
	MenuID              string  `json:"menu_id"`
	Name                string  `json:"menu_name"`
	UnitPrice           float64 `json:"price"`
	Quantity            int     `json:"quantity"`
	Portion             string  `json:"portion"`
	TotalPrice          float64 `json:"total_price"`
	OfferPercent        int     `json:"offer"`
	SpecialInstructions string  `json:"special_instructions"`
	IsNewItem           bool    `json:"is_new_item"`
	SentQuantity        int     `json:"sent_quantity,omitempty"`
	HalfPrice           float64 `json:"half_price"`
	FullPrice           float64 `json:"full_price"`
	CategoryID          string  `json:"menu_cat_id"`
	CategoryName        string  `json:"category_name"`
	FoodType            string  `json:"menu_food_type"`
}

// TableContext is the server view of the table the order belongs to.
type TableContext struct {
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
	SectionID   string `json:"section_id"`
	SectionName string `json:"section_name"`
	OutletID    string `json:"outlet_id"`
	IsOccupied  bool   `json:"is_occupied"`
	OrderID     string `json:"order_id,omitempty"`
	OrderNumber string `json:"order_number,omitempty"`
	IsReserved  bool   `json:"is_reserved"`
}

// TableSummary is a switch candidate returned by the available tables call.
// isSame reports whether o names this table. The number identifies a
// candidate that carries no ID.
func (t TableContext) isSame(o TableSummary) bool {
	if o.TableID != "" && t.TableID != "" {
		return o.TableID == t.TableID
	}
	return o.TableNumber != "" && o.TableNumber == t.TableNumber
}

type TableSummary struct {
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
	SectionID   string `json:"section_id"`
	SectionName string `json:"section_name"`
	IsOccupied  bool   `json:"is_occupied"`
}

type State string

const (
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateSubmitting State = "submitting"
	StateClosed     State = "closed"
)

// Navigation tells the screen where to go after a table operation.
type Navigation string

const (
	NavigateStay      Navigation = "stay"
	NavigateTableList Navigation = "table_list"
)
