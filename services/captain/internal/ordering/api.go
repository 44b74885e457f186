package ordering

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/appetiteclub/captain/pkg/enums/foodtype"
	"github.com/appetiteclub/captain/pkg/enums/portion"
	"github.com/appetiteclub/captain/services/captain/internal/gateway"
)

const (
	pathCatalog         = "/get_all_menu_list_by_category"
	pathOrderView       = "/order_view"
	pathCheckReserved   = "/check_table_is_reserved"
	pathSetReserved     = "/table_is_reserved"
	pathAvailableTables = "/get_available_tables"
	pathSwitchTable     = "/update_table"
)

// Backend is the set of remote calls the workflow makes.
type Backend interface {
	Catalog(ctx context.Context, outletID string) (*Catalog, error)
	Order(ctx context.Context, orderID string) (*ExistingOrder, error)
	IsReserved(ctx context.Context, req ReservationQuery) (bool, error)
	SetReserved(ctx context.Context, req ReservationRequest) error
	AvailableTables(ctx context.Context, req AvailableTablesRequest) ([]TableSummary, error)
	SwitchTable(ctx context.Context, req SwitchRequest) error
}

// ExistingOrder is an order being edited, as returned by order_view.
type ExistingOrder struct {
	OrderID     string
	OrderNumber string
	Lines       []CartLine
}

type ReservationQuery struct {
	OutletID    string `json:"outlet_id"`
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
}

type ReservationRequest struct {
	TableID     string `json:"table_id"`
	TableNumber string `json:"table_number"`
	OutletID    string `json:"outlet_id"`
	IsReserved  bool   `json:"is_reserved"`
	UserID      string `json:"user_id"`
}

type AvailableTablesRequest struct {
	OutletID       string `json:"outlet_id"`
	SectionID      string `json:"section_id"`
	CurrentTableID string `json:"current_table_id"`
	UserID         string `json:"user_id"`
}

type SwitchRequest struct {
	TableNumber    string `json:"table_number"`
	NewTableNumber string `json:"new_table_number"`
	SectionID      string `json:"section_id"`
	OutletID       string `json:"outlet_id"`
	OrderID        string `json:"order_id"`
	UserID         string `json:"user_id"`
}

// API implements Backend over the authenticated gateway.
type API struct {
	fetcher gateway.Fetcher
}

func NewAPI(fetcher gateway.Fetcher) *API {
	return &API{fetcher: fetcher}
}

type categoryResource struct {
	ID        gateway.Text    `json:"menu_cat_id"`
	Name      gateway.Text    `json:"category_name"`
	MenuCount *gateway.Number `json:"menu_count"`
}

type menuResource struct {
	ID           gateway.Text   `json:"menu_id"`
	Name         gateway.Text   `json:"menu_name"`
	FullPrice    gateway.Number `json:"full_price"`
	HalfPrice    gateway.Number `json:"half_price"`
	CategoryID   gateway.Text   `json:"menu_cat_id"`
	CategoryName gateway.Text   `json:"category_name"`
	FoodType     gateway.Text   `json:"menu_food_type"`
	Offer        gateway.Number `json:"offer"`
	Image        gateway.Text   `json:"image"`
}

type catalogResponse struct {
	Data struct {
		Category []categoryResource `json:"category"`
		Menus    []menuResource     `json:"menus"`
	} `json:"data"`
}

func (a *API) Catalog(ctx context.Context, outletID string) (*Catalog, error) {
	if a == nil || a.fetcher == nil {
		return nil, gateway.FetchFailed("api client not configured", nil)
	}

	var resp catalogResponse
	if _, err := gateway.Call(ctx, a.fetcher, pathCatalog, map[string]string{"outlet_id": outletID}, &resp); err != nil {
		return nil, fmt.Errorf("load menu data: %w", err)
	}

	categories := make([]Category, 0, len(resp.Data.Category))
	for _, r := range resp.Data.Category {
		count := -1
		if r.MenuCount != nil {
			count = r.MenuCount.Int()
		}
		categories = append(categories, Category{
			CategoryID:   r.ID.String(),
			CategoryName: r.Name.String(),
			MenuCount:    count,
		})
	}

	items := make([]MenuItem, 0, len(resp.Data.Menus))
	for _, r := range resp.Data.Menus {
		items = append(items, MenuItem{
			MenuID:       r.ID.String(),
			Name:         r.Name.String(),
			FullPrice:    price(r.FullPrice),
			HalfPrice:    price(r.HalfPrice),
			CategoryID:   r.CategoryID.String(),
			CategoryName: r.CategoryName.String(),
			FoodType:     foodtype.Parse(r.FoodType.String()).Name,
			OfferPercent: offer(r.Offer),
			Image:        r.Image.String(),
		})
	}

	return NewCatalog(categories, items), nil
}

type orderLineResource struct {
	MenuID       gateway.Text   `json:"menu_id"`
	Name         gateway.Text   `json:"menu_name"`
	Price        gateway.Number `json:"price"`
	Quantity     gateway.Number `json:"quantity"`
	Portion      gateway.Text   `json:"portion"`
	Offer        gateway.Number `json:"offer"`
	Instructions gateway.Text   `json:"special_instructions"`
	HalfPrice    gateway.Number `json:"half_price"`
	FullPrice    gateway.Number `json:"full_price"`
	CategoryID   gateway.Text   `json:"menu_cat_id"`
	CategoryName gateway.Text   `json:"category_name"`
	FoodType     gateway.Text   `json:"menu_food_type"`
}

type orderDetailsResource struct {
	OrderID     gateway.Text `json:"order_id"`
	OrderNumber gateway.Text `json:"order_number"`
}

type orderViewResponse struct {
	Lists struct {
		OrderDetails json.RawMessage     `json:"order_details"`
		MenuDetails  []orderLineResource `json:"menu_details"`
	} `json:"lists"`
}

// Order loads the lines of an existing order. They enter the cart as
// already sent to the kitchen.
func (a *API) Order(ctx context.Context, orderID string) (*ExistingOrder, error) {
	if a == nil || a.fetcher == nil {
		return nil, gateway.FetchFailed("api client not configured", nil)
	}

	var resp orderViewResponse
	if _, err := gateway.Call(ctx, a.fetcher, pathOrderView, map[string]string{"order_id": orderID}, &resp); err != nil {
		return nil, fmt.Errorf("load order %s: %w", orderID, err)
	}

	order := &ExistingOrder{OrderID: orderID}
	if details, ok := decodeOrderDetails(resp.Lists.OrderDetails); ok {
		order.OrderNumber = details.OrderNumber.String()
		if id := details.OrderID.String(); id != "" {
			order.OrderID = id
		}
	}

	for _, r := range resp.Lists.MenuDetails {
		qty := r.Quantity.Int()
		if r.MenuID.String() == "" || qty <= 0 {
			continue
		}
		p := portion.Normalize(r.Portion.String())
		full, half := price(r.FullPrice), price(r.HalfPrice)
		unit := price(r.Price)
		if unit == 0 {
			unit = MenuItem{FullPrice: full, HalfPrice: half}.PriceFor(p)
		}
		order.Lines = append(order.Lines, CartLine{
			MenuID:              r.MenuID.String(),
			Name:                r.Name.String(),
			UnitPrice:           unit,
			Quantity:            qty,
			Portion:             p,
			TotalPrice:          unit * float64(qty),
			OfferPercent:        offer(r.Offer),
			SpecialInstructions: r.Instructions.String(),
			IsNewItem:           false,
			HalfPrice:           half,
			FullPrice:           full,
			CategoryID:          r.CategoryID.String(),
			CategoryName:        r.CategoryName.String(),
			FoodType:            foodtype.Parse(r.FoodType.String()).Name,
		})
	}
	return order, nil
}

// decodeOrderDetails accepts the details as an object or as a one element
// list; the backend sends both.
func decodeOrderDetails(raw json.RawMessage) (orderDetailsResource, bool) {
	var one orderDetailsResource
	if len(raw) == 0 {
		return one, false
	}
	if err := json.Unmarshal(raw, &one); err == nil {
		return one, true
	}
	var many []orderDetailsResource
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0], true
	}
	return one, false
}

func (a *API) IsReserved(ctx context.Context, req ReservationQuery) (bool, error) {
	if a == nil || a.fetcher == nil {
		return false, gateway.FetchFailed("api client not configured", nil)
	}

	var resp struct {
		IsReserved gateway.Number `json:"is_reserved"`
	}
	if _, err := gateway.Call(ctx, a.fetcher, pathCheckReserved, req, &resp); err != nil {
		return false, fmt.Errorf("check reservation: %w", err)
	}
	return resp.IsReserved.Int() == 1, nil
}

func (a *API) SetReserved(ctx context.Context, req ReservationRequest) error {
	if a == nil || a.fetcher == nil {
		return gateway.FetchFailed("api client not configured", nil)
	}

	if _, err := gateway.Call(ctx, a.fetcher, pathSetReserved, req, nil); err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	return nil
}

type tableResource struct {
	TableID     gateway.Text   `json:"table_id"`
	TableNumber gateway.Text   `json:"table_number"`
	SectionID   gateway.Text   `json:"section_id"`
	SectionName gateway.Text   `json:"section_name"`
	IsOccupied  gateway.Number `json:"is_occupied"`
}

func (a *API) AvailableTables(ctx context.Context, req AvailableTablesRequest) ([]TableSummary, error) {
	if a == nil || a.fetcher == nil {
		return nil, gateway.FetchFailed("api client not configured", nil)
	}

	var resp struct {
		Tables []tableResource `json:"tables"`
	}
	if _, err := gateway.Call(ctx, a.fetcher, pathAvailableTables, req, &resp); err != nil {
		return nil, fmt.Errorf("list available tables: %w", err)
	}

	tables := make([]TableSummary, 0, len(resp.Tables))
	for _, r := range resp.Tables {
		tables = append(tables, TableSummary{
			TableID:     r.TableID.String(),
			TableNumber: r.TableNumber.String(),
			SectionID:   r.SectionID.String(),
			SectionName: r.SectionName.String(),
			IsOccupied:  r.IsOccupied.Int() == 1,
		})
	}
	return tables, nil
}

func (a *API) SwitchTable(ctx context.Context, req SwitchRequest) error {
	if a == nil || a.fetcher == nil {
		return gateway.FetchFailed("api client not configured", nil)
	}

	if _, err := gateway.Call(ctx, a.fetcher, pathSwitchTable, req, nil); err != nil {
		return fmt.Errorf("switch table: %w", err)
	}
	return nil
}

func price(n gateway.Number) float64 {
	f := n.Float()
	if f < 0 || math.IsNaN(f) {
		return 0
	}
	return f
}

func offer(n gateway.Number) int {
	f := n.Float()
	if math.IsNaN(f) {
		return 0
	}
	return int(math.Round(math.Min(math.Max(f, 0), 100)))
}
