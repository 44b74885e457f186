package screen

import (
	"context"

	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/services/captain/internal/ordering"
)

type MockBackend struct {
	CatalogFunc     func(ctx context.Context, outletID string) (*ordering.Catalog, error)
	IsReservedFunc  func(ctx context.Context, req ordering.ReservationQuery) (bool, error)
	SetReservedFunc func(ctx context.Context, req ordering.ReservationRequest) error
	SwitchTableFunc func(ctx context.Context, req ordering.SwitchRequest) error
}

func (m *MockBackend) Catalog(ctx context.Context, outletID string) (*ordering.Catalog, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc(ctx, outletID)
	}
	return ordering.NewCatalog(
		[]ordering.Category{{CategoryID: "1", CategoryName: "Snacks", MenuCount: -1}},
		[]ordering.MenuItem{
			{MenuID: "10", Name: "Samosa", FullPrice: 40, CategoryID: "1"},
			{MenuID: "30", Name: "Biryani", FullPrice: 300, HalfPrice: 180, CategoryID: "1"},
		},
	), nil
}

func (m *MockBackend) Order(ctx context.Context, orderID string) (*ordering.ExistingOrder, error) {
	return &ordering.ExistingOrder{OrderID: orderID}, nil
}

func (m *MockBackend) IsReserved(ctx context.Context, req ordering.ReservationQuery) (bool, error) {
	if m.IsReservedFunc != nil {
		return m.IsReservedFunc(ctx, req)
	}
	return false, nil
}

func (m *MockBackend) SetReserved(ctx context.Context, req ordering.ReservationRequest) error {
	if m.SetReservedFunc != nil {
		return m.SetReservedFunc(ctx, req)
	}
	return nil
}

func (m *MockBackend) AvailableTables(ctx context.Context, req ordering.AvailableTablesRequest) ([]ordering.TableSummary, error) {
	return []ordering.TableSummary{
		{TableID: req.CurrentTableID, TableNumber: "5"},
		{TableID: "t-6", TableNumber: "6"},
	}, nil
}

func (m *MockBackend) SwitchTable(ctx context.Context, req ordering.SwitchRequest) error {
	if m.SwitchTableFunc != nil {
		return m.SwitchTableFunc(ctx, req)
	}
	return nil
}

type MockSubscriber struct {
	SubscribeFunc func(ctx context.Context, topic string, handler event.HandlerFunc) error
}

func (m *MockSubscriber) Subscribe(ctx context.Context, topic string, handler event.HandlerFunc) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(ctx, topic, handler)
	}
	return nil
}
