package ordering

import (
	"context"
	"sync"
	"testing"
)

// MockBackend is a Backend whose calls are answered by the *Func fields.
// Unset functions succeed with zero values.
type MockBackend struct {
	CatalogFunc         func(ctx context.Context, outletID string) (*Catalog, error)
	OrderFunc           func(ctx context.Context, orderID string) (*ExistingOrder, error)
	IsReservedFunc      func(ctx context.Context, req ReservationQuery) (bool, error)
	SetReservedFunc     func(ctx context.Context, req ReservationRequest) error
	AvailableTablesFunc func(ctx context.Context, req AvailableTablesRequest) ([]TableSummary, error)
	SwitchTableFunc     func(ctx context.Context, req SwitchRequest) error
}

func (m *MockBackend) Catalog(ctx context.Context, outletID string) (*Catalog, error) {
	if m.CatalogFunc != nil {
		return m.CatalogFunc(ctx, outletID)
	}
	return NewCatalog(nil, nil), nil
}

func (m *MockBackend) Order(ctx context.Context, orderID string) (*ExistingOrder, error) {
	if m.OrderFunc != nil {
		return m.OrderFunc(ctx, orderID)
	}
	return &ExistingOrder{OrderID: orderID}, nil
}

func (m *MockBackend) IsReserved(ctx context.Context, req ReservationQuery) (bool, error) {
	if m.IsReservedFunc != nil {
		return m.IsReservedFunc(ctx, req)
	}
	return false, nil
}

func (m *MockBackend) SetReserved(ctx context.Context, req ReservationRequest) error {
	if m.SetReservedFunc != nil {
		return m.SetReservedFunc(ctx, req)
	}
	return nil
}

func (m *MockBackend) AvailableTables(ctx context.Context, req AvailableTablesRequest) ([]TableSummary, error) {
	if m.AvailableTablesFunc != nil {
		return m.AvailableTablesFunc(ctx, req)
	}
	return nil, nil
}

func (m *MockBackend) SwitchTable(ctx context.Context, req SwitchRequest) error {
	if m.SwitchTableFunc != nil {
		return m.SwitchTableFunc(ctx, req)
	}
	return nil
}

type MockSubmitter struct {
	SubmitFunc func(ctx context.Context, payload Payload) (SubmitResult, error)
}

func (m *MockSubmitter) Submit(ctx context.Context, payload Payload) (SubmitResult, error) {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, payload)
	}
	return SubmitResult{OrderID: "new-1"}, nil
}

type MockPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   [][]byte
}

func (m *MockPublisher) Publish(_ context.Context, topic string, msg []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.topics = append(m.topics, topic)
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *MockPublisher) Published() ([]string, [][]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.topics...), append([][]byte(nil), m.msgs...)
}

func sampleCatalog() *Catalog {
	return NewCatalog(
		[]Category{
			{CategoryID: "1", CategoryName: "Snacks", MenuCount: -1},
			{CategoryID: "2", CategoryName: "Bakery", MenuCount: 5},
			{CategoryID: "3", CategoryName: "Mains", MenuCount: -1},
		},
		[]MenuItem{
			{MenuID: "10", Name: "Samosa", FullPrice: 40, CategoryID: "1", FoodType: "veg"},
			{MenuID: "11", Name: "Masala Peanuts", FullPrice: 60, CategoryID: "1", FoodType: "veg"},
			{MenuID: "20", Name: "Chips", FullPrice: 100, CategoryID: "2", FoodType: "veg"},
			{MenuID: "21", Name: "Croissant", FullPrice: 80, CategoryID: "2", FoodType: "egg"},
			{MenuID: "30", Name: "Chicken Biryani", FullPrice: 300, HalfPrice: 180, CategoryID: "3", FoodType: "non-veg", OfferPercent: 10},
			{MenuID: "31", Name: "Dal Half Only", HalfPrice: 90, CategoryID: "3", FoodType: "veg"},
		},
	)
}

func sampleTable() *TableContext {
	return &TableContext{
		TableID:     "t-5",
		TableNumber: "5",
		SectionID:   "s-1",
		SectionName: "Garden",
		OutletID:    "o-1",
	}
}

func newLoadedWorkflow(t *testing.T, backend *MockBackend, params Params, opts ...Option) *Workflow {
	t.Helper()
	if backend.CatalogFunc == nil {
		backend.CatalogFunc = func(context.Context, string) (*Catalog, error) {
			return sampleCatalog(), nil
		}
	}
	w := NewWorkflow(backend, params, opts...)
	if _, err := w.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return w
}
