package ordering

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/appetiteclub/captain/pkg"
	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/gateway"
)

const eventSource = "captain"

// Params identifies what a workflow is composing: a new order for a table,
// an edit of an existing order, or a takeaway order without table.
type Params struct {
	OutletID  string        `json:"outlet_id"`
	UserID    string        `json:"user_id"`
	CaptainID string        `json:"captain_id,omitempty"`
	OrderID   string        `json:"order_id,omitempty"`
	Table     *TableContext `json:"table,omitempty"`
}

// Workflow drives one order screen from loading to submission. It is safe
// for concurrent use; remote calls run without holding the lock and their
// results are dropped once the workflow is closed.
type Workflow struct {
	mu sync.Mutex

	backend            Backend
	submitter          Submitter
	publisher          event.Publisher
	logger             core.Logger
	reservationEnabled bool
	now                func() time.Time

	outletID    string
	userID      string
	captainID   string
	orderID     string
	orderNumber string
	table       *TableContext

	state       State
	loadStarted bool
	stale       bool
	catalog     *Catalog
	cart        *Cart
	existing    []CartLine
	category    string
	search      string
}

type Option func(*Workflow)

func WithSubmitter(s Submitter) Option {
	return func(w *Workflow) {
		w.submitter = s
	}
}

func WithPublisher(p event.Publisher) Option {
	return func(w *Workflow) {
		if p != nil {
			w.publisher = p
		}
	}
}

func WithLogger(l core.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReservation enables the reserve and unreserve operations.
func WithReservation(enabled bool) Option {
	return func(w *Workflow) {
		w.reservationEnabled = enabled
	}
}

func NewWorkflow(backend Backend, params Params, opts ...Option) *Workflow {
	w := &Workflow{
		backend:   backend,
		publisher: event.NoopPublisher{},
		logger:    core.NewNoopLogger(),
		now:       time.Now,
		outletID:  params.OutletID,
		userID:    params.UserID,
		captainID: params.CaptainID,
		orderID:   params.OrderID,
		state:     StateLoading,
		cart:      NewCart(nil),
		category:  AllCategoryID,
	}
	if params.Table != nil {
		t := *params.Table
		if t.OutletID == "" {
			t.OutletID = params.OutletID
		}
		if w.orderID == "" {
			w.orderID = t.OrderID
		}
		w.table = &t
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// LoadFailure describes one part of the initial load that did not arrive.
type LoadFailure struct {
	Part    string            `json:"part"`
	Kind    gateway.ErrorKind `json:"kind"`
	Message string            `json:"message"`
	err     error
}

// LoadReport lists the parts that failed. An empty report means complete
// data.
type LoadReport struct {
	Failures []LoadFailure `json:"failures,omitempty"`
}

func (r LoadReport) Partial() bool {
	return len(r.Failures) > 0
}

func (r LoadReport) Failed(part string) bool {
	for _, f := range r.Failures {
		if f.Part == part {
			return true
		}
	}
	return false
}

func (r *LoadReport) add(part string, err error) {
	r.Failures = append(r.Failures, LoadFailure{
		Part:    part,
		Kind:    gateway.KindOf(err),
		Message: gateway.MessageOf(err),
		err:     err,
	})
}

const (
	PartCatalog     = "catalog"
	PartOrder       = "order"
	PartReservation = "reservation"
)

// Load fetches the catalog, the order being edited and the reservation
// state concurrently and applies them together once all have returned.
// Failures other than Unauthorized are reported and tolerated.
func (w *Workflow) Load(ctx context.Context) (LoadReport, error) {
	w.mu.Lock()
	switch {
	case w.state == StateClosed:
		w.mu.Unlock()
		return LoadReport{}, ErrClosed
	case w.loadStarted:
		w.mu.Unlock()
		return LoadReport{}, ErrAlreadyLoaded
	}
	w.loadStarted = true
	outletID, orderID := w.outletID, w.orderID
	var query *ReservationQuery
	if w.table != nil && w.table.TableID != "" {
		query = &ReservationQuery{
			OutletID:    w.table.OutletID,
			TableID:     w.table.TableID,
			TableNumber: w.table.TableNumber,
		}
	}
	w.mu.Unlock()

	var (
		catalog  *Catalog
		order    *ExistingOrder
		reserved bool
		report   LoadReport
		reportMu sync.Mutex
	)

	record := func(part string, err error) error {
		if errors.Is(err, gateway.ErrUnauthorized) {
			return err
		}
		w.logger.Error("partial load failure", "part", part, "error", err)
		reportMu.Lock()
		report.add(part, err)
		reportMu.Unlock()
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := w.backend.Catalog(gctx, outletID)
		if err != nil {
			return record(PartCatalog, err)
		}
		catalog = c
		return nil
	})
	if orderID != "" {
		g.Go(func() error {
			o, err := w.backend.Order(gctx, orderID)
			if err != nil {
				return record(PartOrder, err)
			}
			order = o
			return nil
		})
	}
	if query != nil {
		g.Go(func() error {
			r, err := w.backend.IsReserved(gctx, *query)
			if err != nil {
				return record(PartReservation, err)
			}
			reserved = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		w.Close()
		return report, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return report, ErrClosed
	}

	w.catalog = catalog
	if order != nil {
		w.existing = order.Lines
		w.cart = NewCart(order.Lines)
		if order.OrderNumber != "" {
			w.orderNumber = order.OrderNumber
		}
	}
	if query != nil && !report.Failed(PartReservation) {
		w.table.IsReserved = reserved
	}
	w.state = StateReady

	w.logger.Debug("workflow loaded", "outlet_id", outletID, "order_id", orderID, "partial", report.Partial())
	return report, nil
}

// Close discards the workflow. Responses still in flight are ignored.
func (w *Workflow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = StateClosed
}

func (w *Workflow) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// MarkStale flags that the table changed elsewhere and the screen should
// be reloaded.
func (w *Workflow) MarkStale() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stale = true
}

// TableID returns the table the workflow is bound to, or "" for takeaway.
func (w *Workflow) TableID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.table == nil {
		return ""
	}
	return w.table.TableID
}

func (w *Workflow) readyLocked() error {
	switch w.state {
	case StateReady:
		return nil
	case StateLoading:
		return ErrNotReady
	case StateSubmitting:
		return ErrSubmitting
	default:
		return ErrClosed
	}
}

// Catalog browsing

func (w *Workflow) Categories() []Category {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.catalog.Categories()
}

func (w *Workflow) SelectCategory(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return ErrClosed
	}
	id = strings.TrimSpace(id)
	if id == "" {
		id = AllCategoryID
	}
	if !w.catalog.HasCategory(id) {
		return ErrUnknownCategory
	}
	w.category = id
	return nil
}

func (w *Workflow) Search(text string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.search = text
}

func (w *Workflow) VisibleItems() []MenuItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.catalog.Visible(w.category, w.search)
}

// CategoryBadges counts distinct dishes per category in the cart and in
// the order being edited.
func (w *Workflow) CategoryBadges() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.catalog.Badges(w.cart.Lines(), w.existing)
}

// Cart mutation

func (w *Workflow) AddToCart(menuID, p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.orderableLocked(); err != nil {
		return err
	}
	item, ok := w.catalog.Item(menuID)
	if !ok {
		if i, err := w.cart.locate(menuID, p); err == nil {
			return w.cart.increment(i)
		}
		return ErrItemNotFound
	}
	return w.cart.Add(item, p)
}

func (w *Workflow) IncrementCartItem(menuID, p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.orderableLocked(); err != nil {
		return err
	}
	return w.cart.Increment(menuID, p)
}

func (w *Workflow) DecrementCartItem(menuID, p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.readyLocked(); err != nil {
		return err
	}
	return w.cart.Decrement(menuID, p)
}

func (w *Workflow) RemoveCartItem(menuID, p string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.readyLocked(); err != nil {
		return err
	}
	return w.cart.Remove(menuID, p)
}

func (w *Workflow) SetInstructions(menuID, p, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.readyLocked(); err != nil {
		return err
	}
	return w.cart.SetInstructions(menuID, p, text)
}

func (w *Workflow) orderableLocked() error {
	if err := w.readyLocked(); err != nil {
		return err
	}
	if w.table != nil && w.table.IsReserved {
		return ErrTableReserved
	}
	return nil
}

func (w *Workflow) CartLines() []CartLine {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cart.Lines()
}

// Reservation

// Reserve marks the table reserved. On success the workflow closes and the
// screen goes back to the table list to pick up the new floor state.
func (w *Workflow) Reserve(ctx context.Context) (Navigation, error) {
	w.mu.Lock()
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return NavigateStay, err
	}
	switch {
	case !w.reservationEnabled:
		w.mu.Unlock()
		return NavigateStay, ErrReservationDisabled
	case w.table == nil || w.table.TableID == "":
		w.mu.Unlock()
		return NavigateStay, ErrNoTable
	case w.table.IsOccupied:
		w.mu.Unlock()
		return NavigateStay, ErrTableOccupied
	case w.orderID != "" || w.table.OrderID != "":
		w.mu.Unlock()
		return NavigateStay, ErrTableHasOrder
	case w.table.IsReserved:
		w.mu.Unlock()
		return NavigateStay, ErrAlreadyReserved
	}
	req := w.reservationRequestLocked(true)
	table := *w.table
	w.mu.Unlock()

	if err := w.backend.SetReserved(ctx, req); err != nil {
		return NavigateStay, w.failed(err)
	}

	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return NavigateStay, ErrClosed
	}
	w.table.IsReserved = true
	w.state = StateClosed
	w.mu.Unlock()

	w.publishTable(ctx, pkg.EventTableReserved, table, nil)
	return NavigateTableList, nil
}

// Unreserve frees the table and keeps the screen open so an order can be
// taken right away.
func (w *Workflow) Unreserve(ctx context.Context) (Navigation, error) {
	w.mu.Lock()
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return NavigateStay, err
	}
	switch {
	case !w.reservationEnabled:
		w.mu.Unlock()
		return NavigateStay, ErrReservationDisabled
	case w.table == nil || w.table.TableID == "":
		w.mu.Unlock()
		return NavigateStay, ErrNoTable
	case !w.table.IsReserved:
		w.mu.Unlock()
		return NavigateStay, ErrNotReserved
	}
	req := w.reservationRequestLocked(false)
	table := *w.table
	w.mu.Unlock()

	if err := w.backend.SetReserved(ctx, req); err != nil {
		return NavigateStay, w.failed(err)
	}

	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return NavigateStay, ErrClosed
	}
	w.table.IsReserved = false
	w.mu.Unlock()

	w.publishTable(ctx, pkg.EventTableUnreserved, table, nil)
	return NavigateStay, nil
}

// RefreshReservation reads the reservation flag from the server.
func (w *Workflow) RefreshReservation(ctx context.Context) (bool, error) {
	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return false, ErrClosed
	}
	if w.table == nil || w.table.TableID == "" {
		w.mu.Unlock()
		return false, ErrNoTable
	}
	query := ReservationQuery{
		OutletID:    w.table.OutletID,
		TableID:     w.table.TableID,
		TableNumber: w.table.TableNumber,
	}
	w.mu.Unlock()

	reserved, err := w.backend.IsReserved(ctx, query)
	if err != nil {
		return false, w.failed(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StateClosed {
		return false, ErrClosed
	}
	w.table.IsReserved = reserved
	return reserved, nil
}

func (w *Workflow) reservationRequestLocked(reserved bool) ReservationRequest {
	return ReservationRequest{
		TableID:     w.table.TableID,
		TableNumber: w.table.TableNumber,
		OutletID:    w.table.OutletID,
		IsReserved:  reserved,
		UserID:      w.userID,
	}
}

// Table switching

// ListAvailableTables returns tables of the same section the order can
// move to. The current table is never included.
func (w *Workflow) ListAvailableTables(ctx context.Context) ([]TableSummary, error) {
	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return nil, ErrClosed
	}
	if w.table == nil || w.table.TableID == "" {
		w.mu.Unlock()
		return nil, ErrNoTable
	}
	current := *w.table
	req := AvailableTablesRequest{
		OutletID:       current.OutletID,
		SectionID:      current.SectionID,
		CurrentTableID: current.TableID,
		UserID:         w.userID,
	}
	w.mu.Unlock()

	tables, err := w.backend.AvailableTables(ctx, req)
	if err != nil {
		return nil, w.failed(err)
	}

	out := make([]TableSummary, 0, len(tables))
	for _, t := range tables {
		if current.isSame(t) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// SwitchTable moves the order to another table. On success the workflow
// closes and the screen returns to the table list.
func (w *Workflow) SwitchTable(ctx context.Context, to TableSummary) (Navigation, error) {
	w.mu.Lock()
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return NavigateStay, err
	}
	if w.table == nil || w.table.TableID == "" {
		w.mu.Unlock()
		return NavigateStay, ErrNoTable
	}
	if to.TableID == "" && to.TableNumber == "" {
		w.mu.Unlock()
		return NavigateStay, ErrNoTargetTable
	}
	if w.table.isSame(to) {
		w.mu.Unlock()
		return NavigateStay, ErrSameTable
	}
	from := *w.table
	req := SwitchRequest{
		TableNumber:    from.TableNumber,
		NewTableNumber: to.TableNumber,
		SectionID:      from.SectionID,
		OutletID:       from.OutletID,
		OrderID:        w.orderID,
		UserID:         w.userID,
	}
	w.mu.Unlock()

	if err := w.backend.SwitchTable(ctx, req); err != nil {
		return NavigateStay, w.failed(err)
	}

	w.mu.Lock()
	if w.state == StateClosed {
		w.mu.Unlock()
		return NavigateStay, ErrClosed
	}
	w.state = StateClosed
	w.mu.Unlock()

	w.publishTable(ctx, pkg.EventTableSwitched, from, &to)
	return NavigateTableList, nil
}

// Submission

// Payload returns the normalized order as it would be submitted now.
func (w *Workflow) Payload() Payload {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.payloadLocked()
}

func (w *Workflow) payloadLocked() Payload {
	items := NormalizeLines(w.cart.Lines())
	p := Payload{
		OutletID:  w.outletID,
		UserID:    w.userID,
		CaptainID: w.captainID,
		OrderID:   w.orderID,
		IsUpdate:  w.orderID != "",
		Items:     items,
		Total:     payloadTotal(items),
	}
	if w.table != nil {
		p.TableID = w.table.TableID
		p.TableNumber = w.table.TableNumber
		p.SectionID = w.table.SectionID
	}
	return p
}

// Submit hands the cart to the submitter. Success closes the workflow;
// any other outcome returns it to Ready with the cart untouched.
func (w *Workflow) Submit(ctx context.Context) (SubmitResult, error) {
	w.mu.Lock()
	if err := w.readyLocked(); err != nil {
		w.mu.Unlock()
		return SubmitResult{}, err
	}
	if w.cart.Len() == 0 {
		w.mu.Unlock()
		return SubmitResult{}, ErrEmptyCart
	}
	if w.submitter == nil {
		w.mu.Unlock()
		return SubmitResult{}, gateway.FetchFailed("order submitter not configured", nil)
	}
	payload := w.payloadLocked()
	w.state = StateSubmitting
	w.mu.Unlock()

	result, err := w.submitter.Submit(ctx, payload)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			w.Close()
			return SubmitResult{}, err
		}
		w.mu.Lock()
		if w.state == StateSubmitting {
			w.state = StateReady
		}
		w.mu.Unlock()
		return SubmitResult{}, err
	}

	w.mu.Lock()
	w.state = StateClosed
	w.mu.Unlock()

	w.publishSubmitted(ctx, payload, result)
	return result, nil
}

// failed closes the workflow when the session is gone and passes err on.
func (w *Workflow) failed(err error) error {
	if errors.Is(err, gateway.ErrUnauthorized) {
		w.Close()
	}
	return err
}

// Snapshot is the screen view of a workflow.
type Snapshot struct {
	State              State         `json:"state"`
	Stale              bool          `json:"stale"`
	OutletID           string        `json:"outlet_id"`
	OrderID            string        `json:"order_id,omitempty"`
	OrderNumber        string        `json:"order_number,omitempty"`
	Table              *TableContext `json:"table,omitempty"`
	ReservationEnabled bool          `json:"reservation_enabled"`
	Category           string        `json:"category"`
	Search             string        `json:"search,omitempty"`
	Cart               []CartLine    `json:"cart"`
	Total              float64       `json:"total"`
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{
		State:              w.state,
		Stale:              w.stale,
		OutletID:           w.outletID,
		OrderID:            w.orderID,
		OrderNumber:        w.orderNumber,
		ReservationEnabled: w.reservationEnabled,
		Category:           w.category,
		Search:             w.search,
		Cart:               w.cart.Lines(),
		Total:              w.cart.Total(),
	}
	if w.table != nil {
		t := *w.table
		s.Table = &t
	}
	return s
}

func (w *Workflow) publishTable(ctx context.Context, eventType string, from TableContext, to *TableSummary) {
	evt := pkg.TableEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		OutletID:    from.OutletID,
		SectionID:   from.SectionID,
		TableID:     from.TableID,
		TableNumber: from.TableNumber,
		OrderID:     w.orderID,
		UserID:      w.userID,
		Source:      eventSource,
		OccurredAt:  w.now().UTC(),
	}
	if to != nil {
		evt.NewTableID = to.TableID
		evt.NewTableNumber = to.TableNumber
	}
	w.publish(ctx, pkg.TableTopic, evt)
}

func (w *Workflow) publishSubmitted(ctx context.Context, payload Payload, result SubmitResult) {
	kot := make([]event.OrderKOTItem, 0, len(payload.Items))
	for _, line := range payload.KOTLines() {
		kot = append(kot, event.OrderKOTItem{
			MenuID:              line.MenuID,
			Name:                line.Name,
			Portion:             line.Portion,
			Quantity:            line.Quantity,
			SpecialInstructions: line.SpecialInstructions,
		})
	}

	orderID := result.OrderID
	if orderID == "" {
		orderID = payload.OrderID
	}
	w.publish(ctx, event.OrderTopic, event.OrderSubmittedEvent{
		EventType:   event.EventOrderSubmitted,
		EventID:     uuid.NewString(),
		OccurredAt:  w.now().UTC(),
		OutletID:    payload.OutletID,
		OrderID:     orderID,
		TableID:     payload.TableID,
		TableNumber: payload.TableNumber,
		IsUpdate:    payload.IsUpdate,
		Total:       payload.Total,
		KOTItems:    kot,
	})
}

func (w *Workflow) publish(ctx context.Context, topic string, evt interface{}) {
	data, err := json.Marshal(evt)
	if err != nil {
		w.logger.Error("cannot encode event", "topic", topic, "error", err)
		return
	}
	if err := w.publisher.Publish(ctx, topic, data); err != nil {
		w.logger.Error("cannot publish event", "topic", topic, "error", err)
	}
}
