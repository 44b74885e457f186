package screen

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/gateway"
	"github.com/appetiteclub/captain/services/captain/internal/ordering"
	"github.com/appetiteclub/captain/services/captain/internal/session"
)

// WorkflowFactory builds a workflow for a new order screen.
type WorkflowFactory func(params ordering.Params) *ordering.Workflow

// Handler exposes session and order screen operations as JSON over HTTP.
// Every response body is a gateway.Result.
type Handler struct {
	store       session.Store
	gate        *gateway.LoginGate
	registry    *Registry
	newWorkflow WorkflowFactory
	logger      core.Logger
}

func NewHandler(store session.Store, gate *gateway.LoginGate, registry *Registry, factory WorkflowFactory, logger core.Logger) *Handler {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Handler{
		store:       store,
		gate:        gate,
		registry:    registry,
		newWorkflow: factory,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Put("/", h.SaveSession)
		r.Delete("/", h.ClearSession)
		r.Get("/status", h.SessionStatus)
	})

	r.Route("/order-sessions", func(r chi.Router) {
		r.Post("/", h.OpenOrderSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetOrderSession)
			r.Delete("/", h.CloseOrderSession)
			r.Get("/menu", h.Menu)
			r.Get("/categories", h.Categories)
			r.Post("/cart", h.AddToCart)
			r.Post("/cart/{menuID}/increment", h.IncrementCartItem)
			r.Post("/cart/{menuID}/decrement", h.DecrementCartItem)
			r.Delete("/cart/{menuID}", h.RemoveCartItem)
			r.Put("/cart/{menuID}/instructions", h.SetInstructions)
			r.Post("/reserve", h.Reserve)
			r.Post("/unreserve", h.Unreserve)
			r.Get("/tables/available", h.AvailableTables)
			r.Post("/switch", h.SwitchTable)
			r.Get("/payload", h.Payload)
			r.Post("/submit", h.Submit)
		})
	})
}

func (h *Handler) log(r *http.Request) core.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

// Session

func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	var creds session.Credentials
	if err := decodeBody(w, r, &creds); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := session.Save(r.Context(), h.store, creds); err != nil {
		h.log(r).Error("cannot save session", "error", err)
		respondError(w, http.StatusBadRequest, "Could not save session")
		return
	}
	if h.gate != nil {
		h.gate.Rearm()
	}

	respond(w, h.status(r.Context()), nil)
}

func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := session.Clear(r.Context(), h.store); err != nil {
		h.log(r).Error("cannot clear session", "error", err)
		respondError(w, http.StatusInternalServerError, "Could not clear session")
		return
	}
	closed := h.registry.CloseAll()
	h.log(r).Info("session cleared", "closed_order_sessions", closed)

	respond(w, h.status(r.Context()), nil)
}

func (h *Handler) SessionStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, h.status(r.Context()), nil)
}

type sessionStatus struct {
	LoginRequired bool   `json:"login_required"`
	Authenticated bool   `json:"authenticated"`
	CaptainID     string `json:"captain_id,omitempty"`
	OutletID      string `json:"outlet_id,omitempty"`
}

func (h *Handler) status(ctx context.Context) sessionStatus {
	creds, _ := session.Load(ctx, h.store)
	st := sessionStatus{
		Authenticated: creds.AccessToken != "",
		CaptainID:     creds.CaptainID,
		OutletID:      creds.OutletID,
	}
	st.LoginRequired = !st.Authenticated || (h.gate != nil && h.gate.LoginRequired())
	return st
}

// Order sessions

type openRequest struct {
	OutletID string                 `json:"outlet_id"`
	OrderID  string                 `json:"order_id"`
	Table    *ordering.TableContext `json:"table"`
}

type openResponse struct {
	ID       string              `json:"id"`
	Snapshot ordering.Snapshot   `json:"snapshot"`
	Report   ordering.LoadReport `json:"report"`
}

func (h *Handler) OpenOrderSession(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)
	ctx := r.Context()

	var req openRequest
	if err := decodeBody(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	creds, err := session.Load(ctx, h.store)
	if err != nil {
		log.Error("cannot read session", "error", err)
		respond(w, openResponse{}, gateway.FetchFailed("read session", err))
		return
	}
	if creds.AccessToken == "" || (h.gate != nil && h.gate.LoginRequired()) {
		respond(w, openResponse{}, gateway.Unauthorized("Please log in to continue."))
		return
	}

	params := ordering.Params{
		OutletID:  firstNonEmpty(req.OutletID, creds.OutletID),
		UserID:    creds.UserID,
		CaptainID: creds.CaptainID,
		OrderID:   req.OrderID,
		Table:     req.Table,
	}
	if params.OutletID == "" {
		respondError(w, http.StatusBadRequest, "Outlet is required")
		return
	}

	wf := h.newWorkflow(params)
	id := h.registry.Add(wf)

	report, err := wf.Load(ctx)
	if err != nil {
		h.registry.Remove(id)
		log.Error("cannot load order session", "error", err)
		respond(w, openResponse{}, err)
		return
	}

	log.Info("order session opened", "id", id, "outlet_id", params.OutletID, "order_id", params.OrderID, "partial", report.Partial())
	respond(w, openResponse{ID: id, Snapshot: wf.Snapshot(), Report: report}, nil)
}

// workflow resolves the {id} URL parameter. It writes the 404 response
// itself when the session is unknown.
func (h *Handler) workflow(w http.ResponseWriter, r *http.Request) (string, *ordering.Workflow, bool) {
	id := chi.URLParam(r, "id")
	wf, err := h.registry.Get(id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Order session not found")
		return id, nil, false
	}
	return id, wf, true
}

// settle drops the session from the registry once its workflow closed.
func (h *Handler) settle(id string, wf *ordering.Workflow) {
	if wf.State() == ordering.StateClosed {
		h.registry.Remove(id)
	}
}

func (h *Handler) GetOrderSession(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	respond(w, wf.Snapshot(), nil)
}

func (h *Handler) CloseOrderSession(w http.ResponseWriter, r *http.Request) {
	id, _, ok := h.workflow(w, r)
	if !ok {
		return
	}
	h.registry.Remove(id)
	respond(w, struct{}{}, nil)
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	if query.Has("category") {
		if err := wf.SelectCategory(query.Get("category")); err != nil {
			respond(w, []ordering.MenuItem{}, err)
			return
		}
	}
	wf.Search(query.Get("q"))

	respond(w, wf.VisibleItems(), nil)
}

type categoriesResponse struct {
	Categories []ordering.Category `json:"categories"`
	Badges     map[string]int      `json:"badges"`
}

func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	respond(w, categoriesResponse{Categories: wf.Categories(), Badges: wf.CategoryBadges()}, nil)
}

type cartRequest struct {
	MenuID       string `json:"menu_id"`
	Portion      string `json:"portion"`
	Instructions string `json:"instructions"`
}

func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	var req cartRequest
	if err := decodeBody(w, r, &req); err != nil || strings.TrimSpace(req.MenuID) == "" {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := wf.AddToCart(req.MenuID, req.Portion)
	h.settle(id, wf)
	respond(w, wf.Snapshot(), err)
}

func (h *Handler) IncrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(wf *ordering.Workflow, menuID, p string) error {
		return wf.IncrementCartItem(menuID, p)
	})
}

func (h *Handler) DecrementCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(wf *ordering.Workflow, menuID, p string) error {
		return wf.DecrementCartItem(menuID, p)
	})
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	h.mutateLine(w, r, func(wf *ordering.Workflow, menuID, p string) error {
		return wf.RemoveCartItem(menuID, p)
	})
}

func (h *Handler) SetInstructions(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	var req cartRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := wf.SetInstructions(chi.URLParam(r, "menuID"), req.Portion, req.Instructions)
	h.settle(id, wf)
	respond(w, wf.Snapshot(), err)
}

func (h *Handler) mutateLine(w http.ResponseWriter, r *http.Request, op func(wf *ordering.Workflow, menuID, p string) error) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	err := op(wf, chi.URLParam(r, "menuID"), r.URL.Query().Get("portion"))
	h.settle(id, wf)
	respond(w, wf.Snapshot(), err)
}

type navigationResponse struct {
	Navigation ordering.Navigation `json:"navigation"`
	Snapshot   ordering.Snapshot   `json:"snapshot"`
}

func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	nav, err := wf.Reserve(r.Context())
	if err != nil {
		h.log(r).Info("reserve rejected", "id", id, "error", err)
	}
	h.settle(id, wf)
	respond(w, navigationResponse{Navigation: nav, Snapshot: wf.Snapshot()}, err)
}

func (h *Handler) Unreserve(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	nav, err := wf.Unreserve(r.Context())
	if err != nil {
		h.log(r).Info("unreserve rejected", "id", id, "error", err)
	}
	h.settle(id, wf)
	respond(w, navigationResponse{Navigation: nav, Snapshot: wf.Snapshot()}, err)
}

func (h *Handler) AvailableTables(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	tables, err := wf.ListAvailableTables(r.Context())
	h.settle(id, wf)
	respond(w, tables, err)
}

func (h *Handler) SwitchTable(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	var target ordering.TableSummary
	if err := decodeBody(w, r, &target); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	nav, err := wf.SwitchTable(r.Context(), target)
	if err != nil {
		h.log(r).Info("switch table rejected", "id", id, "error", err)
	}
	h.settle(id, wf)
	respond(w, navigationResponse{Navigation: nav, Snapshot: wf.Snapshot()}, err)
}

func (h *Handler) Payload(w http.ResponseWriter, r *http.Request) {
	_, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}
	respond(w, wf.Payload(), nil)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	id, wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	result, err := wf.Submit(r.Context())
	if err != nil {
		h.log(r).Error("cannot submit order", "id", id, "error", err)
	} else {
		h.log(r).Info("order submitted", "id", id, "order_id", result.OrderID)
	}
	h.settle(id, wf)
	respond(w, result, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
