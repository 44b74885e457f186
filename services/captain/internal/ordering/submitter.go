package ordering

import (
	"context"
	"fmt"

	"github.com/appetiteclub/captain/services/captain/internal/gateway"
)

const (
	pathPlaceOrder  = "/place_order"
	pathUpdateOrder = "/update_order"
)

// Submitter creates or updates the order on the backend.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (SubmitResult, error)
}

type SubmitResult struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number,omitempty"`
	Message     string `json:"message,omitempty"`
}

// APISubmitter posts the payload through the gateway.
type APISubmitter struct {
	fetcher gateway.Fetcher
}

func NewAPISubmitter(fetcher gateway.Fetcher) *APISubmitter {
	return &APISubmitter{fetcher: fetcher}
}

func (s *APISubmitter) Submit(ctx context.Context, payload Payload) (SubmitResult, error) {
	if s == nil || s.fetcher == nil {
		return SubmitResult{}, gateway.FetchFailed("api client not configured", nil)
	}

	path := pathPlaceOrder
	if payload.IsUpdate {
		path = pathUpdateOrder
	}

	var resp struct {
		OrderID     gateway.Text `json:"order_id"`
		OrderNumber gateway.Text `json:"order_number"`
	}
	r, err := gateway.Call(ctx, s.fetcher, path, payload, &resp)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("submit order: %w", err)
	}

	result := SubmitResult{
		OrderID:     resp.OrderID.String(),
		OrderNumber: resp.OrderNumber.String(),
		Message:     r.Msg,
	}
	if result.OrderID == "" {
		result.OrderID = payload.OrderID
	}
	return result, nil
}
