package gateway

import (
	"context"
	"net/http"
)

// Fetcher is what data access code needs from the gateway.
type Fetcher interface {
	FetchWithAuth(ctx context.Context, path string, opts RequestOptions) (*Response, error)
}

// Call posts payload as JSON, requires st == 1 and decodes the body into
// dest when dest is not nil.
func Call(ctx context.Context, f Fetcher, path string, payload interface{}, dest interface{}) (*Response, error) {
	if f == nil {
		return nil, FetchFailed("api client not configured", nil)
	}

	resp, err := f.FetchWithAuth(ctx, path, RequestOptions{
		Method: http.MethodPost,
		JSON:   payload,
	})
	if err != nil {
		return nil, err
	}

	if !resp.Succeeded() {
		return resp, ServerRejected(resp.Msg)
	}

	if dest != nil {
		if err := resp.Decode(dest); err != nil {
			return resp, FetchFailed("decode "+path+" response", err)
		}
	}
	return resp, nil
}
