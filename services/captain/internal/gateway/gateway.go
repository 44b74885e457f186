package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/session"
)

const (
	DefaultDeviceHeader = "X-Device-Token"
	deviceTokenField    = "device_token"
	defaultTimeout      = 15 * time.Second
)

// embeddedStatusKeys are the body fields some endpoints use to report an
// expired session while answering HTTP 200.
var embeddedStatusKeys = []string{"status", "status_code"}

// Gateway is the single exit point for backend calls. It injects the stored
// credentials and turns any sign of an expired session into a logout.
type Gateway struct {
	baseURL      string
	client       *http.Client
	store        session.Store
	navigator    Navigator
	deviceHeader string
	publisher    event.Publisher
	logger       core.Logger
}

type Option func(*Gateway)

func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		if client != nil {
			g.client = client
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithDeviceHeader(name string) Option {
	return func(g *Gateway) {
		if strings.TrimSpace(name) != "" {
			g.deviceHeader = strings.TrimSpace(name)
		}
	}
}

// WithPublisher makes the gateway announce session invalidations.
func WithPublisher(publisher event.Publisher) Option {
	return func(g *Gateway) {
		if publisher != nil {
			g.publisher = publisher
		}
	}
}

func New(baseURL string, store session.Store, navigator Navigator, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: defaultTimeout},
		store:        store,
		navigator:    navigator,
		deviceHeader: DefaultDeviceHeader,
		publisher:    event.NoopPublisher{},
		logger:       core.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// NewFromConfig reads api.base_url (required), api.timeout and
// api.device_header.
func NewFromConfig(config *core.Config, store session.Store, navigator Navigator, logger core.Logger, opts ...Option) (*Gateway, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}

	baseURL, _ := config.GetString("api.base_url")
	if baseURL == "" {
		return nil, fmt.Errorf("api.base_url not configured")
	}

	timeout, ok := config.GetDuration("api.timeout")
	if !ok || timeout <= 0 {
		timeout = defaultTimeout
	}
	header, _ := config.GetString("api.device_header")

	base := []Option{
		WithHTTPClient(&http.Client{Timeout: timeout}),
		WithLogger(logger),
		WithDeviceHeader(header),
	}
	return New(baseURL, store, navigator, append(base, opts...)...), nil
}

// RequestOptions describes one backend call. At most one of JSON, RawBody
// and Multipart is used, in that order.
type RequestOptions struct {
	Method    string
	Header    http.Header
	JSON      interface{}
	RawBody   []byte
	Multipart *Multipart
}

// Multipart is a form-data body, typically carrying an image upload.
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

type FilePart struct {
	Field    string
	FileName string
	Data     []byte
}

func (o RequestOptions) method() string {
	if o.Method != "" {
		return strings.ToUpper(o.Method)
	}
	if o.JSON != nil || o.RawBody != nil || o.Multipart != nil {
		return http.MethodPost
	}
	return http.MethodGet
}

// Response is a parsed backend answer. St and Msg mirror the envelope fields
// every endpoint returns; Body keeps the full document for decoding.
type Response struct {
	HTTPStatus int
	Body       json.RawMessage
	St         int
	Msg        string
}

func (r *Response) Succeeded() bool {
	return r != nil && r.St == 1
}

func (r *Response) Decode(dest interface{}) error {
	if r == nil {
		return fmt.Errorf("nil response")
	}
	return json.Unmarshal(r.Body, dest)
}

type envelope struct {
	St  Number `json:"st"`
	Msg Text   `json:"msg"`
}

// FetchWithAuth performs an authenticated call against path (relative to
// the base URL, or absolute). It returns Unauthorized after clearing the
// session when the backend reports 401 in the status line or in the body,
// and FetchFailed for transport or parse failures.
func (g *Gateway) FetchWithAuth(ctx context.Context, path string, opts RequestOptions) (*Response, error) {
	if g.store == nil {
		return nil, FetchFailed("session store not configured", nil)
	}

	access, err := g.store.Get(ctx, session.KeyAccess)
	if err != nil {
		return nil, FetchFailed("read access token", err)
	}
	device, err := g.store.Get(ctx, session.KeyDeviceToken)
	if err != nil {
		return nil, FetchFailed("read device token", err)
	}

	method := opts.method()
	body, contentType, err := encodeBody(method, opts, device)
	if err != nil {
		return nil, FetchFailed("encode request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path), body)
	if err != nil {
		return nil, FetchFailed("create request", err)
	}
	for name, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	if device != "" {
		req.Header.Set(g.deviceHeader, device)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("request failed", "path", path, "error", err)
		return nil, FetchFailed("request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, g.invalidate(ctx, path)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, FetchFailed("read response", err)
	}
	if !json.Valid(raw) {
		g.logger.Error("response is not JSON", "path", path, "http_status", resp.StatusCode)
		return nil, FetchFailed("parse response", fmt.Errorf("invalid JSON from %s (HTTP %d)", path, resp.StatusCode))
	}

	if embeddedUnauthorized(raw) {
		return nil, g.invalidate(ctx, path)
	}

	var env envelope
	_ = json.Unmarshal(raw, &env)

	return &Response{
		HTTPStatus: resp.StatusCode,
		Body:       json.RawMessage(raw),
		St:         env.St.Int(),
		Msg:        env.Msg.String(),
	}, nil
}

func (g *Gateway) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return g.baseURL + path
}

// invalidate clears the stored session, sends the user to login and returns
// Unauthorized. Every step tolerates being repeated by concurrent callers.
func (g *Gateway) invalidate(ctx context.Context, path string) error {
	ctx = context.WithoutCancel(ctx)

	captainID, _ := g.store.Get(ctx, session.KeyCaptainID)
	outletID, _ := g.store.Get(ctx, session.KeyOutletID)

	if err := g.store.RemoveAll(ctx, session.Keys); err != nil {
		g.logger.Error("cannot clear session after 401", "error", err)
	}
	if g.navigator != nil {
		g.navigator.RedirectToLogin(ctx)
	}

	g.logger.Info("session invalidated by backend", "path", path)
	g.announceInvalidation(ctx, path, captainID, outletID)

	return Unauthorized("Your session has expired. Please log in again.")
}

func (g *Gateway) announceInvalidation(ctx context.Context, path, captainID, outletID string) {
	evt := event.SessionInvalidatedEvent{
		EventType:  event.EventSessionInvalidated,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		CaptainID:  captainID,
		OutletID:   outletID,
		Path:       path,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	if err := g.publisher.Publish(ctx, event.SessionTopic, data); err != nil {
		g.logger.Error("cannot publish session invalidation", "error", err)
	}
}

// encodeBody returns the request body and its content type. POST bodies
// that are JSON objects get the device token added unless they already
// carry one; the backend reads it from the header on some endpoints and
// from the body on others.
func encodeBody(method string, opts RequestOptions, device string) (io.Reader, string, error) {
	if opts.JSON == nil && opts.RawBody == nil && opts.Multipart == nil {
		return nil, "", nil
	}

	if opts.JSON == nil && opts.RawBody == nil {
		return encodeMultipart(opts.Multipart)
	}

	raw := opts.RawBody
	if opts.JSON != nil {
		encoded, err := json.Marshal(opts.JSON)
		if err != nil {
			return nil, "", err
		}
		raw = encoded
	}

	if method == http.MethodPost && device != "" {
		raw = injectDeviceToken(raw, device)
	}
	return bytes.NewReader(raw), "application/json", nil
}

func injectDeviceToken(raw []byte, device string) []byte {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return raw
	}
	if _, ok := fields[deviceTokenField]; ok {
		return raw
	}
	token, err := json.Marshal(device)
	if err != nil {
		return raw
	}
	fields[deviceTokenField] = token
	out, err := json.Marshal(fields)
	if err != nil {
		return raw
	}
	return out
}

func encodeMultipart(form *Multipart) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}
	for _, file := range form.Files {
		part, err := w.CreateFormFile(file.Field, file.FileName)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(file.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func embeddedUnauthorized(raw []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for _, key := range embeddedStatusKeys {
		value, ok := fields[key]
		if !ok {
			continue
		}
		var n Number
		_ = n.UnmarshalJSON(value)
		if n.Int() == http.StatusUnauthorized {
			return true
		}
	}
	return false
}
