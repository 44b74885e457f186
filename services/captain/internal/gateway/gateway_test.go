package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/appetiteclub/captain/pkg/event"
	"github.com/appetiteclub/captain/pkg/lib/core"
	"github.com/appetiteclub/captain/services/captain/internal/session"
)

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	msgs   [][]byte
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.msgs)
}

type countingNavigator struct {
	calls atomic.Int64
}

func (n *countingNavigator) RedirectToLogin(context.Context) {
	n.calls.Add(1)
}

func seededStore(t *testing.T) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	err := session.Save(context.Background(), store, session.Credentials{
		AccessToken:  "acc-1",
		RefreshToken: "ref-1",
		UserID:       "u-1",
		CaptainID:    "c-1",
		OutletID:     "o-1",
		UserSession:  "{}",
		DeviceToken:  "dev-1",
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func assertSessionCleared(t *testing.T, store *session.MemoryStore) {
	t.Helper()
	for _, key := range session.Keys {
		if got, _ := store.Get(context.Background(), key); got != "" {
			t.Errorf("key %q = %q after invalidation, want empty", key, got)
		}
	}
}

func TestFetchWithAuthInjectsCredentials(t *testing.T) {
	var gotAuth, gotDevice string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotDevice = r.Header.Get(DefaultDeviceHeader)
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"st":1,"msg":"ok"}`))
	}))
	defer server.Close()

	g := New(server.URL, seededStore(t), nil)
	resp, err := g.FetchWithAuth(context.Background(), "/order_view", RequestOptions{
		Method: http.MethodPost,
		JSON:   map[string]string{"order_id": "9"},
	})
	if err != nil {
		t.Fatalf("FetchWithAuth() error = %v", err)
	}

	if gotAuth != "Bearer acc-1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer acc-1")
	}
	if gotDevice != "dev-1" {
		t.Errorf("device header = %q, want dev-1", gotDevice)
	}
	if gotBody["device_token"] != "dev-1" {
		t.Errorf("body device_token = %v, want dev-1", gotBody["device_token"])
	}
	if gotBody["order_id"] != "9" {
		t.Errorf("body order_id = %v, want 9", gotBody["order_id"])
	}
	if !resp.Succeeded() || resp.Msg != "ok" {
		t.Errorf("response = %+v, want st=1 msg=ok", resp)
	}
}

func TestFetchWithAuthKeepsExplicitDeviceToken(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"st":1}`))
	}))
	defer server.Close()

	g := New(server.URL, seededStore(t), nil)
	_, err := g.FetchWithAuth(context.Background(), "/x", RequestOptions{
		JSON: map[string]string{"device_token": "caller"},
	})
	if err != nil {
		t.Fatalf("FetchWithAuth() error = %v", err)
	}
	if gotBody["device_token"] != "caller" {
		t.Errorf("device_token = %v, want caller", gotBody["device_token"])
	}
}

func TestFetchWithAuthDoesNotRewriteNonObjectOrGet(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   []byte
		want   string
	}{
		{name: "arrayBody", method: http.MethodPost, body: []byte(`[1,2]`), want: `[1,2]`},
		{name: "putBody", method: http.MethodPut, body: []byte(`{"a":1}`), want: `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				got = string(raw)
				w.Write([]byte(`{"st":1}`))
			}))
			defer server.Close()

			g := New(server.URL, seededStore(t), nil)
			_, err := g.FetchWithAuth(context.Background(), "/x", RequestOptions{Method: tt.method, RawBody: tt.body})
			if err != nil {
				t.Fatalf("FetchWithAuth() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFetchWithAuthMultipartUntouched(t *testing.T) {
	var fields map[string][]string
	var fileData string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("ParseMultipartForm() error = %v", err)
		}
		fields = r.MultipartForm.Value
		if f, _, err := r.FormFile("image"); err == nil {
			raw, _ := io.ReadAll(f)
			fileData = string(raw)
		}
		w.Write([]byte(`{"st":1}`))
	}))
	defer server.Close()

	g := New(server.URL, seededStore(t), nil)
	_, err := g.FetchWithAuth(context.Background(), "/upload", RequestOptions{
		Multipart: &Multipart{
			Fields: map[string]string{"menu_id": "5"},
			Files:  []FilePart{{Field: "image", FileName: "dish.png", Data: []byte("png")}},
		},
	})
	if err != nil {
		t.Fatalf("FetchWithAuth() error = %v", err)
	}

	if _, ok := fields["device_token"]; ok {
		t.Error("multipart body should not receive device_token")
	}
	if got := fields["menu_id"]; len(got) != 1 || got[0] != "5" {
		t.Errorf("menu_id = %v, want [5]", got)
	}
	if fileData != "png" {
		t.Errorf("file data = %q, want png", fileData)
	}
}

func TestFetchWithAuthHTTP401(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	store := seededStore(t)
	nav := &countingNavigator{}
	pub := &recordingPublisher{}
	g := New(server.URL, store, nav, WithPublisher(pub))

	resp, err := g.FetchWithAuth(context.Background(), "/order_view", RequestOptions{JSON: map[string]string{}})
	if resp != nil {
		t.Errorf("response = %+v, want nil", resp)
	}
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want unauthorized", err)
	}
	assertSessionCleared(t, store)
	if nav.calls.Load() != 1 {
		t.Errorf("redirects = %d, want 1", nav.calls.Load())
	}
	if pub.count() != 1 || pub.topics[0] != event.SessionTopic {
		t.Fatalf("published = %v, want one %s event", pub.topics, event.SessionTopic)
	}

	var evt event.SessionInvalidatedEvent
	if err := json.Unmarshal(pub.msgs[0], &evt); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if evt.CaptainID != "c-1" || evt.OutletID != "o-1" || evt.Path != "/order_view" {
		t.Errorf("event = %+v", evt)
	}
}

func TestFetchWithAuthEmbedded401(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "statusNumber", body: `{"status":401,"msg":"expired"}`},
		{name: "statusString", body: `{"status":"401"}`},
		{name: "statusCode", body: `{"st":0,"status_code":401}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			store := seededStore(t)
			nav := &countingNavigator{}
			g := New(server.URL, store, nav)

			resp, err := g.FetchWithAuth(context.Background(), "/x", RequestOptions{})
			if resp != nil {
				t.Errorf("response = %+v, want nil", resp)
			}
			if KindOf(err) != KindUnauthorized {
				t.Fatalf("kind = %q, want unauthorized", KindOf(err))
			}
			assertSessionCleared(t, store)
			if nav.calls.Load() != 1 {
				t.Errorf("redirects = %d, want 1", nav.calls.Load())
			}
		})
	}
}

func TestFetchWithAuthConcurrent401RedirectsOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	store := seededStore(t)
	nav := &countingNavigator{}
	gate := NewLoginGate(nav)
	g := New(server.URL, store, gate)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = g.FetchWithAuth(context.Background(), "/x", RequestOptions{})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("caller %d error = %v, want unauthorized", i, err)
		}
	}
	assertSessionCleared(t, store)
	if nav.calls.Load() != 1 {
		t.Errorf("redirects = %d, want 1", nav.calls.Load())
	}
	if !gate.LoginRequired() {
		t.Error("LoginRequired() = false, want true")
	}
}

func TestFetchWithAuthNonJSONIsFetchFailed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer server.Close()

	store := seededStore(t)
	nav := &countingNavigator{}
	g := New(server.URL, store, nav)

	_, err := g.FetchWithAuth(context.Background(), "/x", RequestOptions{})
	if KindOf(err) != KindFetchFailed {
		t.Fatalf("kind = %q, want fetch_failed", KindOf(err))
	}
	if got, _ := store.Get(context.Background(), session.KeyAccess); got != "acc-1" {
		t.Errorf("access = %q, session should be kept", got)
	}
	if nav.calls.Load() != 0 {
		t.Errorf("redirects = %d, want 0", nav.calls.Load())
	}
}

func TestFetchWithAuthNon2xxJSONReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"st":0,"msg":"Table is busy"}`))
	}))
	defer server.Close()

	g := New(server.URL, seededStore(t), nil)
	resp, err := g.FetchWithAuth(context.Background(), "/x", RequestOptions{})
	if err != nil {
		t.Fatalf("FetchWithAuth() error = %v", err)
	}
	if resp.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("HTTPStatus = %d, want 500", resp.HTTPStatus)
	}
	if resp.Succeeded() || resp.Msg != "Table is busy" {
		t.Errorf("response = %+v", resp)
	}
}

func TestFetchWithAuthTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	g := New(url, seededStore(t), nil)
	_, err := g.FetchWithAuth(context.Background(), "/x", RequestOptions{})
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("error = %v, want fetch_failed", err)
	}
}

func TestCall(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{name: "success", body: `{"st":1,"data":{"value":"x"}}`},
		{name: "rejectedWithMessage", body: `{"st":0,"msg":"Table already reserved"}`, wantKind: KindServerRejected, wantMsg: "Table already reserved"},
		{name: "rejectedBlank", body: `{"st":"0"}`, wantKind: KindServerRejected, wantMsg: GenericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			g := New(server.URL, seededStore(t), nil)
			var dest struct {
				Data struct {
					Value string `json:"value"`
				} `json:"data"`
			}
			_, err := Call(context.Background(), g, "/x", map[string]string{}, &dest)

			if tt.wantKind == "" {
				if err != nil {
					t.Fatalf("Call() error = %v", err)
				}
				if dest.Data.Value != "x" {
					t.Errorf("decoded value = %q, want x", dest.Data.Value)
				}
				return
			}
			if KindOf(err) != tt.wantKind {
				t.Fatalf("kind = %q, want %q", KindOf(err), tt.wantKind)
			}
			if MessageOf(err) != tt.wantMsg {
				t.Errorf("message = %q, want %q", MessageOf(err), tt.wantMsg)
			}
		})
	}
}

func TestCallNilFetcher(t *testing.T) {
	_, err := Call(context.Background(), nil, "/x", nil, nil)
	if KindOf(err) != KindFetchFailed {
		t.Errorf("kind = %q, want fetch_failed", KindOf(err))
	}
}

func TestNewFromConfig(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("X-Captain-Device")
		w.Write([]byte(`{"st":1}`))
	}))
	defer server.Close()

	cfg := core.NewConfig(map[string]interface{}{
		"api.base_url":      server.URL + "/",
		"api.device_header": "X-Captain-Device",
		"api.timeout":       "2s",
	})
	g, err := NewFromConfig(cfg, seededStore(t), nil, nil)
	if err != nil {
		t.Fatalf("NewFromConfig() error = %v", err)
	}
	if _, err := g.FetchWithAuth(context.Background(), "x", RequestOptions{}); err != nil {
		t.Fatalf("FetchWithAuth() error = %v", err)
	}
	if gotHeader != "dev-1" {
		t.Errorf("custom device header = %q, want dev-1", gotHeader)
	}

	if _, err := NewFromConfig(core.NewConfig(nil), seededStore(t), nil, nil); err == nil {
		t.Error("NewFromConfig() without base url should fail")
	}
}

func TestResolve(t *testing.T) {
	g := New("https://api.example.com/v1/", nil, nil)
	if got := g.resolve("order_view"); got != "https://api.example.com/v1/order_view" {
		t.Errorf("resolve(relative) = %q", got)
	}
	if got := g.resolve("http://other/x"); !strings.HasPrefix(got, "http://other") {
		t.Errorf("resolve(absolute) = %q", got)
	}
}
