package service

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"islandstay/internal/config"
	"islandstay/internal/remote"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
)

const noRows = `{"code":"PGRST116","message":"JSON object requested, multiple (or no) rows returned"}`

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

type fakeReply struct {
	status int
	body   string
}

// fakeBackend stands in for the hosted REST API. Unrouted requests get an
// empty list.
type fakeBackend struct {
	mu       sync.Mutex
	routes   map[string]fakeReply
	requests []recordedRequest
}

func newFakeBackend(t *testing.T) (*fakeBackend, *remote.Client) {
	t.Helper()
	fb := &fakeBackend{routes: map[string]fakeReply{}}
	ts := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(ts.Close)

	client := remote.NewClient(config.RemoteConfig{URL: ts.URL, AnonKey: "anon", RequestTimeout: 2 * time.Second}, nil)
	return fb, client
}

func (f *fakeBackend) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = fakeReply{status: status, body: body}
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   string(body),
	})
	reply, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		reply = fakeReply{status: http.StatusOK, body: `[]`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	_, _ = w.Write([]byte(reply.body))
}

func (f *fakeBackend) requestsTo(method, path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func (f *fakeBackend) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishJSON(eventType string, payload interface{}) error {
	return m.Called(eventType, payload).Error(0)
}

func nopLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
