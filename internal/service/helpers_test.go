package service

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/cache"
	"github.com/promata/reservas-gateway/internal/upstream"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 0x49, 0x48, 0x44, 0x52}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// fakeBackend records calls and answers them from a route table keyed by "METHOD path".
type fakeBackend struct {
	mu       sync.Mutex
	routes   map[string]fakeRoute
	calls    []recordedCall
	server   *httptest.Server
	fallback int
}

type fakeRoute struct {
	status int
	body   string
}

type recordedCall struct {
	Method string
	Path   string
	Auth   string
	Body   []byte
	Form   map[string][]string
	Files  map[string]string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{routes: map[string]fakeRoute{}, fallback: http.StatusNotFound}
	fb.server = httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(fb.server.Close)
	return fb
}

func (f *fakeBackend) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = fakeRoute{status: status, body: body}
}

func (f *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	call := recordedCall{Method: r.Method, Path: r.URL.RequestURI(), Auth: r.Header.Get("Authorization")}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(10 << 20); err == nil {
			call.Form = r.MultipartForm.Value
			call.Files = map[string]string{}
			for field, headers := range r.MultipartForm.File {
				if len(headers) > 0 {
					call.Files[field] = headers[0].Filename
				}
			}
		}
	} else {
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		call.Body = buf.Bytes()
	}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	route, ok := f.routes[r.Method+" "+r.URL.RequestURI()]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(f.fallback)
		_, _ = w.Write([]byte(`{"statusCode":404,"message":"Not Found"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(route.status)
	_, _ = w.Write([]byte(route.body))
}

func (f *fakeBackend) client(t *testing.T) *upstream.Client {
	t.Helper()
	client, err := upstream.NewClient(upstream.Config{BaseURL: f.server.URL}, testLogger())
	require.NoError(t, err)
	return client
}

func (f *fakeBackend) callCount(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, call := range f.calls {
		if call.Method == method && call.Path == path {
			count++
		}
	}
	return count
}

func (f *fakeBackend) lastCall(t *testing.T) recordedCall {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.calls)
	return f.calls[len(f.calls)-1]
}

func newTestQueryCache(t *testing.T) (*cache.QueryCache, *miniredis.Miniredis) {
	t.Helper()
	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewQueryCache(client, testLogger()), server
}

// recordingInvalidator applies invalidations to a QueryCache and remembers them.
type recordingInvalidator struct {
	mu        sync.Mutex
	cache     *cache.QueryCache
	resources []string
}

func (r *recordingInvalidator) Publish(ctx context.Context, resources ...string) {
	r.mu.Lock()
	r.resources = append(r.resources, resources...)
	r.mu.Unlock()
	for _, resource := range resources {
		if r.cache != nil {
			_, _ = r.cache.Invalidate(ctx, resource)
		}
	}
}

func withToken(token string) context.Context {
	return upstream.WithCredentials(context.Background(), token, "corr-test")
}

func buildFileHeader(t *testing.T, field, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {"form-data; name=\"" + field + "\"; filename=\"" + filename + "\""},
		"Content-Type":        {"application/octet-stream"},
	})
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := multipart.NewReader(body, writer.Boundary())
	form, err := reader.ReadForm(int64(len(content) + 1024))
	require.NoError(t, err)
	files := form.File[field]
	require.Len(t, files, 1)
	return files[0]
}

func mustJSON(t *testing.T, value any) string {
	t.Helper()
	encoded, err := json.Marshal(value)
	require.NoError(t, err)
	return string(encoded)
}
