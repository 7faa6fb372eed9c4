package contract_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/promata/reservas-gateway/internal/upstream"
)

// stubBackend answers GETs by path, ignoring the query string.
type stubBackend struct {
	mu     sync.Mutex
	bodies map[string]string
	paths  []string
	server *httptest.Server
}

func newStubBackend(t *testing.T, bodies map[string]string) *stubBackend {
	t.Helper()
	b := &stubBackend{bodies: bodies}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.paths = append(b.paths, r.URL.RequestURI())
		body, ok := b.bodies[r.URL.Path]
		b.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"statusCode":404,"message":"Not Found","error":"Not Found"}`))
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *stubBackend) client(t *testing.T) *upstream.Client {
	t.Helper()
	client, err := upstream.NewClient(upstream.Config{BaseURL: b.server.URL}, testLogger())
	require.NoError(t, err)
	return client
}

func compileContract(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + filepath.ToSlash(schemaPath))
	require.NoError(t, err)
	return schema
}

func validateResponse(t *testing.T, app *fiber.App, req *http.Request, status int, schema *jsonschema.Schema) map[string]any {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, status, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload), string(body))
	return payload
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
