package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/canon/pkg/adapters/memory"
	"github.com/aretw0/canon/pkg/api"
	"github.com/aretw0/canon/pkg/core"
	"github.com/aretw0/canon/pkg/format"
	"github.com/aretw0/canon/pkg/world"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func seed(t *testing.T, s core.Storage, p string, doc core.Document) {
	t.Helper()
	data, err := format.EncodeDocument(doc)
	require.NoError(t, err)
	require.NoError(t, s.Write(context.Background(), p, data))
}

func setupRouter(t *testing.T) (*gin.Engine, *memory.Storage) {
	t.Helper()
	store := memory.New()
	seed(t, store, world.MetaPath, core.Document{"version": "0.0.1", "description": "Aurora", "changelog": []any{}})
	seed(t, store, world.SettingPath, core.Document{"year": 2030})
	seed(t, store, world.RegistryPath, core.Document{"domains": []any{
		map[string]any{"id": "identity", "name": "Identity", "file": "identity.yaml", "order": 1},
	}})
	seed(t, store, "domains/identity.yaml", core.Document{"id": "identity", "name": "Identity", "status": "draft"})

	now := func() time.Time { return time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC) }
	svc := world.New(store, world.WithClock(now))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return api.NewRouter(svc, logger), store
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewBufferString(b)
		default:
			data, err := json.Marshal(b)
			require.NoError(t, err)
			rd = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthzAndRequestID(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(api.RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(api.RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(api.RequestIDHeader))
}

func TestWorldState(t *testing.T) {
	r, _ := setupRouter(t)
	w := do(t, r, http.MethodGet, "/api/world", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Contains(t, body, "systemArchitecture")
	assert.Nil(t, body["thesis"])
	assert.Equal(t, []any{}, body["openQuestions"])
	domains := body["domains"].(map[string]any)
	assert.Contains(t, domains, "identity")
}

func TestMeta(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPut, "/api/world/meta", map[string]any{"description": "Borealis", "version": "9.9.9"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Borealis", body["description"])
	assert.Equal(t, "0.0.1", body["version"])
	assert.Equal(t, "2025-03-14", body["last_modified"])

	w = do(t, r, http.MethodGet, "/api/world/meta", nil)
	assert.Equal(t, "Borealis", decode(t, w)["description"])
}

func TestNamedDocuments(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/world/thesis", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPut, "/api/world/thesis", map[string]any{"claim": "x"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/api/world/thesis", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "x", decode(t, w)["claim"])

	w = do(t, r, http.MethodPut, "/api/world/setting", "[1,2]")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDomains(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/world/domains", map[string]any{"id": "rituals", "name": "Rituals"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "open", decode(t, w)["status"])

	w = do(t, r, http.MethodPost, "/api/world/domains", map[string]any{"id": "rituals", "name": "Again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Domain already exists", decode(t, w)["error"])

	w = do(t, r, http.MethodPost, "/api/world/domains", map[string]any{"id": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id and name are required", decode(t, w)["error"])

	w = do(t, r, http.MethodGet, "/api/world/domains", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)["domains"].([]any)
	require.Len(t, list, 2)
	assert.Equal(t, float64(2), list[1].(map[string]any)["order"])

	w = do(t, r, http.MethodPut, "/api/world/domains/rituals", map[string]any{"id": "other", "name": "R"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rituals", decode(t, w)["id"])

	w = do(t, r, http.MethodDelete, "/api/world/domains/rituals", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"message": "Domain deleted", "id": "rituals"}, decode(t, w))

	w = do(t, r, http.MethodGet, "/api/world/domains/rituals", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Domain not found", body["error"])
	assert.Equal(t, []any{"identity"}, body["available"])

	w = do(t, r, http.MethodPut, "/api/world/domains/rituals", map[string]any{})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, r, http.MethodDelete, "/api/world/domains/rituals", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuestions(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodGet, "/api/world/open-questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["questions"])

	w = do(t, r, http.MethodPost, "/api/world/open-questions", map[string]any{"name": "Power", "question": "Battery?"})
	require.Equal(t, http.StatusCreated, w.Code)
	q := decode(t, w)
	assert.Equal(t, "OQ-1", q["id"])
	assert.Equal(t, "architecture", q["domain"])
	assert.Equal(t, "2025-03-14", q["created"])

	w = do(t, r, http.MethodPost, "/api/world/open-questions", map[string]any{"name": "No question"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPut, "/api/world/open-questions/OQ-1", map[string]any{"id": "OQ-7", "status": "resolved"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OQ-1", decode(t, w)["id"])

	w = do(t, r, http.MethodGet, "/api/world/open-questions/OQ-2", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, []any{"OQ-1"}, decode(t, w)["available"])

	w = do(t, r, http.MethodDelete, "/api/world/open-questions/OQ-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Question deleted", decode(t, w)["message"])
}

func TestVersions(t *testing.T) {
	r, _ := setupRouter(t)

	w := do(t, r, http.MethodPost, "/api/world/versions", map[string]any{"notes": "no version"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodPost, "/api/world/versions", map[string]any{"version": "0.1.0", "notes": "first"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{"message": "Version created", "version": "0.1.0", "path": "versions/v0.1.0"}, decode(t, w))

	w = do(t, r, http.MethodPost, "/api/world/versions", map[string]any{"version": "0.1.0"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Version already exists", decode(t, w)["error"])

	w = do(t, r, http.MethodPost, "/api/world/versions", map[string]any{"version": "0.10.0"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(t, r, http.MethodGet, "/api/world/versions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	versions := decode(t, w)["versions"].([]any)
	require.Len(t, versions, 2)
	assert.Equal(t, "0.10.0", versions[0].(map[string]any)["version"])

	w = do(t, r, http.MethodGet, "/api/world/versions/0.1.0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	files := decode(t, w)["files"].(map[string]any)
	assert.Contains(t, files, "domains/identity.yaml")

	w = do(t, r, http.MethodPut, "/api/world/setting", map[string]any{"year": 2099})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodPost, "/api/world/versions/0.1.0/restore", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"message": "Restored successfully", "version": "0.1.0"}, decode(t, w))

	w = do(t, r, http.MethodGet, "/api/world/setting", nil)
	assert.Equal(t, float64(2030), decode(t, w)["year"])

	w = do(t, r, http.MethodPost, "/api/world/versions/7.7.7/restore", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Version not found", decode(t, w)["error"])
	w = do(t, r, http.MethodGet, "/api/world/versions/7.7.7", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	r, _ := setupRouter(t)
	do(t, r, http.MethodGet, "/api/world/meta", nil)

	w := do(t, r, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "canon_http_requests_total")
}

func TestStorageFailureIs500(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Write(context.Background(), world.MetaPath, []byte("version: [broken\n")))
	r := api.NewRouter(world.New(store), slog.New(slog.NewTextHandler(io.Discard, nil)))

	w := do(t, r, http.MethodGet, "/api/world/meta", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	assert.Equal(t, "STORAGE_FAILURE", body["code"])
	assert.NotEmpty(t, body["details"])
}
