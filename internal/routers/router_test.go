package routers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/haierkeys/content-revision-service/internal/app"
	"github.com/haierkeys/content-revision-service/pkg/code"
	"github.com/haierkeys/content-revision-service/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Details any             `json:"details"`
	TraceID string          `json:"traceId"`
}

type contentBody struct {
	ID             int64  `json:"id"`
	Kind           string `json:"kind"`
	Text           string `json:"text"`
	RevisionCount  int    `json:"revisionCount"`
	LastRevisionID int64  `json:"lastRevisionId"`
}

func newTestServer(t *testing.T, mutate ...func(*app.AppConfig)) (*gin.Engine, *app.App) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := app.DefaultConfig()
	require.NoError(t, err)
	cfg.Database.Type = "badger"
	cfg.Badger.InMemory = true
	cfg.Revision.MaxRevisionNumber = 3
	cfg.App.WriteRateLimit = 0
	for _, m := range mutate {
		m(cfg)
	}

	a, err := app.NewApp(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Shutdown(context.Background()) })

	uni, err := validator.Setup()
	require.NoError(t, err)

	return NewRouter(a, uni), a
}

func do(t *testing.T, r http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}

func TestContentLifecycle(t *testing.T) {
	r, _ := newTestServer(t)

	w, env := do(t, r, http.MethodPost, "/api/note/contents", gin.H{"itemId": 7, "owner": "alice", "text": "A"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, code.SuccessCreate.Code(), env.Code)
	created := decode[contentBody](t, env.Data)
	assert.Equal(t, "A", created.Text)
	assert.Equal(t, int64(1), created.LastRevisionID)

	for _, text := range []string{"AB", "ABC", "ABCD"} {
		w, env = do(t, r, http.MethodPut, "/api/note/content", gin.H{"id": created.ID, "text": text, "author": "bob"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, code.SuccessUpdate.Code(), env.Code)
	}
	updated := decode[contentBody](t, env.Data)
	assert.Equal(t, "ABCD", updated.Text)
	assert.Equal(t, 3, updated.RevisionCount)
	assert.Equal(t, int64(4), updated.LastRevisionID)

	// revision 1 was compacted away (cap 3)
	w, env = do(t, r, http.MethodGet, "/api/note/content/revision?id="+itoa(created.ID)+"&revisionId=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, code.ErrorRevisionNotFound.Code(), env.Code)

	w, env = do(t, r, http.MethodGet, "/api/note/content/revision?id="+itoa(created.ID)+"&revisionId=3", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rev := decode[struct {
		ID     int64  `json:"id"`
		Text   string `json:"text"`
		Latest bool   `json:"latest"`
	}](t, env.Data)
	assert.Equal(t, int64(3), rev.ID)
	assert.Equal(t, "ABC", rev.Text)
	assert.False(t, rev.Latest)

	w, env = do(t, r, http.MethodGet, "/api/note/content/revisions?id="+itoa(created.ID)+"&page=1&pageSize=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		List []struct {
			ID     int64  `json:"id"`
			Author string `json:"author"`
		} `json:"list"`
		Pager struct {
			Page      int `json:"page"`
			PageSize  int `json:"pageSize"`
			TotalRows int `json:"totalRows"`
		} `json:"pager"`
	}](t, env.Data)
	require.Len(t, list.List, 2)
	assert.Equal(t, int64(4), list.List[0].ID)
	assert.Equal(t, int64(3), list.List[1].ID)
	assert.Equal(t, 3, list.Pager.TotalRows)
	assert.Equal(t, 2, list.Pager.PageSize)

	w, env = do(t, r, http.MethodPut, "/api/note/content/revision/restore", gin.H{"id": created.ID, "revisionId": 2, "author": "carol"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, code.SuccessRestore.Code(), env.Code)
	restored := decode[contentBody](t, env.Data)
	assert.Equal(t, "AB", restored.Text)
	assert.Equal(t, int64(5), restored.LastRevisionID)

	w, env = do(t, r, http.MethodGet, "/api/note/content/revision/verify?id="+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	report := decode[struct {
		Checked int     `json:"checked"`
		Corrupt []int64 `json:"corrupt"`
	}](t, env.Data)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Corrupt)

	w, env = do(t, r, http.MethodGet, "/api/note/contents?itemId=7", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"totalRows":1`)

	w, env = do(t, r, http.MethodDelete, "/api/note/content?id="+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, code.SuccessDelete.Code(), env.Code)

	w, env = do(t, r, http.MethodGet, "/api/note/content?id="+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, code.ErrorContentNotFound.Code(), env.Code)
}

func TestErrorMapping(t *testing.T) {
	r, _ := newTestServer(t)

	t.Run("unknown kind", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/api/memo/content?id=1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, code.ErrorContentKindInvalid.Code(), env.Code)
	})

	t.Run("missing content", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/api/task/content/revision?id=404&revisionId=1", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, code.ErrorContentNotFound.Code(), env.Code)
	})

	t.Run("invalid params", func(t *testing.T) {
		w, env := do(t, r, http.MethodPost, "/api/task/contents", gin.H{"itemId": 1, "text": "x"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, code.ErrorInvalidParams.Code(), env.Code)
		fields := decode[map[string]string](t, env.Data)
		assert.Contains(t, fields, "owner")
	})

	t.Run("no route", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/nothing/here", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, code.ErrorNotFound.Code(), env.Code)
	})
}

func TestTraceIDHeader(t *testing.T) {
	r, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/transaction/content?id=1", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-ID"))
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, "trace-123", env.TraceID)

	// generated when absent
	w, _ = do(t, r, http.MethodGet, "/api/version", nil)
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestWriteRateLimit(t *testing.T) {
	r, _ := newTestServer(t, func(c *app.AppConfig) { c.App.WriteRateLimit = 1 })

	body := gin.H{"itemId": 1, "owner": "alice", "text": "x"}
	w, _ := do(t, r, http.MethodPost, "/api/note/contents", body)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := do(t, r, http.MethodPost, "/api/note/contents", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, code.ErrorTooManyRequest.Code(), env.Code)

	// reads are not limited
	w, _ = do(t, r, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestVersionAndHealth(t *testing.T) {
	r, _ := newTestServer(t)

	w, env := do(t, r, http.MethodGet, "/api/version", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, app.Version, decode[struct {
		Version string `json:"version"`
	}](t, env.Data).Version)
	assert.Contains(t, string(env.Data), `"maxRevisions":3`)

	w, env = do(t, r, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	health := decode[struct {
		Status   string `json:"status"`
		Store    string `json:"store"`
		Database string `json:"database"`
	}](t, env.Data)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "badger", health.Store)
	assert.Equal(t, "connected", health.Database)
}

func TestPrivateRouter(t *testing.T) {
	_, a := newTestServer(t)
	r := NewPrivateRouterWithLogger("release", a.Registry(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "content_revision_revisions_recorded_total")

	req = httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
