package task

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"todoapp/dto"
	"todoapp/feed"
	"todoapp/model"
	"todoapp/services"
	"todoapp/viewmodel"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listResponse struct {
	Filter string             `json:"filter"`
	Search string             `json:"search"`
	Tasks  []dto.TaskResponse `json:"tasks"`
}

type commentsResponse struct {
	Comments []dto.CommentResponse `json:"comments"`
}

type fixture struct {
	router *gin.Engine
	token  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	gin.SetMode(gin.TestMode)
	router := gin.New()

	f := feed.NewMemory()
	registry := viewmodel.NewRegistry(f, nil)
	t.Cleanup(registry.Close)

	TaskController(router, registry)
	CommentController(router, f)

	token, err := services.CreateAccessToken("alice", "alice@example.com")
	require.NoError(t, err)

	return &fixture{router: router, token: token}
}

func (fx *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+fx.token)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)
	return w
}

// sseRecorder satisfies the http.CloseNotifier assertion gin's Stream makes
// on the response writer.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closeNotify chan bool
}

func (r *sseRecorder) CloseNotify() <-chan bool { return r.closeNotify }

// stream opens an SSE endpoint with a short request deadline and returns
// whatever the handler wrote before the deadline disconnected it.
func (fx *fixture) stream(t *testing.T, path string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+fx.token)
	w := &sseRecorder{ResponseRecorder: httptest.NewRecorder(), closeNotify: make(chan bool, 1)}
	fx.router.ServeHTTP(w, req)
	return w.Body.String()
}

func (fx *fixture) list(t *testing.T, query string) listResponse {
	t.Helper()
	w := fx.do(t, http.MethodGet, "/tasks"+query, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp listResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestTasks_RequireAuth(t *testing.T) {
	fx := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	assert.Equal(t, 401, w.Code)
}

func TestTasks_AddAndList(t *testing.T) {
	fx := newFixture(t)

	w := fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk","dueDate":"2024-01-05"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = fx.do(t, http.MethodPost, "/tasks", `{"text":"Pay rent","dueDate":"2024-01-01"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	w = fx.do(t, http.MethodPost, "/tasks", `{"text":"Someday"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	resp := fx.list(t, "")
	require.Len(t, resp.Tasks, 3)
	assert.Equal(t, model.FilterAll, resp.Filter)
	// Due date ascending, sentinel last.
	assert.Equal(t, "Pay rent", resp.Tasks[0].Text)
	assert.Equal(t, "Buy milk", resp.Tasks[1].Text)
	assert.Equal(t, "Someday", resp.Tasks[2].Text)
	assert.Equal(t, model.NoDueDate, resp.Tasks[2].DueDate)
}

func TestTasks_AddWithoutTextIsBadRequest(t *testing.T) {
	fx := newFixture(t)

	w := fx.do(t, http.MethodPost, "/tasks", `{"dueDate":"2024-01-05"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTasks_ToggleEditDelete(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk"}`)
	id := fx.list(t, "").Tasks[0].ID

	w := fx.do(t, http.MethodPut, "/tasks/"+id+"/toggle", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, fx.list(t, "").Tasks[0].Completed)

	w = fx.do(t, http.MethodPut, "/tasks/"+id, `{"text":"Buy oat milk"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Buy oat milk", fx.list(t, "").Tasks[0].Text)

	w = fx.do(t, http.MethodDelete, "/tasks/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, fx.list(t, "").Tasks)
}

func TestTasks_UnknownIDIsNotFound(t *testing.T) {
	fx := newFixture(t)

	w := fx.do(t, http.MethodPut, "/tasks/nope/toggle", "")
	assert.Equal(t, 404, w.Code)
	w = fx.do(t, http.MethodDelete, "/tasks/nope", "")
	assert.Equal(t, 404, w.Code)
}

func TestTasks_SearchQuery(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk"}`)
	fx.do(t, http.MethodPost, "/tasks", `{"text":"Walk dog"}`)

	resp := fx.list(t, "?search=MILK")
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "Buy milk", resp.Tasks[0].Text)

	resp = fx.list(t, "?search=")
	assert.Len(t, resp.Tasks, 2)
}

func TestTasks_SearchDoesNotPersistAcrossRequests(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk"}`)
	fx.do(t, http.MethodPost, "/tasks", `{"text":"Walk dog"}`)

	resp := fx.list(t, "?search=milk")
	require.Len(t, resp.Tasks, 1)

	// A follow-up request without the param sees the full list again.
	resp = fx.list(t, "")
	assert.Equal(t, "", resp.Search)
	assert.Len(t, resp.Tasks, 2)
}

func TestTasks_StreamSendsSnapshotOnConnect(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk"}`)

	body := fx.stream(t, "/tasks/stream")
	assert.Contains(t, body, "event:tasks")
	assert.Contains(t, body, "Buy milk")
}

func TestComments_StreamSendsSnapshotOnConnect(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk"}`)
	id := fx.list(t, "").Tasks[0].ID
	fx.do(t, http.MethodPost, "/tasks/"+id+"/comments", `{"text":"oat milk instead"}`)

	body := fx.stream(t, "/tasks/"+id+"/comments/stream")
	assert.Contains(t, body, "event:comments")
	assert.Contains(t, body, "oat milk instead")
}

func TestTasks_FilterSetting(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Done thing"}`)
	id := fx.list(t, "").Tasks[0].ID
	fx.do(t, http.MethodPut, "/tasks/"+id+"/toggle", "")
	fx.do(t, http.MethodPost, "/tasks", `{"text":"Open thing"}`)

	w := fx.do(t, http.MethodPut, "/settings/filter", `{"filter":"pending"}`)
	require.Equal(t, http.StatusOK, w.Code)

	resp := fx.list(t, "")
	assert.Equal(t, model.FilterPending, resp.Filter)
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "Open thing", resp.Tasks[0].Text)

	w = fx.do(t, http.MethodPut, "/settings/filter", `{"filter":"urgent"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComments_AppendAndList(t *testing.T) {
	fx := newFixture(t)

	fx.do(t, http.MethodPost, "/tasks", `{"text":"Buy milk"}`)
	id := fx.list(t, "").Tasks[0].ID

	w := fx.do(t, http.MethodPost, "/tasks/"+id+"/comments", `{"text":"get oat milk instead"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = fx.do(t, http.MethodGet, "/tasks/"+id+"/comments", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp commentsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Comments, 1)
	assert.Equal(t, "alice", resp.Comments[0].Author)
	assert.Equal(t, "get oat milk instead", resp.Comments[0].Text)
}
