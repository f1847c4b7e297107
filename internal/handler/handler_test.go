package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"copycorner/internal/apperror"
	"copycorner/internal/middleware"
	"copycorner/internal/model"
	"copycorner/internal/service"
	"copycorner/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

// fakeCategoryService embeds the interface so tests only stub what they call.
type fakeCategoryService struct {
	service.CategoryService
	list    func(search string, page *pagination.Params) ([]service.CategoryResponse, int64, error)
	archive func(userID, id string) (*service.CategoryResponse, error)
	purge   func(userID, id string, force bool) error
	create  func(userID string, req service.CategoryRequest) (*service.CategoryResponse, error)
}

func (f *fakeCategoryService) List(_ context.Context, search string, page *pagination.Params) ([]service.CategoryResponse, int64, error) {
	return f.list(search, page)
}

func (f *fakeCategoryService) Archive(_ context.Context, userID, id string) (*service.CategoryResponse, error) {
	return f.archive(userID, id)
}

func (f *fakeCategoryService) Purge(_ context.Context, userID, id string, force bool) error {
	return f.purge(userID, id, force)
}

func (f *fakeCategoryService) Create(_ context.Context, userID string, req service.CategoryRequest) (*service.CategoryResponse, error) {
	return f.create(userID, req)
}

type routes interface {
	RegisterRoutes(router *gin.RouterGroup)
}

func newRouter(handlers ...routes) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery())
	api := r.Group("/api", middleware.Actor())
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}
	return r
}

func do(r http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestListWithoutPageReturnsEverything(t *testing.T) {
	svc := &fakeCategoryService{
		list: func(search string, page *pagination.Params) ([]service.CategoryResponse, int64, error) {
			assert.Nil(t, page)
			assert.Equal(t, "pap", search)
			return []service.CategoryResponse{{ID: "1", Name: "Paper"}}, 1, nil
		},
	}
	w := do(newRouter(NewCategoryHandler(svc)), http.MethodGet, "/api/categories?search=pap", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["categories"], 1)
	assert.NotContains(t, data, "pagination")
}

func TestListWithPageAddsPagination(t *testing.T) {
	svc := &fakeCategoryService{
		list: func(_ string, page *pagination.Params) ([]service.CategoryResponse, int64, error) {
			require.NotNil(t, page)
			assert.Equal(t, 2, page.Page)
			assert.Equal(t, 2, page.PerPage)
			return []service.CategoryResponse{{ID: "3"}}, 5, nil
		},
	}
	w := do(newRouter(NewCategoryHandler(svc)), http.MethodGet, "/api/categories?page=2&per_page=2", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].(map[string]interface{})
	p := data["pagination"].(map[string]interface{})
	assert.EqualValues(t, 2, p["page"])
	assert.EqualValues(t, 5, p["total_categories"])
	assert.EqualValues(t, 3, p["total_pages"])
}

func TestErrorMapping(t *testing.T) {
	conflict := apperror.DependencyConflict(model.KindCategory, "Paper", "archive", 2, []model.DependentRef{
		{Kind: model.KindProduct, ID: uuid.New(), Label: "A4 Bond"},
		{Kind: model.KindProduct, ID: uuid.New(), Label: "Long Bond"},
	})

	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"Conflict", conflict, http.StatusConflict, conflict.Message},
		{"NotFound", apperror.NotFound(model.KindCategory), http.StatusNotFound, "Category not found"},
		{"ParentArchived", apperror.ParentArchived(model.KindProduct, model.KindCategory, "Paper"), http.StatusConflict, ""},
		{"InvalidState", apperror.InvalidState("already archived"), http.StatusConflict, "already archived"},
		{"Validation", apperror.Validation("invalid category id"), http.StatusBadRequest, "invalid category id"},
		{"Unexpected", errors.New("pq: connection refused"), http.StatusInternalServerError, "Internal server error"},
		{"Wrapped", apperror.Wrap(errors.New("boom"), "boom"), http.StatusInternalServerError, "Internal server error"},
		{"Timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeCategoryService{
				archive: func(string, string) (*service.CategoryResponse, error) { return nil, tt.err },
			}
			w := do(newRouter(NewCategoryHandler(svc)), http.MethodPatch, "/api/categories/abc/archive", "", nil)
			require.Equal(t, tt.status, w.Code)

			body := decode(t, w)
			assert.Equal(t, "error", body["status"])
			if tt.message != "" {
				assert.Equal(t, tt.message, body["error"])
			}
		})
	}
}

func TestConflictCarriesDetails(t *testing.T) {
	svc := &fakeCategoryService{
		archive: func(string, string) (*service.CategoryResponse, error) {
			return nil, apperror.DependencyConflict(model.KindCategory, "Paper", "archive", 7, []model.DependentRef{
				{Kind: model.KindProduct, ID: uuid.New(), Label: "A4 Bond"},
			})
		},
	}
	w := do(newRouter(NewCategoryHandler(svc)), http.MethodPatch, "/api/categories/abc/archive", "", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	details := decode(t, w)["details"].(map[string]interface{})
	assert.EqualValues(t, 7, details["count"])
	dependents := details["dependents"].([]interface{})
	require.Len(t, dependents, 1)
	assert.Equal(t, "A4 Bond", dependents[0].(map[string]interface{})["label"])
}

func TestDeletePassesForceAndActor(t *testing.T) {
	actor := uuid.NewString()
	var gotForce bool
	var gotActor string
	svc := &fakeCategoryService{
		purge: func(userID, id string, force bool) error {
			gotActor, gotForce = userID, force
			return nil
		},
	}
	r := newRouter(NewCategoryHandler(svc))

	w := do(r, http.MethodDelete, "/api/categories/abc?force=true", "", map[string]string{middleware.UserIDHeader: actor})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, gotForce)
	assert.Equal(t, actor, gotActor)

	w = do(r, http.MethodDelete, "/api/categories/abc", "", map[string]string{middleware.UserIDHeader: "not-a-uuid"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, gotForce)
	assert.Empty(t, gotActor)
}

func TestCreateRejectsBadPayload(t *testing.T) {
	svc := &fakeCategoryService{
		create: func(string, service.CategoryRequest) (*service.CategoryResponse, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	w := do(newRouter(NewCategoryHandler(svc)), http.MethodPost, "/api/categories", `{"description":"no name"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	svc := &fakeCategoryService{
		list: func(string, *pagination.Params) ([]service.CategoryResponse, int64, error) { return nil, 0, nil },
	}
	r := newRouter(NewCategoryHandler(svc))

	w := do(r, http.MethodGet, "/api/categories", "", map[string]string{middleware.RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))

	w = do(r, http.MethodGet, "/api/categories", "", nil)
	_, err := uuid.Parse(w.Header().Get(middleware.RequestIDHeader))
	assert.NoError(t, err)
}

type fakeScheduleService struct {
	service.ScheduleService
	created *service.ScheduleRequest
}

func (f *fakeScheduleService) Create(_ context.Context, _ string, req service.ScheduleRequest) (*service.ScheduleResponse, error) {
	f.created = &req
	return &service.ScheduleResponse{ID: uuid.NewString(), Day: req.Day}, nil
}

func TestScheduleBindingUsesCustomValidators(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Valid", `{"day":"monday","start_time":"08:00","end_time":"12:00"}`, http.StatusCreated},
		{"BadDay", `{"day":"someday","start_time":"08:00","end_time":"12:00"}`, http.StatusBadRequest},
		{"BadClock", `{"day":"Monday","start_time":"25:00","end_time":"12:00"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schedules := &fakeScheduleService{}
			r := newRouter(NewStaffHandler(nil, schedules))
			w := do(r, http.MethodPost, "/api/schedules", tt.body, nil)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.status == http.StatusCreated, schedules.created != nil)
		})
	}
}
