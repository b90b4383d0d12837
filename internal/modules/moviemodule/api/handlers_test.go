package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	httpapi "github.com/mantonx/moviedb/internal/api"
	"github.com/mantonx/moviedb/internal/config"
	"github.com/mantonx/moviedb/internal/database/dbtest"
	"github.com/mantonx/moviedb/internal/middleware"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/core/filters"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/models"
	"github.com/mantonx/moviedb/internal/modules/moviemodule/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	sec    config.SecurityConfig
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := dbtest.NewSQLite(t)
	dbtest.SeedCategories(t, db, "Documentary", "Short", "Drama", "Action")

	ts := &testServer{db: db, sec: config.SecurityConfig{AllowAnonymousWrites: true}}

	router := gin.New()
	router.Use(httpapi.ErrorMiddleware(), middleware.RequestID())
	handler := NewHandler(service.NewMovieService(db), func() filters.Paging {
		return filters.Paging{DefaultSize: 2, MaxSize: 10}
	})
	handler.RegisterRoutes(router.Group("/api/v1"),
		middleware.RequireWriteAccess(func() config.SecurityConfig { return ts.sec }))

	ts.router = router
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

var carmencita = map[string]interface{}{
	"title":       "Carmencita",
	"imdb_tconst": "tt0000001",
	"year":        1894,
	"runtime":     1,
	"rating":      5.7,
	"category":    []map[string]string{{"name": "Documentary"}, {"name": "Short"}},
}

func (ts *testServer) create(t *testing.T, body interface{}) MovieResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/movies", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[MovieResponse](t, w)
}

func TestListEmpty(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/v1/movies", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[MovieListResponse](t, w)
	assert.Zero(t, resp.Count)
	assert.NotNil(t, resp.Results)
	assert.Empty(t, resp.Results)
	assert.Nil(t, resp.Next)
	assert.Nil(t, resp.Previous)
}

func TestCreateMovie(t *testing.T) {
	ts := newTestServer(t)

	movie := ts.create(t, carmencita)
	assert.NotZero(t, movie.ID)
	assert.Equal(t, "Carmencita", movie.Title)
	assert.Equal(t, "https://www.imdb.com/title/tt0000001/", movie.Link)
	assert.ElementsMatch(t, []CategoryResponse{{Name: "Documentary"}, {Name: "Short"}}, movie.Category)

	w := ts.do(t, http.MethodGet, "/api/v1/movies", nil)
	assert.Equal(t, int64(1), decode[MovieListResponse](t, w).Count)
}

func TestCreateMissingCategories(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]interface{}{
		"title":       "Carmencita",
		"imdb_tconst": "tt0000001",
		"category":    []map[string]string{{"name": "Short"}, {"name": "Western"}, {"name": "Noir"}},
	}

	w := ts.do(t, http.MethodPost, "/api/v1/movies", body)
	assert.Equal(t, http.StatusNotFound, w.Code)

	resp := decode[httpapi.ErrorResponse](t, w)
	assert.Equal(t, "CATEGORY_NOT_FOUND", resp.Error.Code)
	assert.Equal(t, "The following categories do not exist: Western, Noir", resp.Error.Message)
	assert.Equal(t, []interface{}{"Western", "Noir"}, resp.Error.Context["missing_categories"])

	var n int64
	require.NoError(t, ts.db.Model(&models.Movie{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateDuplicateTconst(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, carmencita)

	w := ts.do(t, http.MethodPost, "/api/v1/movies", carmencita)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[httpapi.ErrorResponse](t, w)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "imdb_tconst", resp.Error.Context["field"])

	list := decode[MovieListResponse](t, ts.do(t, http.MethodGet, "/api/v1/movies", nil))
	assert.Equal(t, int64(1), list.Count)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"category field absent", `{"title":"x","imdb_tconst":"tt1"}`},
		{"title missing", `{"imdb_tconst":"tt1","category":[]}`},
		{"tconst too long", `{"title":"x","imdb_tconst":"tt012345678901234567890","category":[]}`},
		{"rating above ten", `{"title":"x","imdb_tconst":"tt1","rating":10.5,"category":[]}`},
		{"year not a number", `{"title":"x","imdb_tconst":"tt1","year":"1999","category":[]}`},
		{"not json", `{"title":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/movies", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", decode[httpapi.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestPatchTitleOnly(t *testing.T) {
	ts := newTestServer(t)
	created := ts.create(t, carmencita)

	w := ts.do(t, http.MethodPatch, "/api/v1/movies/1", map[string]interface{}{"title": "Renamed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[MovieResponse](t, w)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, created.Year, got.Year)
	assert.Equal(t, created.Runtime, got.Runtime)
	assert.Equal(t, created.Rating, got.Rating)
	assert.ElementsMatch(t, created.Category, got.Category)
}

func TestPatchNullClearsField(t *testing.T) {
	ts := newTestServer(t)
	created := ts.create(t, carmencita)

	w := ts.do(t, http.MethodPatch, "/api/v1/movies/1", map[string]interface{}{"year": nil, "rating": nil})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[MovieResponse](t, w)
	assert.Nil(t, got.Year)
	assert.Nil(t, got.Rating)
	assert.Equal(t, created.Runtime, got.Runtime)

	stored := decode[MovieResponse](t, ts.do(t, http.MethodGet, "/api/v1/movies/1", nil))
	assert.Nil(t, stored.Year)
	assert.Nil(t, stored.Rating)
	assert.Equal(t, "Carmencita", stored.Title)
}

func TestPatchValidatesOptionalFields(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, carmencita)

	for _, body := range []string{`{"year":0}`, `{"rating":11}`, `{"runtime":-5}`, `{"year":"soon"}`} {
		w := ts.do(t, http.MethodPatch, "/api/v1/movies/1", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	got := decode[MovieResponse](t, ts.do(t, http.MethodGet, "/api/v1/movies/1", nil))
	require.NotNil(t, got.Year)
	assert.Equal(t, 1894, *got.Year)
}

func TestPatchReplacesCategories(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, carmencita)

	w := ts.do(t, http.MethodPatch, "/api/v1/movies/1", map[string]interface{}{
		"category": []map[string]string{{"name": "Drama"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []CategoryResponse{{Name: "Drama"}}, decode[MovieResponse](t, w).Category)

	got := decode[MovieResponse](t, ts.do(t, http.MethodGet, "/api/v1/movies/1", nil))
	assert.Equal(t, []CategoryResponse{{Name: "Drama"}}, got.Category)
}

func TestPutReplacesEverything(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, carmencita)

	w := ts.do(t, http.MethodPut, "/api/v1/movies/1", map[string]interface{}{
		"title":       "Carmencita",
		"imdb_tconst": "tt0000001",
		"category":    []map[string]string{},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decode[MovieResponse](t, w)
	assert.Nil(t, got.Year)
	assert.Nil(t, got.Rating)
	assert.Empty(t, got.Category)

	// PUT needs the full body
	w = ts.do(t, http.MethodPut, "/api/v1/movies/1", map[string]interface{}{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownMovieIsNotFound(t *testing.T) {
	ts := newTestServer(t)

	for _, req := range []struct{ method, path string }{
		{http.MethodGet, "/api/v1/movies/99"},
		{http.MethodGet, "/api/v1/movies/abc"},
		{http.MethodPatch, "/api/v1/movies/99"},
		{http.MethodDelete, "/api/v1/movies/99"},
		{http.MethodDelete, "/api/v1/movies/-1"},
	} {
		w := ts.do(t, req.method, req.path, `{"title":"x"}`)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", req.method, req.path)
		assert.Equal(t, "NOT_FOUND", decode[httpapi.ErrorResponse](t, w).Error.Code)
	}
}

func TestDeleteMovie(t *testing.T) {
	ts := newTestServer(t)
	ts.create(t, carmencita)

	w := ts.do(t, http.MethodDelete, "/api/v1/movies/1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/movies/1", nil).Code)
}

func TestListFiltersAndPagination(t *testing.T) {
	ts := newTestServer(t)
	seed := []map[string]interface{}{
		{"title": "Heat", "imdb_tconst": "tt0113277", "rating": 8.3, "category": []map[string]string{{"name": "Action"}, {"name": "Drama"}}},
		{"title": "Die Hard", "imdb_tconst": "tt0095016", "rating": 8.2, "category": []map[string]string{{"name": "Action"}}},
		{"title": "The Godfather", "imdb_tconst": "tt0068646", "rating": 9.2, "category": []map[string]string{{"name": "Drama"}}},
		{"title": "Airplane!", "imdb_tconst": "tt0080339", "rating": 7.7, "category": []map[string]string{}},
	}
	for _, body := range seed {
		ts.create(t, body)
	}

	listTitles := func(path string) MovieListResponse {
		w := ts.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		return decode[MovieListResponse](t, w)
	}
	titlesOf := func(resp MovieListResponse) []string {
		out := []string{}
		for _, m := range resp.Results {
			out = append(out, m.Title)
		}
		return out
	}

	resp := listTitles("/api/v1/movies?category=Action&page_size=10")
	assert.Equal(t, []string{"Die Hard", "Heat"}, titlesOf(resp))

	resp = listTitles("/api/v1/movies?rating__gt=8&ordering=-rating&page_size=10")
	assert.Equal(t, []string{"The Godfather", "Heat", "Die Hard"}, titlesOf(resp))

	resp = listTitles("/api/v1/movies?search=GOD")
	assert.Equal(t, []string{"The Godfather"}, titlesOf(resp))

	// default page size is 2 here
	resp = listTitles("/api/v1/movies")
	assert.Equal(t, int64(4), resp.Count)
	assert.Equal(t, []string{"Airplane!", "Die Hard"}, titlesOf(resp))
	require.NotNil(t, resp.Next)
	assert.Contains(t, *resp.Next, "page=2")
	assert.Nil(t, resp.Previous)

	resp = listTitles("/api/v1/movies?page=2")
	assert.Equal(t, []string{"Heat", "The Godfather"}, titlesOf(resp))
	assert.Nil(t, resp.Next)
	require.NotNil(t, resp.Previous)
	assert.NotContains(t, *resp.Previous, "page=")

	w := ts.do(t, http.MethodGet, "/api/v1/movies?rating__gt=eight", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rating__gt", decode[httpapi.ErrorResponse](t, w).Error.Context["param"])
}

func TestRatingFiltersAreStrict(t *testing.T) {
	ts := newTestServer(t)
	for _, body := range []map[string]interface{}{
		{"title": "Below", "imdb_tconst": "tt0000010", "rating": 7.9, "category": []map[string]string{}},
		{"title": "Exact", "imdb_tconst": "tt0000011", "rating": 8.0, "category": []map[string]string{}},
		{"title": "Above", "imdb_tconst": "tt0000012", "rating": 8.1, "category": []map[string]string{}},
	} {
		ts.create(t, body)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"rating__gt=8", []string{"Above"}},
		{"rating__lt=8", []string{"Below"}},
		{"rating__eq=8", []string{"Exact"}},
		{"rating__gt=7.9&rating__lt=8.1", []string{"Exact"}},
	}
	for _, tt := range tests {
		w := ts.do(t, http.MethodGet, "/api/v1/movies?page_size=10&"+tt.query, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		titles := []string{}
		for _, m := range decode[MovieListResponse](t, w).Results {
			titles = append(titles, m.Title)
		}
		assert.Equal(t, tt.want, titles, tt.query)
	}

	for _, bad := range []string{"NaN", "Inf", "-inf"} {
		w := ts.do(t, http.MethodGet, "/api/v1/movies?rating__gt="+bad, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}

func TestWritesRequireTokenWhenLocked(t *testing.T) {
	ts := newTestServer(t)
	ts.sec = config.SecurityConfig{AllowAnonymousWrites: false, JWTSecret: "s3cret"}

	w := ts.do(t, http.MethodPost, "/api/v1/movies", carmencita)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// reads stay open
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/api/v1/movies", nil).Code)
}
