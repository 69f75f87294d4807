package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vecindario/models"
	"vecindario/services"
)

type postsServiceStub struct {
	getAllFn     func(ctx context.Context, q services.ListPostsQuery) (*models.PostPage, error)
	getByIDFn    func(ctx context.Context, idHex string) (*models.Post, error)
	byCategoryFn func(ctx context.Context, category string) ([]models.Post, error)
	createFn     func(ctx context.Context, in services.CreatePostInput) (*models.Post, error)
	updateFn     func(ctx context.Context, idHex string, authorID primitive.ObjectID, upd models.PostUpdate) (*models.Post, error)
	deleteFn     func(ctx context.Context, idHex string, authorID primitive.ObjectID) (*models.CleanupReport, error)
}

func (s *postsServiceStub) GetAllPosts(ctx context.Context, q services.ListPostsQuery) (*models.PostPage, error) {
	return s.getAllFn(ctx, q)
}

func (s *postsServiceStub) GetPostByID(ctx context.Context, idHex string) (*models.Post, error) {
	return s.getByIDFn(ctx, idHex)
}

func (s *postsServiceStub) GetPostsByCategory(ctx context.Context, category string) ([]models.Post, error) {
	return s.byCategoryFn(ctx, category)
}

func (s *postsServiceStub) CreatePost(ctx context.Context, in services.CreatePostInput) (*models.Post, error) {
	return s.createFn(ctx, in)
}

func (s *postsServiceStub) UpdatePost(ctx context.Context, idHex string, authorID primitive.ObjectID, upd models.PostUpdate) (*models.Post, error) {
	return s.updateFn(ctx, idHex, authorID, upd)
}

func (s *postsServiceStub) DeletePost(ctx context.Context, idHex string, authorID primitive.ObjectID) (*models.CleanupReport, error) {
	return s.deleteFn(ctx, idHex, authorID)
}

// asUser simulates the JWT middleware having authenticated userID.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userId", userID)
		c.Next()
	}
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestGetAllPostsEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &postsServiceStub{
		getAllFn: func(_ context.Context, q services.ListPostsQuery) (*models.PostPage, error) {
			assert.Equal(t, "2", q.Page)
			assert.Equal(t, "avisos", q.Category)
			return &models.PostPage{
				Posts:      []models.Post{{Title: "Corte de agua"}},
				Pagination: models.Pagination{Total: 1, Page: 2, Limit: 10},
			}, nil
		},
	}
	r := gin.New()
	r.GET("/api/posts", NewPostHandler(stub).GetAllPosts)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts?page=2&category=avisos", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Publicaciones obtenidas correctamente", body["message"])
	require.NotNil(t, body["data"])
}

func TestGetAllPostsSearchMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		info    *models.SearchInfo
		message string
	}{
		{
			name:    "with results",
			info:    &models.SearchInfo{Query: "agua", ResultsFound: 3, HasResults: true},
			message: `Se encontraron 3 publicaciones para "agua"`,
		},
		{
			name:    "without results",
			info:    &models.SearchInfo{Query: "agua"},
			message: `No se encontraron publicaciones para "agua"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &postsServiceStub{
				getAllFn: func(context.Context, services.ListPostsQuery) (*models.PostPage, error) {
					return &models.PostPage{Posts: []models.Post{}, SearchInfo: tc.info}, nil
				},
			}
			r := gin.New()
			r.GET("/api/posts", NewPostHandler(stub).GetAllPosts)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts?search=agua", nil))

			body := decodeBody(t, w)
			assert.Equal(t, tc.message, body["message"])
		})
	}
}

func TestGetPostErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", models.NewNotFoundError("Publicación no encontrada"), http.StatusNotFound, models.CodeNotFound},
		{"invalid id", models.NewValidationError("ID de publicación inválido"), http.StatusBadRequest, models.CodeValidation},
		{"internal", models.NewInternalError(assert.AnError), http.StatusInternalServerError, models.CodeInternal},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &postsServiceStub{
				getByIDFn: func(context.Context, string) (*models.Post, error) { return nil, tc.err },
			}
			r := gin.New()
			r.GET("/api/posts/:id", NewPostHandler(stub).GetPost)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts/abc", nil))

			require.Equal(t, tc.status, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tc.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestGetPublicPostFraming(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &postsServiceStub{
		getByIDFn: func(_ context.Context, idHex string) (*models.Post, error) {
			return &models.Post{Title: "Asamblea anual"}, nil
		},
	}
	r := gin.New()
	r.GET("/api/posts/public/:id", NewPostHandler(stub).GetPublicPost)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/posts/public/abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	require.Contains(t, body, "post")
	assert.NotContains(t, body, "data")
}

func TestCreatePostRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &postsServiceStub{
		createFn: func(context.Context, services.CreatePostInput) (*models.Post, error) {
			t.Fatal("the service must not be reached without a user")
			return nil, nil
		},
	}
	r := gin.New()
	r.POST("/api/posts", NewPostHandler(stub).CreatePost)

	form := strings.NewReader("title=Corte de agua&category=avisos&description=El martes no habrá agua en la torre B")
	req := httptest.NewRequest(http.MethodPost, "/api/posts", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePostValidatesForm(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &postsServiceStub{}
	r := gin.New()
	r.POST("/api/posts", asUser(primitive.NewObjectID().Hex()), NewPostHandler(stub).CreatePost)

	form := strings.NewReader("title=ab&category=avisos&description=demasiado corto no")
	req := httptest.NewRequest(http.MethodPost, "/api/posts", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, models.CodeValidation, body["code"])
	assert.Contains(t, body, "details")
}

func TestCreatePostPassesAuthor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	author := primitive.NewObjectID()
	stub := &postsServiceStub{
		createFn: func(_ context.Context, in services.CreatePostInput) (*models.Post, error) {
			assert.Equal(t, author, in.Author)
			assert.Equal(t, "Corte de agua", in.Title)
			return &models.Post{Title: in.Title, Author: in.Author}, nil
		},
	}
	r := gin.New()
	r.POST("/api/posts", asUser(author.Hex()), NewPostHandler(stub).CreatePost)

	form := strings.NewReader("title=Corte de agua&category=avisos&description=El martes no habrá agua en la torre B")
	req := httptest.NewRequest(http.MethodPost, "/api/posts", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestUpdatePostForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)

	stub := &postsServiceStub{
		updateFn: func(context.Context, string, primitive.ObjectID, models.PostUpdate) (*models.Post, error) {
			return nil, models.NewForbiddenError("No tienes permiso para editar esta publicación")
		},
	}
	r := gin.New()
	r.PATCH("/api/posts/:id", asUser(primitive.NewObjectID().Hex()), NewPostHandler(stub).UpdatePost)

	req := httptest.NewRequest(http.MethodPatch, "/api/posts/abc", strings.NewReader(`{"title":"Nuevo título"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, models.CodeForbidden, body["code"])
}

func TestDeletePostReturnsCleanupReport(t *testing.T) {
	gin.SetMode(gin.TestMode)

	report := &models.CleanupReport{
		Images:    models.CleanupCounts{Deleted: 2, Errors: []string{}},
		Documents: models.CleanupCounts{Failed: 1, Errors: []string{"remote error"}},
		Attempted: true,
	}
	report.Resolve()

	stub := &postsServiceStub{
		deleteFn: func(context.Context, string, primitive.ObjectID) (*models.CleanupReport, error) {
			return report, nil
		},
	}
	r := gin.New()
	r.DELETE("/api/posts/:id", asUser(primitive.NewObjectID().Hex()), NewPostHandler(stub).DeletePost)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/posts/abc", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	cleanup, ok := data["cloudinaryCleanup"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "partial", cleanup["outcome"])
}
