package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vecindario/models"
	"vecindario/services"
)

// PostsService is the slice of the post service the handlers use.
type PostsService interface {
	GetAllPosts(ctx context.Context, q services.ListPostsQuery) (*models.PostPage, error)
	GetPostByID(ctx context.Context, idHex string) (*models.Post, error)
	GetPostsByCategory(ctx context.Context, category string) ([]models.Post, error)
	CreatePost(ctx context.Context, in services.CreatePostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, idHex string, authorID primitive.ObjectID, upd models.PostUpdate) (*models.Post, error)
	DeletePost(ctx context.Context, idHex string, authorID primitive.ObjectID) (*models.CleanupReport, error)
}

type PostHandler struct {
	posts PostsService
}

func NewPostHandler(posts PostsService) *PostHandler {
	return &PostHandler{posts: posts}
}

// GetAllPosts lists active posts with filtering, search and pagination.
func (h *PostHandler) GetAllPosts(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	page, err := h.posts.GetAllPosts(ctx, services.ListPostsQuery{
		Page:       c.Query("page"),
		Limit:      c.Query("limit"),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		Author:     c.Query("author"),
		DateFilter: c.Query("dateFilter"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	message := "Publicaciones obtenidas correctamente"
	if info := page.SearchInfo; info != nil {
		if info.HasResults {
			message = fmt.Sprintf("Se encontraron %d publicaciones para \"%s\"", info.ResultsFound, info.Query)
		} else {
			message = fmt.Sprintf("No se encontraron publicaciones para \"%s\"", info.Query)
		}
	}

	respondOK(c, http.StatusOK, message, page)
}

// GetPost fetches one active post.
func (h *PostHandler) GetPost(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Publicación obtenida correctamente", post)
}

// GetPublicPost serves the same post under the framing the public site
// embeds directly.
func (h *PostHandler) GetPublicPost(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.GetPostByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "post": post})
}

// GetPostsByCategory lists a category without pagination.
func (h *PostHandler) GetPostsByCategory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	posts, err := h.posts.GetPostsByCategory(ctx, c.Param("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Publicaciones obtenidas correctamente", gin.H{"posts": posts})
}

type createPostRequest struct {
	Title       string `form:"title" binding:"required,min=3,max=200"`
	Category    string `form:"category" binding:"required,min=2,max=50"`
	Description string `form:"description" binding:"required,min=10,max=2000"`
}

// CreatePost accepts a multipart form with optional repeated "images" and
// "documents" file fields.
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBind(&req); err != nil {
		respondInvalid(c, "Datos de publicación inválidos", err)
		return
	}

	authorID, ok := currentUserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	in := services.CreatePostInput{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		Author:      authorID,
	}
	if form, err := c.MultipartForm(); err == nil && form != nil {
		in.Images = form.File["images"]
		in.Documents = form.File["documents"]
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.CreatePost(ctx, in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Publicación creada correctamente", post)
}

// UpdatePost edits the text fields of an owned post.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var upd models.PostUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		respondInvalid(c, "Datos de publicación inválidos", err)
		return
	}

	authorID, ok := currentUserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	post, err := h.posts.UpdatePost(ctx, c.Param("id"), authorID, upd)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Publicación actualizada correctamente", post)
}

// DeletePost soft-deletes an owned post and reports how the remote file
// cleanup went.
func (h *PostHandler) DeletePost(c *gin.Context) {
	authorID, ok := currentUserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	report, err := h.posts.DeletePost(ctx, c.Param("id"), authorID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Publicación eliminada correctamente", gin.H{
		"cloudinaryCleanup": report,
	})
}
