// Package services holds the business rules between the HTTP handlers and
// the persistence layer.
package services

import (
	"context"
	"log"
	"math"
	"mime/multipart"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vecindario/models"
	"vecindario/repository"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	maxImages    = 10
	maxDocuments = 5
)

// PostRepository is what PostService needs from persistence.
type PostRepository interface {
	Count(ctx context.Context, f repository.PostFilter) (int64, error)
	FindPage(ctx context.Context, f repository.PostFilter, skip, limit int) ([]models.Post, error)
	FindActiveByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	FindActiveByCategory(ctx context.Context, category string) ([]models.Post, error)
	Insert(ctx context.Context, post *models.Post) error
	UpdateFields(ctx context.Context, id primitive.ObjectID, upd models.PostUpdate) (*models.Post, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
}

// MediaService uploads and deletes remote attachments.
type MediaService interface {
	UploadPostFiles(ctx context.Context, images, documents []*multipart.FileHeader) ([]string, []string, error)
	DeletePostFiles(ctx context.Context, images, documents []string) models.CleanupReport
}

// Notifier broadcasts a new post to push subscribers. Best-effort.
type Notifier interface {
	NotifyNewPost(post *models.Post)
}

type PostService struct {
	repo     PostRepository
	media    MediaService
	notifier Notifier
}

func NewPostService(repo PostRepository, media MediaService, notifier Notifier) *PostService {
	return &PostService{repo: repo, media: media, notifier: notifier}
}

// ListPostsQuery carries the raw, untrusted query parameters of a listing
// request. Sanitization happens here, not in the handler.
type ListPostsQuery struct {
	Page       string
	Limit      string
	Category   string
	Search     string
	Author     string
	DateFilter string
}

func sanitizePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return defaultPage
	}
	return n
}

func sanitizeLimit(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return defaultLimit
	}
	if n < 1 {
		return 1
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999*int(time.Millisecond), t.Location())
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// resolveDateRange maps a dateFilter value to a createdAt range. Unknown
// values silently disable date filtering, matching the product's tolerant
// handling of stale frontend filter options.
func resolveDateRange(filter string, now time.Time) (*time.Time, *time.Time) {
	switch strings.TrimSpace(filter) {
	case "", "all":
		return nil, nil
	case "today":
		from, to := startOfDay(now), endOfDay(now)
		return &from, &to
	case "week":
		from, to := now.Add(-7*24*time.Hour), endOfDay(now)
		return &from, &to
	case "month":
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to := endOfDay(now)
		return &from, &to
	}

	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(filter), now.Location())
	if err != nil {
		return nil, nil
	}
	from, to := startOfDay(day), endOfDay(day)
	return &from, &to
}

// GetAllPosts returns one page of active posts with pagination metadata and,
// when a search term was given, the search result summary.
func (s *PostService) GetAllPosts(ctx context.Context, q ListPostsQuery) (*models.PostPage, error) {
	page := sanitizePage(q.Page)
	limit := sanitizeLimit(q.Limit)
	skip := (page - 1) * limit

	search := strings.TrimSpace(q.Search)
	filter := repository.PostFilter{
		Category: strings.TrimSpace(q.Category),
		Search:   search,
	}
	if author := strings.TrimSpace(q.Author); author != "" {
		if id, err := primitive.ObjectIDFromHex(author); err == nil {
			filter.Author = &id
		}
	}
	filter.From, filter.To = resolveDateRange(q.DateFilter, time.Now())

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	posts, err := s.repo.FindPage(ctx, filter, skip, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	from := 0
	if page > 1 || total > 0 {
		from = skip + 1
	}
	to := skip + limit
	if int64(to) > total {
		to = int(total)
	}

	result := &models.PostPage{
		Posts: posts,
		Pagination: models.Pagination{
			Total:       total,
			Page:        page,
			Limit:       limit,
			TotalPages:  totalPages,
			HasNextPage: page < totalPages,
			HasPrevPage: page > 1,
			Showing:     models.Showing{From: from, To: to, Total: total},
		},
	}

	if search != "" {
		result.SearchInfo = &models.SearchInfo{
			Query:        search,
			ResultsFound: total,
			HasResults:   total > 0,
		}
	}

	return result, nil
}

// GetPostByID returns one active post.
func (s *PostService) GetPostByID(ctx context.Context, idHex string) (*models.Post, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, models.NewValidationError("ID de publicación inválido")
	}

	post, err := s.repo.FindActiveByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("Publicación no encontrada")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

// GetPostsByCategory returns all active posts of one category, unpaginated.
func (s *PostService) GetPostsByCategory(ctx context.Context, category string) ([]models.Post, error) {
	posts, err := s.repo.FindActiveByCategory(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// CreatePostInput is a new post plus its multipart attachments.
type CreatePostInput struct {
	Title       string
	Category    string
	Description string
	Author      primitive.ObjectID
	Images      []*multipart.FileHeader
	Documents   []*multipart.FileHeader
}

// CreatePost uploads the attachments first (all-or-nothing) and only then
// persists the post, so a stored post never references a missing file.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if len(in.Images) > maxImages {
		return nil, models.NewValidationError("Máximo 10 imágenes por publicación")
	}
	if len(in.Documents) > maxDocuments {
		return nil, models.NewValidationError("Máximo 5 documentos por publicación")
	}

	imageURLs, documentURLs, err := s.media.UploadPostFiles(ctx, in.Images, in.Documents)
	if err != nil {
		return nil, models.NewExternalServiceError("Error al subir los archivos adjuntos", err)
	}
	if imageURLs == nil {
		imageURLs = []string{}
	}
	if documentURLs == nil {
		documentURLs = []string{}
	}

	now := time.Now()
	post := &models.Post{
		Title:       in.Title,
		Category:    in.Category,
		Description: in.Description,
		Images:      imageURLs,
		Documents:   documentURLs,
		Author:      in.Author,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, post); err != nil {
		return nil, models.NewInternalError(err)
	}

	if s.notifier != nil {
		s.notifier.NotifyNewPost(post)
	}

	if populated, err := s.repo.FindActiveByID(ctx, post.ID); err == nil {
		return populated, nil
	}
	return post, nil
}

// UpdatePost applies the provided text fields after checking that the caller
// owns the post. The ID comparison is by value.
func (s *PostService) UpdatePost(ctx context.Context, idHex string, authorID primitive.ObjectID, upd models.PostUpdate) (*models.Post, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, models.NewValidationError("ID de publicación inválido")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("Publicación no encontrada")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if existing.Author != authorID {
		return nil, models.NewForbiddenError("No tienes permiso para modificar esta publicación")
	}

	if upd.IsEmpty() {
		return s.repo.FindActiveByID(ctx, id)
	}

	updated, err := s.repo.UpdateFields(ctx, id, upd)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return updated, nil
}

// DeletePost soft-deletes an owned post. Remote cleanup runs first and is
// best-effort: its failures are reported back, never fatal.
func (s *PostService) DeletePost(ctx context.Context, idHex string, authorID primitive.ObjectID) (*models.CleanupReport, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, models.NewValidationError("ID de publicación inválido")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err == mongo.ErrNoDocuments {
		return nil, models.NewNotFoundError("Publicación no encontrada")
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if existing.Author != authorID {
		return nil, models.NewForbiddenError("No tienes permiso para eliminar esta publicación")
	}

	report := s.media.DeletePostFiles(ctx, existing.Images, existing.Documents)
	if report.Outcome != models.CleanupClean {
		log.Printf("[DeletePost] cleanup %s for post %s: %d images failed, %d documents failed",
			report.Outcome, id.Hex(), report.Images.Failed, report.Documents.Failed)
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &report, nil
}
