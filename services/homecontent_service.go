package services

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"vecindario/cache"
	"vecindario/models"
)

const (
	activeContentCacheKey = "home:active"
	activeContentCacheTTL = 5 * time.Minute
)

// HomeContentRepository is what HomeContentService needs from persistence.
type HomeContentRepository interface {
	ActiveID(ctx context.Context) (primitive.ObjectID, bool, error)
	SetActive(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.HomeContent, error)
	Insert(ctx context.Context, content *models.HomeContent) error
	ReplaceSections(ctx context.Context, id primitive.ObjectID, content *models.HomeContent) error
	SetInfoMainImage(ctx context.Context, id primitive.ObjectID, url string) error
	FindPage(ctx context.Context, skip, limit int) ([]models.HomeContent, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	ItemsByContent(ctx context.Context, contentID primitive.ObjectID) ([]models.HomeItem, error)
	UpsertItem(ctx context.Context, item models.HomeItem) error
	ReplaceSectionItems(ctx context.Context, contentID primitive.ObjectID, section string, items []models.HomeItem) error
	DeleteItemsByContent(ctx context.Context, contentID primitive.ObjectID) error
}

// HomeContentService manages the versioned site content. Exactly one version
// is active at a time (or none while the collection is empty); activation is
// a single pointer write, so the invariant holds even under concurrent
// restores.
type HomeContentService struct {
	repo HomeContentRepository
}

func NewHomeContentService(repo HomeContentRepository) *HomeContentService {
	return &HomeContentService{repo: repo}
}

func downloadItemsToRecords(items []models.DownloadItem) []models.HomeItem {
	records := make([]models.HomeItem, 0, len(items))
	for _, it := range items {
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		records = append(records, models.HomeItem{
			ItemID:      it.ID,
			Title:       it.Title,
			Description: it.Description,
			URL:         it.URL,
			FileType:    it.FileType,
		})
	}
	return records
}

func galleryImagesToRecords(images []models.GalleryImage) []models.HomeItem {
	records := make([]models.HomeItem, 0, len(images))
	for _, img := range images {
		if img.ID == "" {
			img.ID = uuid.NewString()
		}
		records = append(records, models.HomeItem{
			ItemID:  img.ID,
			URL:     img.URL,
			Caption: img.Caption,
		})
	}
	return records
}

// assemble attaches the child items of a version to its sections.
func (s *HomeContentService) assemble(ctx context.Context, content *models.HomeContent) error {
	items, err := s.repo.ItemsByContent(ctx, content.ID)
	if err != nil {
		return err
	}

	content.Downloads.Items = []models.DownloadItem{}
	content.Gallery.Images = []models.GalleryImage{}
	for _, it := range items {
		switch it.Section {
		case models.SectionDownloads:
			content.Downloads.Items = append(content.Downloads.Items, models.DownloadItem{
				ID:          it.ItemID,
				Title:       it.Title,
				Description: it.Description,
				URL:         it.URL,
				FileType:    it.FileType,
			})
		case models.SectionGallery:
			content.Gallery.Images = append(content.Gallery.Images, models.GalleryImage{
				ID:      it.ItemID,
				URL:     it.URL,
				Caption: it.Caption,
			})
		}
	}
	return nil
}

func (s *HomeContentService) loadActive(ctx context.Context) (*models.HomeContent, error) {
	activeID, ok, err := s.repo.ActiveID(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if !ok {
		return nil, nil
	}

	content, err := s.repo.FindByID(ctx, activeID)
	if err == mongo.ErrNoDocuments {
		log.Printf("[HomeContent] pointer targets missing version %s", activeID.Hex())
		return nil, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	if err := s.assemble(ctx, content); err != nil {
		return nil, models.NewInternalError(err)
	}
	content.IsActive = true
	return content, nil
}

// GetHomeContent returns the active version, or nil when none exists.
// Served through the cache; every write path below invalidates it.
func (s *HomeContentService) GetHomeContent(ctx context.Context) (*models.HomeContent, error) {
	var cached models.HomeContent
	if hit, err := cache.GetJSON(ctx, activeContentCacheKey, &cached); err == nil && hit {
		return &cached, nil
	}

	content, err := s.loadActive(ctx)
	if err != nil || content == nil {
		return content, err
	}

	cache.SetJSON(ctx, activeContentCacheKey, content, activeContentCacheTTL)
	return content, nil
}

func normalizeContent(input *models.HomeContent) {
	// The client's own id must never overwrite an unrelated version.
	input.ID = primitive.NilObjectID
	if input.Features.Cards == nil {
		input.Features.Cards = []models.FeatureCard{}
	}
	if input.Info.Cards == nil {
		input.Info.Cards = []models.InfoCard{}
	}
	// Absent mainImage fields stay nil pointers and are stored as explicit
	// nulls by the bson tags, never left undefined.
}

// CreateOrUpdateHomeContent overwrites the active version in place, or
// inserts the first version and points the singleton at it.
func (s *HomeContentService) CreateOrUpdateHomeContent(ctx context.Context, input *models.HomeContent) (*models.HomeContent, error) {
	normalizeContent(input)

	downloadRecords := downloadItemsToRecords(input.Downloads.Items)
	galleryRecords := galleryImagesToRecords(input.Gallery.Images)

	activeID, ok, err := s.repo.ActiveID(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	var contentID primitive.ObjectID
	if ok {
		err := s.repo.ReplaceSections(ctx, activeID, input)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, models.NewInternalError(err)
		}
		if err == nil {
			contentID = activeID
		}
		// A dangling pointer falls through to the insert path below.
		ok = err == nil
	}

	if !ok {
		now := time.Now()
		input.CreatedAt = now
		input.UpdatedAt = now
		if err := s.repo.Insert(ctx, input); err != nil {
			return nil, models.NewInternalError(err)
		}
		contentID = input.ID
		if err := s.repo.SetActive(ctx, contentID); err != nil {
			return nil, models.NewInternalError(err)
		}
	}

	if err := s.repo.ReplaceSectionItems(ctx, contentID, models.SectionDownloads, downloadRecords); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := s.repo.ReplaceSectionItems(ctx, contentID, models.SectionGallery, galleryRecords); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.Invalidate(ctx, activeContentCacheKey)
	return s.loadActive(ctx)
}

// GetHomeContentHistory returns the raw version audit trail, newest first.
// Every stored version appears, the active one included.
func (s *HomeContentService) GetHomeContentHistory(ctx context.Context, pageRaw, limitRaw string) (*models.HomeContentHistory, error) {
	page := sanitizePage(pageRaw)
	limit := sanitizeLimit(limitRaw)
	skip := (page - 1) * limit

	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	versions, err := s.repo.FindPage(ctx, skip, limit)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	activeID, ok, err := s.repo.ActiveID(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if ok {
		for i := range versions {
			versions[i].IsActive = versions[i].ID == activeID
		}
	}

	return &models.HomeContentHistory{
		Versions:   versions,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// RestoreHomeContent makes a historical version the active one. The whole
// transition is the single pointer write.
func (s *HomeContentService) RestoreHomeContent(ctx context.Context, idHex string) (*models.HomeContent, error) {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return nil, models.NewValidationError("ID de versión inválido")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, models.NewNotFoundError("Versión no encontrada")
		}
		return nil, models.NewInternalError(err)
	}

	if err := s.repo.SetActive(ctx, id); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.Invalidate(ctx, activeContentCacheKey)
	return s.loadActive(ctx)
}

// DeleteHomeContent permanently removes an archived version and its items.
// Deleting the active version is a guarded error, never a silent fallback.
func (s *HomeContentService) DeleteHomeContent(ctx context.Context, idHex string) error {
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		return models.NewValidationError("ID de versión inválido")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.NewNotFoundError("Versión no encontrada")
		}
		return models.NewInternalError(err)
	}

	activeID, ok, err := s.repo.ActiveID(ctx)
	if err != nil {
		return models.NewInternalError(err)
	}
	if ok && activeID == id {
		return models.NewConflictError("No se puede eliminar el contenido activo")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}
	if err := s.repo.DeleteItemsByContent(ctx, id); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetHomeContentStats summarizes the version collection.
func (s *HomeContentService) GetHomeContentStats(ctx context.Context) (*models.HomeContentStats, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	stats := &models.HomeContentStats{TotalVersions: total}

	activeID, ok, err := s.repo.ActiveID(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if ok {
		if content, err := s.repo.FindByID(ctx, activeID); err == nil {
			stats.HasActiveContent = true
			stats.LastUpdate = &content.UpdatedAt
		}
	}
	return stats, nil
}

func (s *HomeContentService) activeOrError(ctx context.Context) (primitive.ObjectID, error) {
	activeID, ok, err := s.repo.ActiveID(ctx)
	if err != nil {
		return primitive.NilObjectID, models.NewInternalError(err)
	}
	if !ok {
		return primitive.NilObjectID, models.NewNotFoundError("No hay contenido activo")
	}
	return activeID, nil
}

// UpdateDownloadItem upserts one download item of the active version: a
// single child-record write keyed by the item's id.
func (s *HomeContentService) UpdateDownloadItem(ctx context.Context, item models.DownloadItem) (*models.DownloadItem, error) {
	activeID, err := s.activeOrError(ctx)
	if err != nil {
		return nil, err
	}

	if item.ID == "" {
		item.ID = uuid.NewString()
	}

	record := models.HomeItem{
		ContentID:   activeID,
		Section:     models.SectionDownloads,
		ItemID:      item.ID,
		Title:       item.Title,
		Description: item.Description,
		URL:         item.URL,
		FileType:    item.FileType,
	}
	if err := s.repo.UpsertItem(ctx, record); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.Invalidate(ctx, activeContentCacheKey)
	return &item, nil
}

// UpdateGalleryImage upserts one gallery image of the active version.
func (s *HomeContentService) UpdateGalleryImage(ctx context.Context, image models.GalleryImage) (*models.GalleryImage, error) {
	activeID, err := s.activeOrError(ctx)
	if err != nil {
		return nil, err
	}

	if image.ID == "" {
		image.ID = uuid.NewString()
	}

	record := models.HomeItem{
		ContentID: activeID,
		Section:   models.SectionGallery,
		ItemID:    image.ID,
		URL:       image.URL,
		Caption:   image.Caption,
	}
	if err := s.repo.UpsertItem(ctx, record); err != nil {
		return nil, models.NewInternalError(err)
	}

	cache.Invalidate(ctx, activeContentCacheKey)
	return &image, nil
}

// UpdateInfoMainImage replaces the info section's main image on the active
// version.
func (s *HomeContentService) UpdateInfoMainImage(ctx context.Context, url string) error {
	activeID, err := s.activeOrError(ctx)
	if err != nil {
		return err
	}

	if err := s.repo.SetInfoMainImage(ctx, activeID, url); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.NewNotFoundError("Versión no encontrada")
		}
		return models.NewInternalError(err)
	}

	cache.Invalidate(ctx, activeContentCacheKey)
	return nil
}
