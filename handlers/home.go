package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vecindario/models"
)

// HomeService is the slice of the home content service the handlers use.
type HomeService interface {
	GetHomeContent(ctx context.Context) (*models.HomeContent, error)
	CreateOrUpdateHomeContent(ctx context.Context, input *models.HomeContent) (*models.HomeContent, error)
	GetHomeContentHistory(ctx context.Context, pageRaw, limitRaw string) (*models.HomeContentHistory, error)
	RestoreHomeContent(ctx context.Context, idHex string) (*models.HomeContent, error)
	DeleteHomeContent(ctx context.Context, idHex string) error
	GetHomeContentStats(ctx context.Context) (*models.HomeContentStats, error)
	UpdateDownloadItem(ctx context.Context, item models.DownloadItem) (*models.DownloadItem, error)
	UpdateGalleryImage(ctx context.Context, image models.GalleryImage) (*models.GalleryImage, error)
	UpdateInfoMainImage(ctx context.Context, url string) error
}

type HomeHandler struct {
	home HomeService
}

func NewHomeHandler(home HomeService) *HomeHandler {
	return &HomeHandler{home: home}
}

// GetContent serves the active site content. data is null until an
// administrator saves the first version.
func (h *HomeHandler) GetContent(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	content, err := h.home.GetHomeContent(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	if content == nil {
		respondOK(c, http.StatusOK, "No hay contenido configurado", nil)
		return
	}
	respondOK(c, http.StatusOK, "Contenido obtenido correctamente", content)
}

// SaveContent overwrites the active version or creates the first one.
func (h *HomeHandler) SaveContent(c *gin.Context) {
	var input models.HomeContent
	if err := c.ShouldBindJSON(&input); err != nil {
		respondInvalid(c, "Datos de contenido inválidos", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	content, err := h.home.CreateOrUpdateHomeContent(ctx, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Contenido guardado correctamente", content)
}

// GetHistory pages through every stored version, newest first.
func (h *HomeHandler) GetHistory(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	history, err := h.home.GetHomeContentHistory(ctx, c.Query("page"), c.Query("limit"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Historial obtenido correctamente", history)
}

// Restore makes a historical version the active one.
func (h *HomeHandler) Restore(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	content, err := h.home.RestoreHomeContent(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Versión restaurada correctamente", content)
}

// DeleteVersion removes an archived version. The active one is protected.
func (h *HomeHandler) DeleteVersion(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.home.DeleteHomeContent(ctx, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Versión eliminada correctamente", nil)
}

// GetStats summarizes the version collection for the admin dashboard.
func (h *HomeHandler) GetStats(c *gin.Context) {
	ctx, cancel := requestContext(c)
	defer cancel()

	stats, err := h.home.GetHomeContentStats(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Estadísticas obtenidas correctamente", stats)
}

// UpdateDownloadItem upserts one download item of the active version.
func (h *HomeHandler) UpdateDownloadItem(c *gin.Context) {
	var item models.DownloadItem
	if err := c.ShouldBindJSON(&item); err != nil {
		respondInvalid(c, "Datos del archivo inválidos", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	saved, err := h.home.UpdateDownloadItem(ctx, item)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Archivo actualizado correctamente", saved)
}

// UpdateGalleryImage upserts one gallery image of the active version.
func (h *HomeHandler) UpdateGalleryImage(c *gin.Context) {
	var image models.GalleryImage
	if err := c.ShouldBindJSON(&image); err != nil {
		respondInvalid(c, "Datos de la imagen inválidos", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	saved, err := h.home.UpdateGalleryImage(ctx, image)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Imagen actualizada correctamente", saved)
}

type infoMainImageRequest struct {
	MainImage string `json:"mainImage" binding:"required,url"`
}

// UpdateInfoMainImage replaces the info section's main image.
func (h *HomeHandler) UpdateInfoMainImage(c *gin.Context) {
	var req infoMainImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "URL de imagen inválida", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if err := h.home.UpdateInfoMainImage(ctx, req.MainImage); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Imagen principal actualizada correctamente", gin.H{
		"mainImage": req.MainImage,
	})
}
