package handlers

import (
	"context"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"vecindario/models"
	"vecindario/notifications"
)

// PushStore persists browser push subscriptions.
type PushStore interface {
	Upsert(ctx context.Context, sub models.PushSubscription) error
}

type PushHandler struct {
	store       PushStore
	broadcaster *notifications.Broadcaster
}

func NewPushHandler(store PushStore, broadcaster *notifications.Broadcaster) *PushHandler {
	return &PushHandler{store: store, broadcaster: broadcaster}
}

// GetVapidPublicKey hands the browser the key it subscribes with.
func (h *PushHandler) GetVapidPublicKey(c *gin.Context) {
	if !h.broadcaster.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "Las notificaciones no están configuradas",
			"code":    models.CodeExternalService,
		})
		return
	}
	respondOK(c, http.StatusOK, "Clave pública obtenida correctamente", gin.H{
		"publicKey": h.broadcaster.PublicKey(),
	})
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Subscribe stores the caller's push subscription, one per user.
func (h *PushHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "Datos de suscripción inválidos", err)
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		respondUnauthorized(c)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	sub := models.PushSubscription{
		UserID: userID,
		Sub: webpush.Subscription{
			Endpoint: req.Endpoint,
			Keys: webpush.Keys{
				P256dh: req.Keys.P256dh,
				Auth:   req.Keys.Auth,
			},
		},
	}
	if err := h.store.Upsert(ctx, sub); err != nil {
		respondError(c, models.NewInternalError(err))
		return
	}
	respondOK(c, http.StatusOK, "Suscripción guardada correctamente", gin.H{
		"userId": userID.Hex(),
	})
}
