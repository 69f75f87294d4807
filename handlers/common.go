// Package handlers translates HTTP requests into service calls and maps
// results and errors onto the JSON response envelope.
package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"vecindario/models"
)

const requestTimeout = 10 * time.Second

// requestContext bounds every handler's downstream work the same way.
func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), requestTimeout)
}

// currentUserID reads the authenticated user set by the JWT middleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString("userId"))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// respondOK writes the success envelope.
func respondOK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

var statusByCode = map[string]int{
	models.CodeValidation:      http.StatusBadRequest,
	models.CodeUnauthorized:    http.StatusUnauthorized,
	models.CodeForbidden:       http.StatusForbidden,
	models.CodeNotFound:        http.StatusNotFound,
	models.CodeConflict:        http.StatusConflict,
	models.CodeExternalService: http.StatusBadGateway,
	models.CodeInternal:        http.StatusInternalServerError,
}

// respondError writes the error envelope. Wrapped causes go to the server
// log only; the response carries a single user-facing message.
func respondError(c *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}

	if appErr.Err != nil {
		log.Printf("[%s] %s %s: %v", appErr.Code, c.Request.Method, c.Request.URL.Path, appErr.Err)
	}

	status, ok := statusByCode[appErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   appErr.Message,
		"code":    appErr.Code,
	})
}

// respondInvalid writes a 400 for request bodies that failed schema binding.
func respondInvalid(c *gin.Context, message string, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"code":    models.CodeValidation,
		"details": err.Error(),
	})
}

func respondUnauthorized(c *gin.Context) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error":   "Usuario no autenticado",
		"code":    models.CodeUnauthorized,
	})
}
