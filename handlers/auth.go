package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"vecindario/models"
	"vecindario/services"
)

// AuthenticationService is the slice of the auth service the handlers use.
type AuthenticationService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
}

type AuthHandler struct {
	auth AuthenticationService
}

func NewAuthHandler(auth AuthenticationService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates an administrator account and signs it in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "Datos de registro inválidos", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, token, err := h.auth.Register(ctx, services.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "Usuario registrado correctamente", gin.H{
		"token": token,
		"user":  user,
	})
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalid(c, "Datos de acceso inválidos", err)
		return
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, token, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "Sesión iniciada correctamente", gin.H{
		"token": token,
		"user":  user,
	})
}
