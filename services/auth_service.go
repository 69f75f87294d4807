package services

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"vecindario/middleware"
	"vecindario/models"
)

// UserRepository is what AuthService needs from persistence.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	Insert(ctx context.Context, user *models.User) error
}

type AuthService struct {
	users  UserRepository
	secret []byte
	ttl    time.Duration
	cost   int
}

func NewAuthService(users UserRepository, secret string, ttl time.Duration, cost int) *AuthService {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{users: users, secret: []byte(secret), ttl: ttl, cost: cost}
}

// IssueToken signs an HS256 token for the given user.
func (s *AuthService) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := &middleware.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// RegisterInput is a new administrator account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an account and logs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	_, err := s.users.FindByEmail(ctx, in.Email)
	if err == nil {
		return nil, "", models.NewConflictError("El correo ya está registrado")
	}
	if err != mongo.ErrNoDocuments {
		return nil, "", models.NewInternalError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.users.Insert(ctx, user); err != nil {
		return nil, "", models.NewInternalError(err)
	}

	token, err := s.IssueToken(user.ID.Hex())
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}

// Login verifies credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == mongo.ErrNoDocuments {
		return nil, "", models.NewUnauthorizedError("Credenciales inválidas")
	}
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", models.NewUnauthorizedError("Credenciales inválidas")
	}

	token, err := s.IssueToken(user.ID.Hex())
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return user, token, nil
}
