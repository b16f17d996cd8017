package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"photo-social-backend/internal/models"
	"photo-social-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const jwtExpDays = 365

// IdentityRegistry records which identities may still authenticate
type IdentityRegistry interface {
	Register(ctx context.Context, userID string) error
	Exists(ctx context.Context, userID string) (bool, error)
}

// UserService handles user-related business logic
type UserService struct {
	userRepo   *repository.UserRepository
	identities IdentityRegistry
	jwtSecret  string
}

// NewUserService creates a new user service
func NewUserService(userRepo *repository.UserRepository, identities IdentityRegistry, jwtSecret string) *UserService {
	return &UserService{
		userRepo:   userRepo,
		identities: identities,
		jwtSecret:  jwtSecret,
	}
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// Authenticate validates a token and checks its identity has not been deleted
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	userID, err := s.ValidateJWT(tokenString)
	if err != nil {
		return "", err
	}
	if s.identities == nil {
		return userID, nil
	}
	ok, err := s.identities.Exists(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to check identity: %w", err)
	}
	if !ok {
		return "", ErrUnauthenticated
	}
	return userID, nil
}

// CreateUser creates a user document, registers its identity and issues a token
func (s *UserService) CreateUser(ctx context.Context, name, profileImage string) (*models.User, string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		ProfileImage: profileImage,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	if s.identities != nil {
		if err := s.identities.Register(ctx, user.ID); err != nil {
			return nil, "", fmt.Errorf("failed to register identity: %w", err)
		}
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	log.Info().Str("user_id", user.ID).Msg("User created")
	return user, token, nil
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
