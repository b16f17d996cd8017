package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"strings"
	"time"

	"photo-social-backend/internal/models"
	"photo-social-backend/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	shortCodeLength   = 8
	shortCodeChars    = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	shortCodeAttempts = 10
)

// LinkOptions configures public link URLs
type LinkOptions struct {
	BaseURL      string
	FallbackURL  string
	AppScheme    string
	DefaultImage string
}

// CreateLinkRequest is the input of Create
type CreateLinkRequest struct {
	LongURL       string `json:"long_url"`
	DisplayName   string `json:"display_name"`
	GenerateImage bool   `json:"generate_image"`
}

// CreatedLink is returned after a short link is stored
type CreatedLink struct {
	ShortCode      string `json:"short_code"`
	ShortURL       string `json:"short_url"`
	LongURL        string `json:"long_url"`
	CustomImageURL string `json:"custom_image_url,omitempty"`
}

// ShortLinkService creates and resolves short links
type ShortLinkService struct {
	links   *repository.ShortLinkRepository
	invites *InviteService
	opts    LinkOptions
	now     func() time.Time
}

// NewShortLinkService creates a new short link service. invites may be nil.
func NewShortLinkService(links *repository.ShortLinkRepository, invites *InviteService, opts LinkOptions) *ShortLinkService {
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.FallbackURL == "" {
		opts.FallbackURL = opts.BaseURL
	}
	return &ShortLinkService{links: links, invites: invites, opts: opts, now: time.Now}
}

// Options returns the link settings
func (s *ShortLinkService) Options() LinkOptions {
	return s.opts
}

// Create stores a short link for userID
func (s *ShortLinkService) Create(ctx context.Context, userID string, req CreateLinkRequest) (*CreatedLink, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateLongURL(req.LongURL); err != nil {
		return nil, err
	}

	code, err := s.generateUniqueCode(ctx)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if req.GenerateImage && s.invites != nil {
		imageURL, err = s.invites.Generate(ctx, InviteInfo{UserID: userID, DisplayName: req.DisplayName})
		if err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("Failed to generate invite image")
			imageURL = ""
		}
	}

	name := req.DisplayName
	if name == "" {
		name = "Unknown"
	}
	link := &models.ShortLink{
		ShortCode:      code,
		LongURL:        req.LongURL,
		CreatedBy:      userID,
		CreatedByName:  name,
		CreatedAt:      s.now().UTC(),
		IsActive:       true,
		CustomImageURL: imageURL,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", userID).
		Str("short_code", code).
		Str("long_url", req.LongURL).
		Msg("Short link created")

	return &CreatedLink{
		ShortCode:      code,
		ShortURL:       s.opts.BaseURL + "/links/" + code,
		LongURL:        req.LongURL,
		CustomImageURL: imageURL,
	}, nil
}

// Resolve returns the long URL of code and records the click
func (s *ShortLinkService) Resolve(ctx context.Context, code string) (string, error) {
	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		return "", err
	}
	if !link.IsActive {
		return "", ErrLinkInactive
	}

	clicks := link.Clicks + 1
	if err := s.links.RecordClick(ctx, code, clicks, s.now().UTC()); err != nil {
		return "", err
	}

	log.Info().
		Str("short_code", code).
		Int("clicks", clicks).
		Str("created_by", link.CreatedBy).
		Msg("Redirecting short link")
	return link.LongURL, nil
}

func (s *ShortLinkService) generateUniqueCode(ctx context.Context) (string, error) {
	for i := 0; i < shortCodeAttempts; i++ {
		code, err := generateShortCode()
		if err != nil {
			return "", err
		}
		exists, err := s.links.Exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code existence: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique short code after %d attempts", shortCodeAttempts)
}

func generateShortCode() (string, error) {
	code := make([]byte, shortCodeLength)
	limit := big.NewInt(int64(len(shortCodeChars)))
	for i := range code {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		code[i] = shortCodeChars[n.Int64()]
	}
	return string(code), nil
}

func validateLongURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("%w: long_url is required", ErrInvalidInput)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: long_url must be an absolute http(s) URL", ErrInvalidInput)
	}
	return nil
}

// IsNotFound reports whether err means a missing document
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
