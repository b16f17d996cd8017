package models

import (
	"time"
)

// Collection ids
const (
	UsersCollection          = "users"
	FriendsCollection        = "friends"
	CategoriesCollection     = "categories"
	PhotosCollection         = "photos"
	ReactionsCollection      = "reactions"
	CommentRecordsCollection = "comment_records"
	AudiosCollection         = "audios"
	NotificationsCollection  = "notifications"
	AdminLogsCollection      = "admin_logs"
	ShortLinksCollection     = "short_links"
)

// Photo lifecycle states
const (
	PhotoStatusActive  = "active"
	PhotoStatusDeleted = "deleted"
)

// User represents an account document
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ProfileImage string    `json:"profile_image,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Photo is stored under categories/{categoryId}/photos/{id}
type Photo struct {
	ID         string     `json:"id"`
	Path       string     `json:"-"`
	CategoryID string     `json:"category_id"`
	UserID     string     `json:"user_id"`
	ImageURL   string     `json:"image_url"`
	AudioURL   string     `json:"audio_url,omitempty"`
	Status     string     `json:"status"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CommentRecord is a voice comment attached to one photo
type CommentRecord struct {
	ID           string `json:"id"`
	Path         string `json:"-"`
	PhotoID      string `json:"photo_id"`
	RecorderUser string `json:"recorder_user"`
	AudioURL     string `json:"audio_url,omitempty"`
}

// Reaction is stored under a photo's reactions sub-collection
type Reaction struct {
	ID      string `json:"id"`
	Path    string `json:"-"`
	PhotoID string `json:"photo_id"`
	UserID  string `json:"uid"`
	Emoji   string `json:"emoji,omitempty"`
}

// Audio is a standalone voice memo
type Audio struct {
	ID       string `json:"id"`
	Path     string `json:"-"`
	UserID   string `json:"user_id"`
	AudioURL string `json:"audio_url"`
}

// Notification links a recipient and an actor
type Notification struct {
	ID              string `json:"id"`
	RecipientUserID string `json:"recipient_user_id"`
	ActorUserID     string `json:"actor_user_id"`
}

// Category is a shared space whose members are listed in Mates
type Category struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Mates []string `json:"mates"`
}

// AdminLog is an append-only audit record
type AdminLog struct {
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	TriggeredBy string    `json:"triggered_by,omitempty"`
	Source      string    `json:"source"`
	Deleted     int       `json:"deleted_count"`
	Errors      int       `json:"error_count"`
	Error       string    `json:"error,omitempty"`
	Stack       string    `json:"stack,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ShortLink maps a short code to a long URL
type ShortLink struct {
	ShortCode      string     `json:"short_code"`
	LongURL        string     `json:"long_url"`
	CreatedBy      string     `json:"created_by"`
	CreatedByName  string     `json:"created_by_name"`
	CreatedAt      time.Time  `json:"created_at"`
	Clicks         int        `json:"clicks"`
	IsActive       bool       `json:"is_active"`
	CustomImageURL string     `json:"custom_image_url,omitempty"`
	LastAccessed   *time.Time `json:"last_accessed,omitempty"`
}
