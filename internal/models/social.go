package models

import "time"

type Comment struct {
	ID        int       `json:"id"`
	ComicID   int       `json:"comic_id"`
	UserID    int       `json:"user_id"`
	Body      string    `json:"body"`
	UserName  string    `json:"user_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Body string `json:"body" binding:"required,min=1,max=1000"`
}

type Like struct {
	ComicID   int       `json:"comic_id"`
	UserID    int       `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	NotificationEngagement = "engagement"
	NotificationMilestone  = "milestone"
	NotificationComment    = "comment"
	NotificationSystem     = "system"
)

type Notification struct {
	ID        int        `json:"id"`
	UserID    int        `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Data      *string    `json:"data,omitempty"` // JSON
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (n *Notification) IsRead() bool { return n.ReadAt != nil }

type CreateNotificationRequest struct {
	UserID  int    `json:"user_id" binding:"required"`
	Type    string `json:"type" binding:"required"`
	Title   string `json:"title" binding:"required"`
	Message string `json:"message" binding:"required"`
	Data    string `json:"data"`
}

type MasterItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	ImageURL    *string `json:"image_url,omitempty"`
}
