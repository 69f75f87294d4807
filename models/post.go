package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is an announcement published by an administrator on the community board.
// Posts are never removed by user action: delete marks isActive=false so the
// record survives for history, after a best-effort cleanup of its remote files.
type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Category    string             `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`
	Images      []string           `bson:"images" json:"images"`
	Documents   []string           `bson:"documents" json:"documents"`
	Author      primitive.ObjectID `bson:"author" json:"author"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`

	// AuthorInfo is populated from the users collection on reads, never stored.
	AuthorInfo *AuthorInfo `bson:"authorInfo,omitempty" json:"authorInfo,omitempty"`
}

// AuthorInfo is the public projection of a post's author.
type AuthorInfo struct {
	Name        string `bson:"name" json:"name"`
	Email       string `bson:"email" json:"email"`
	PerfilPhoto string `bson:"perfil_photo" json:"perfil_photo"`
}

// PostUpdate carries the only fields an author may edit after publishing.
// Attachments are replaced wholesale through a new upload, never merged here.
type PostUpdate struct {
	Title       *string `json:"title,omitempty" binding:"omitempty,min=3,max=200"`
	Category    *string `json:"category,omitempty" binding:"omitempty,min=2,max=50"`
	Description *string `json:"description,omitempty" binding:"omitempty,min=10,max=2000"`
}

// IsEmpty reports whether the update would touch nothing.
func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Category == nil && u.Description == nil
}

// Pagination is the page metadata returned alongside every post listing.
type Pagination struct {
	Total       int64   `json:"total"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	TotalPages  int     `json:"totalPages"`
	HasNextPage bool    `json:"hasNextPage"`
	HasPrevPage bool    `json:"hasPrevPage"`
	Showing     Showing `json:"showing"`
}

// Showing describes the 1-based range of results on the current page.
type Showing struct {
	From  int   `json:"from"`
	To    int   `json:"to"`
	Total int64 `json:"total"`
}

// SearchInfo is attached to a listing only when a search term was given.
type SearchInfo struct {
	Query        string `json:"query"`
	ResultsFound int64  `json:"resultsFound"`
	HasResults   bool   `json:"hasResults"`
}

// PostPage is the full result of a filtered post listing.
type PostPage struct {
	Posts      []Post      `json:"posts"`
	Pagination Pagination  `json:"pagination"`
	SearchInfo *SearchInfo `json:"searchInfo,omitempty"`
}
