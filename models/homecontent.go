package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Home item sections. Download items and gallery images live in their own
// collection keyed by (contentId, itemId, section) so a targeted item write
// is a single upsert instead of a whole-document rewrite.
const (
	SectionDownloads = "downloads"
	SectionGallery   = "gallery"
)

// HomeContent is one version of the public site content. Which version is
// currently served is decided by a singleton pointer document, not by a flag
// on the version itself, so activation is always a single atomic write.
type HomeContent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Hero      HeroSection        `bson:"hero" json:"hero"`
	Features  FeaturesSection    `bson:"features" json:"features"`
	Downloads DownloadsSection   `bson:"downloads" json:"downloads"`
	Info      InfoSection        `bson:"info" json:"info"`
	Gallery   GallerySection     `bson:"gallery" json:"gallery"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`

	// IsActive is derived from the pointer on reads, never stored.
	IsActive bool `bson:"-" json:"isActive"`
}

type HeroSection struct {
	Title     string  `bson:"title" json:"title"`
	Subtitle  string  `bson:"subtitle" json:"subtitle"`
	MainImage *string `bson:"mainImage" json:"mainImage"`
}

type FeaturesSection struct {
	Title string        `bson:"title" json:"title"`
	Cards []FeatureCard `bson:"cards" json:"cards"`
}

type FeatureCard struct {
	ID          string `bson:"id" json:"id"`
	Icon        string `bson:"icon" json:"icon"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

// DownloadsSection stores only its headers in the version document; the
// items themselves are child records assembled on read.
type DownloadsSection struct {
	Title       string         `bson:"title" json:"title"`
	Description string         `bson:"description" json:"description"`
	Items       []DownloadItem `bson:"-" json:"items"`
}

type DownloadItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	FileType    string `json:"fileType"`
}

type InfoSection struct {
	Title       string     `bson:"title" json:"title"`
	Description string     `bson:"description" json:"description"`
	MainImage   *string    `bson:"mainImage" json:"mainImage"`
	Cards       []InfoCard `bson:"cards" json:"cards"`
}

type InfoCard struct {
	ID          string `bson:"id" json:"id"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
}

type GallerySection struct {
	Title  string         `bson:"title" json:"title"`
	Images []GalleryImage `bson:"-" json:"images"`
}

type GalleryImage struct {
	ID      string `json:"id"`
	URL     string `json:"url"`
	Caption string `json:"caption"`
}

// HomeItem is the child record behind download items and gallery images.
// (ContentID, Section, ItemID) is the natural key; writes are upserts.
type HomeItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	ContentID   primitive.ObjectID `bson:"contentId" json:"-"`
	Section     string             `bson:"section" json:"-"`
	ItemID      string             `bson:"itemId" json:"id"`
	Title       string             `bson:"title,omitempty" json:"title,omitempty"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	URL         string             `bson:"url,omitempty" json:"url,omitempty"`
	FileType    string             `bson:"fileType,omitempty" json:"fileType,omitempty"`
	Caption     string             `bson:"caption,omitempty" json:"caption,omitempty"`
}

// HomeContentStats summarizes the version collection for the admin panel.
type HomeContentStats struct {
	TotalVersions    int64      `json:"totalVersions"`
	HasActiveContent bool       `json:"hasActiveContent"`
	LastUpdate       *time.Time `json:"lastUpdate"`
}

// HomeContentHistory is one page of the raw version audit trail.
type HomeContentHistory struct {
	Versions   []HomeContent `json:"versions"`
	Total      int64         `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"totalPages"`
}
