package catalog

import (
	"time"

	"github.com/google/uuid"
)

// ResourceView is the flattened read model returned by resource queries.
type ResourceView struct {
	ID             int64     `json:"id"`
	CategoryID     int64     `json:"categoryId"`
	Category       string    `json:"category"`
	Name           string    `json:"name"`
	Icon           string    `json:"icon"`
	Thumbnail      string    `json:"thumbnail"`
	Description    string    `json:"description"`
	URL            string    `json:"url"`
	ViewCount      int64     `json:"viewCount"`
	OwnerID        uuid.UUID `json:"ownerId"`
	Tags           []string  `json:"tags"`
	BookmarksCount int64     `json:"bookmarksCount"`
	LikesCount     int64     `json:"likesCount"`
	IsLiked        bool      `json:"isLiked"`
	Collections    []int64   `json:"collections"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (v ResourceView) ResourceID() int64 { return v.ID }
