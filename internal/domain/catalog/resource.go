package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a bookmarked link. OwnerID is the creating user; visibility for
// other users is tracked through ResourceOwner.
type Resource struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  int64     `gorm:"column:category_id;not null;index" json:"category_id"`
	Name        string    `gorm:"column:name;not null" json:"name"`
	Icon        string    `gorm:"column:icon" json:"icon"`
	Thumbnail   string    `gorm:"column:thumbnail" json:"thumbnail"`
	Description string    `gorm:"column:description;type:text" json:"description"`
	URL         string    `gorm:"column:url;not null;uniqueIndex:idx_resource_owner_url,priority:2" json:"url"`
	ViewCount   int64     `gorm:"column:view_count;not null;default:0" json:"view_count"`
	OwnerID     uuid.UUID `gorm:"type:uuid;column:owner_id;not null;index;uniqueIndex:idx_resource_owner_url,priority:1" json:"owner_id"`
	CreatedAt   time.Time `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now();index" json:"updated_at"`
}

func (Resource) TableName() string { return "resource" }

// ResourceTag links a resource to a tag.
type ResourceTag struct {
	ResourceID int64     `gorm:"column:resource_id;primaryKey;autoIncrement:false" json:"resource_id"`
	TagID      int64     `gorm:"column:tag_id;primaryKey;autoIncrement:false;index" json:"tag_id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ResourceTag) TableName() string { return "resource_tag" }

// ResourceOwner is the many-to-many ownership association. Soft deletion
// removes only the caller's row.
type ResourceOwner struct {
	ResourceID int64     `gorm:"column:resource_id;primaryKey;autoIncrement:false" json:"resource_id"`
	UserID     uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey;index" json:"user_id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ResourceOwner) TableName() string { return "resource_owner" }

type ResourceLike struct {
	ResourceID int64     `gorm:"column:resource_id;primaryKey;autoIncrement:false" json:"resource_id"`
	UserID     uuid.UUID `gorm:"type:uuid;column:user_id;primaryKey;index" json:"user_id"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ResourceLike) TableName() string { return "resource_like" }
