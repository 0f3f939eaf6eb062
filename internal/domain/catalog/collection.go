package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a user's named bookmark folder.
type Collection struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID   uuid.UUID `gorm:"type:uuid;column:owner_id;not null;uniqueIndex:idx_collection_owner_name,priority:1" json:"owner_id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_collection_owner_name,priority:2" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Collection) TableName() string { return "collection" }

type CollectionResource struct {
	CollectionID int64     `gorm:"column:collection_id;primaryKey;autoIncrement:false" json:"collection_id"`
	ResourceID   int64     `gorm:"column:resource_id;primaryKey;autoIncrement:false;index" json:"resource_id"`
	CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (CollectionResource) TableName() string { return "collection_resource" }
