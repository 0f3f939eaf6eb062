package catalog

import "time"

type Category struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Category) TableName() string { return "category" }

// Tag names are globally unique; CategoryID records the category the tag was
// first created under.
type Tag struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID *int64    `gorm:"column:category_id;index" json:"category_id,omitempty"`
	Name       string    `gorm:"column:name;not null;uniqueIndex" json:"name"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Tag) TableName() string { return "tag" }

// TaxonomySnapshot is the full category and tag vocabulary, used as model context.
type TaxonomySnapshot struct {
	Categories []string `json:"categories"`
	Tags       []string `json:"tags"`
}
