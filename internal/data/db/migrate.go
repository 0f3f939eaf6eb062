package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/resourcehub-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(types.Models()...)
}

type foreignKey struct {
	name     string
	table    string
	column   string
	refTable string
	onDelete string
}

// Foreign keys are declared here rather than through gorm associations so the
// models stay flat.
var catalogForeignKeys = []foreignKey{
	{"fk_tag_category", "tag", "category_id", "category", "SET NULL"},
	{"fk_resource_category", "resource", "category_id", "category", "RESTRICT"},
	{"fk_resource_tag_resource", "resource_tag", "resource_id", "resource", "CASCADE"},
	{"fk_resource_tag_tag", "resource_tag", "tag_id", "tag", "CASCADE"},
	{"fk_resource_owner_resource", "resource_owner", "resource_id", "resource", "CASCADE"},
	{"fk_resource_like_resource", "resource_like", "resource_id", "resource", "CASCADE"},
	{"fk_collection_resource_collection", "collection_resource", "collection_id", "collection", "CASCADE"},
	{"fk_collection_resource_resource", "collection_resource", "resource_id", "resource", "CASCADE"},
}

func EnsureCatalogConstraints(db *gorm.DB) error {
	for _, fk := range catalogForeignKeys {
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE %s ADD CONSTRAINT %s
					FOREIGN KEY (%s) REFERENCES %s(id) ON DELETE %s;
				END IF;
			END $$;`,
			fk.name, fk.table, fk.name, fk.column, fk.refTable, fk.onDelete)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create %s: %w", fk.name, err)
		}
	}
	return nil
}

func EnsureCatalogIndexes(db *gorm.DB) error {
	// Substring search over name/description.
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pg_trgm;`).Error; err != nil {
		return fmt.Errorf("enable pg_trgm: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_resource_name_trgm
		ON resource USING GIN (name gin_trgm_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_resource_name_trgm: %w", err)
	}
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_resource_description_trgm
		ON resource USING GIN (description gin_trgm_ops);
	`).Error; err != nil {
		return fmt.Errorf("create idx_resource_description_trgm: %w", err)
	}
	// Correlated count subqueries.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_collection_resource_resource
		ON collection_resource (resource_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_collection_resource_resource: %w", err)
	}
	// Outbox claim scan.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_vector_sync_task_pending
		ON vector_sync_task (available_at)
		WHERE status = 'pending';
	`).Error; err != nil {
		return fmt.Errorf("create idx_vector_sync_task_pending: %w", err)
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureCatalogConstraints(s.db); err != nil {
		s.log.Error("Catalog constraint migration failed", "error", err)
		return err
	}
	if err := EnsureCatalogIndexes(s.db); err != nil {
		s.log.Error("Catalog index migration failed", "error", err)
		return err
	}
	return nil
}
