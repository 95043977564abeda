package database

import (
	"fmt"

	"github.com/xpanvictor/parley/internal/repository/complaint"
	"github.com/xpanvictor/parley/internal/repository/knowledge"
	"gorm.io/gorm"
)

func MigrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&knowledge.DocumentEntity{},
		&knowledge.ChunkEntity{},
		&complaint.ComplaintEntity{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
