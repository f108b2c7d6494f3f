package database

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.InteractionEvent{},
		&entity.Concept{},
		&entity.ErrorSubtypeConcept{},
	)
	return err
}
