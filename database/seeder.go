package database

import (
	"fmt"
	"sort"

	"github.com/sqltutor/sqltutor-be/internal/entity"
	"github.com/sqltutor/sqltutor-be/internal/pkg/coverage"
	"gorm.io/gorm"
)

// SeedConceptCatalog - isi catalog konsep dan mapping subtype dari tabel
// compiled-in di package coverage. Idempotent: skip kalau sudah terisi.
func SeedConceptCatalog(db *gorm.DB) error {
	var count int64
	db.Model(&entity.Concept{}).Count(&count)
	if count > 0 {
		fmt.Println("Concept catalog already seeded, skipping...")
		return nil
	}

	fmt.Println("Seeding concept catalog...")

	for i, conceptID := range coverage.DefaultCatalog() {
		concept := entity.Concept{
			ConceptID: conceptID,
			Name:      conceptID,
			SortOrder: i,
		}
		if err := db.Create(&concept).Error; err != nil {
			return fmt.Errorf("failed to seed concept %s: %w", conceptID, err)
		}
	}

	subtypes := coverage.DefaultSubtypeConcepts()
	subtypeIDs := make([]string, 0, len(subtypes))
	for subtypeID := range subtypes {
		subtypeIDs = append(subtypeIDs, subtypeID)
	}
	sort.Strings(subtypeIDs)

	for _, subtypeID := range subtypeIDs {
		for _, conceptID := range subtypes[subtypeID] {
			row := entity.ErrorSubtypeConcept{
				SubtypeID: subtypeID,
				ConceptID: conceptID,
			}
			if err := db.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to seed subtype mapping %s: %w", subtypeID, err)
			}
		}
	}

	fmt.Printf("Successfully seeded %d concepts and %d subtype mappings\n",
		len(coverage.DefaultCatalog()), len(subtypes))
	return nil
}

// LoadConceptMapping reads the seeded catalog and subtype table back so the
// coverage mapper runs on the database copy. Empty results fall through to
// the compiled-in defaults inside the mapper.
func LoadConceptMapping(db *gorm.DB) ([]string, map[string][]string, error) {
	var concepts []entity.Concept
	if err := db.Order("sort_order ASC").Find(&concepts).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load concept catalog: %w", err)
	}
	catalog := make([]string, 0, len(concepts))
	for _, c := range concepts {
		catalog = append(catalog, c.ConceptID)
	}

	var rows []entity.ErrorSubtypeConcept
	if err := db.Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load subtype mappings: %w", err)
	}
	subtypes := make(map[string][]string, len(rows))
	for _, row := range rows {
		subtypes[row.SubtypeID] = append(subtypes[row.SubtypeID], row.ConceptID)
	}

	return catalog, subtypes, nil
}
