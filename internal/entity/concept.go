package entity

import "time"

// Concept - satu konsep SQL di catalog, sumber kebenaran untuk coverage.
type Concept struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	ConceptID string    `gorm:"uniqueIndex;size:100;not null" json:"conceptId"`
	Name      string    `gorm:"size:100" json:"name"`
	SortOrder int       `gorm:"not null" json:"sortOrder"`
	CreatedAt time.Time `json:"created_at"`
}

func (Concept) TableName() string {
	return "concepts"
}

// ErrorSubtypeConcept - mapping eksplisit error subtype ke konsep.
// Deployments can extend the compiled-in table by adding rows.
type ErrorSubtypeConcept struct {
	ID        uint      `gorm:"primarykey" json:"-"`
	SubtypeID string    `gorm:"index;size:100;not null" json:"subtypeId"`
	ConceptID string    `gorm:"size:100;not null" json:"conceptId"`
	CreatedAt time.Time `json:"created_at"`
}

func (ErrorSubtypeConcept) TableName() string {
	return "error_subtype_concepts"
}
