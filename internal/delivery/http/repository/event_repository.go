package repository

import (
	"github.com/sqltutor/sqltutor-be/internal/entity"
	"gorm.io/gorm"
)

type (
	// EventRepository is the append-only interaction event log.
	// There are deliberately no update or delete operations.
	EventRepository interface {
		Append(db *gorm.DB, event *entity.InteractionEvent) error
		FindBySessionID(db *gorm.DB, sessionID string) ([]entity.InteractionEvent, error)
		FindByLearnerID(db *gorm.DB, learnerID string) ([]entity.InteractionEvent, error)
		FindBySessionAndProblem(db *gorm.DB, sessionID, problemID string) ([]entity.InteractionEvent, error)
		CountErrors(db *gorm.DB, sessionID, problemID string) (int64, error)
	}

	eventRepository struct {
		db *gorm.DB
	}
)

func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Append(db *gorm.DB, event *entity.InteractionEvent) error {
	if db == nil {
		db = r.db
	}
	return db.Create(event).Error
}

func (r *eventRepository) FindBySessionID(db *gorm.DB, sessionID string) ([]entity.InteractionEvent, error) {
	if db == nil {
		db = r.db
	}
	var events []entity.InteractionEvent
	err := db.Where("session_id = ?", sessionID).Order("timestamp ASC, seq ASC").Find(&events).Error
	return events, err
}

func (r *eventRepository) FindByLearnerID(db *gorm.DB, learnerID string) ([]entity.InteractionEvent, error) {
	if db == nil {
		db = r.db
	}
	var events []entity.InteractionEvent
	err := db.Where("learner_id = ?", learnerID).Order("timestamp ASC, seq ASC").Find(&events).Error
	return events, err
}

func (r *eventRepository) FindBySessionAndProblem(db *gorm.DB, sessionID, problemID string) ([]entity.InteractionEvent, error) {
	if db == nil {
		db = r.db
	}
	var events []entity.InteractionEvent
	err := db.Where("session_id = ? AND problem_id = ?", sessionID, problemID).
		Order("timestamp ASC, seq ASC").Find(&events).Error
	return events, err
}

func (r *eventRepository) CountErrors(db *gorm.DB, sessionID, problemID string) (int64, error) {
	if db == nil {
		db = r.db
	}
	var count int64
	err := db.Model(&entity.InteractionEvent{}).
		Where("session_id = ? AND problem_id = ? AND event_type = ?", sessionID, problemID, entity.EventError).
		Count(&count).Error
	return count, err
}
