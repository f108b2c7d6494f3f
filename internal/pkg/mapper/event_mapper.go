package mapper

import (
	oldEntity "github.com/sqltutor/sqltutor-be/internal/delivery/http/entity"
	dbEntity "github.com/sqltutor/sqltutor-be/internal/entity"
)

// ConvertToInteractionEvent - Convert API request to the append-only event row.
// Missing id/timestamp stay zero here; the usecase fills them from its clock.
func ConvertToInteractionEvent(req *oldEntity.AppendEventRequest) *dbEntity.InteractionEvent {
	return &dbEntity.InteractionEvent{
		ID:               req.ID,
		SessionID:        req.SessionID,
		LearnerID:        req.LearnerID,
		Timestamp:        req.Timestamp,
		EventType:        dbEntity.EventType(req.EventType),
		ProblemID:        req.ProblemID,
		ErrorSubtypeID:   req.ErrorSubtypeID,
		HintLevel:        req.HintLevel,
		HelpRequestIndex: req.HelpRequestIndex,
		ConceptIDs:       req.ConceptIDs,
		Successful:       req.Successful,
		PolicyVersion:    req.PolicyVersion,
	}
}
