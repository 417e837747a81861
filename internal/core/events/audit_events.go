package events

import (
	"time"

	"github.com/google/uuid"
)

// Audit event types published by the domain services. The bus is
// observational only: cascades run inside store transactions, never here.
const (
	EventUserRegistered      = "user.registered"
	EventUserDeleted         = "user.deleted"
	EventUserPromoted        = "user.promoted"
	EventMembershipInvited   = "membership.invited"
	EventMembershipActivated = "membership.activated"
	EventMembershipKicked    = "membership.kicked"
	EventEnrollmentCreated   = "enrollment.created"
	EventEnrollmentWithdrawn = "enrollment.withdrawn"
)

func NewUserRegisteredEvent(userID int64, email, role string) BaseEvent {
	return newEvent(EventUserRegistered, map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    role,
	})
}

func NewUserDeletedEvent(userID, actorID int64) BaseEvent {
	return newEvent(EventUserDeleted, map[string]interface{}{
		"user_id":  userID,
		"actor_id": actorID,
	})
}

func NewUserPromotedEvent(userID, actorID int64) BaseEvent {
	return newEvent(EventUserPromoted, map[string]interface{}{
		"user_id":  userID,
		"actor_id": actorID,
	})
}

func NewMembershipEvent(eventType string, userID, departmentID, actorID int64) BaseEvent {
	return newEvent(eventType, map[string]interface{}{
		"user_id":       userID,
		"department_id": departmentID,
		"actor_id":      actorID,
	})
}

func NewEnrollmentEvent(eventType string, userID, courseID int64) BaseEvent {
	return newEvent(eventType, map[string]interface{}{
		"user_id":   userID,
		"course_id": courseID,
	})
}

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}
