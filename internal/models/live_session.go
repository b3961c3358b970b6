package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the lifecycle status of a live session.
type SessionStatus string

const (
	StatusUpcoming  SessionStatus = "upcoming"
	StatusLive      SessionStatus = "live"
	StatusPaused    SessionStatus = "paused"
	StatusCancelled SessionStatus = "cancelled"
	StatusEnded     SessionStatus = "ended"
)

// transitions lists the statuses reachable from each status. Terminal statuses map to nothing.
var transitions = map[SessionStatus][]SessionStatus{
	StatusUpcoming:  {StatusLive, StatusCancelled},
	StatusLive:      {StatusPaused, StatusEnded, StatusCancelled},
	StatusPaused:    {StatusLive, StatusEnded, StatusCancelled},
	StatusCancelled: nil,
	StatusEnded:     nil,
}

// ParseSessionStatus returns the status named by s, or false if s is not a known status.
func ParseSessionStatus(s string) (SessionStatus, bool) {
	st := SessionStatus(s)
	_, ok := transitions[st]
	return st, ok
}

// Valid reports whether s is one of the enumerated statuses.
func (s SessionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s SessionStatus) Terminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// CanTransition reports whether the table allows moving from s to target.
// Self-transitions are never allowed.
func (s SessionStatus) CanTransition(target SessionStatus) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// Actor identifies the operator performing a lifecycle change.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// LiveSession is a scheduled live event for a course.
type LiveSession struct {
	ID            uuid.UUID     `json:"id"`
	CourseID      uuid.UUID     `json:"course_id"`
	Title         string        `json:"title"`
	JoinLink      string        `json:"join_link"`
	ScheduledAt   time.Time     `json:"scheduled_at"`
	ExpiresAt     *time.Time    `json:"expires_at,omitempty"`
	Status        SessionStatus `json:"status"`
	StartedBy     *uuid.UUID    `json:"started_by,omitempty"`
	StartedByName string        `json:"started_by_name,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedBy       *uuid.UUID    `json:"ended_by,omitempty"`
	EndedByName   string        `json:"ended_by_name,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
	ReminderSent  bool          `json:"reminder_sent"`
	CreatedBy     uuid.UUID     `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Clone returns a deep copy of s so callers can mutate it without aliasing pointer fields.
func (s *LiveSession) Clone() *LiveSession {
	if s == nil {
		return nil
	}
	out := *s
	out.ExpiresAt = cloneTime(s.ExpiresAt)
	out.StartedAt = cloneTime(s.StartedAt)
	out.EndedAt = cloneTime(s.EndedAt)
	out.StartedBy = cloneUUID(s.StartedBy)
	out.EndedBy = cloneUUID(s.EndedBy)
	return &out
}

// ApplyTransition mutates s into target on behalf of actor at now. It does not check
// the transition table; callers validate with CanTransition first.
func (s *LiveSession) ApplyTransition(target SessionStatus, actor Actor, now time.Time) {
	switch target {
	case StatusLive:
		if s.StartedAt == nil {
			id := actor.ID
			t := now
			s.StartedBy = &id
			s.StartedByName = actor.Name
			s.StartedAt = &t
		}
		s.EndedBy = nil
		s.EndedByName = ""
		s.EndedAt = nil
	case StatusEnded:
		if s.EndedAt == nil {
			id := actor.ID
			t := now
			s.EndedBy = &id
			s.EndedByName = actor.Name
			s.EndedAt = &t
		}
	}
	s.Status = target
	s.UpdatedAt = now
}

// Projection returns the polling view of s.
func (s *LiveSession) Projection() Projection {
	return Projection{
		Status:        s.Status,
		StartedByName: s.StartedByName,
		EndedByName:   s.EndedByName,
		StartedAt:     s.StartedAt,
		EndedAt:       s.EndedAt,
	}
}

// Projection is the cheap status view served to polling clients.
type Projection struct {
	Status        SessionStatus `json:"status"`
	StartedByName string        `json:"started_by_name,omitempty"`
	EndedByName   string        `json:"ended_by_name,omitempty"`
	StartedAt     *time.Time    `json:"started_at,omitempty"`
	EndedAt       *time.Time    `json:"ended_at,omitempty"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUUID(u *uuid.UUID) *uuid.UUID {
	if u == nil {
		return nil
	}
	v := *u
	return &v
}

// Broadcast event names for session lifecycle changes.
const (
	EventSessionCreated       = "sessionCreated"
	EventSessionStarted       = "sessionStarted"
	EventSessionEnded         = "sessionEnded"
	EventSessionStatusUpdated = "sessionStatusUpdated"
)

// SessionEvent is the payload of every lifecycle broadcast.
type SessionEvent struct {
	ID      uuid.UUID     `json:"id"`
	Session *LiveSession  `json:"session"`
	Status  SessionStatus `json:"status"`
}

// NewSessionEvent builds the broadcast payload for s.
func NewSessionEvent(s *LiveSession) SessionEvent {
	return SessionEvent{ID: s.ID, Session: s, Status: s.Status}
}
