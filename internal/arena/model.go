package arena

import (
	"errors"
	"fmt"
	"strings"
)

const (
	maxTopicLength       = 100
	maxDescriptionLength = 500
)

var (
	// ErrInvalidTopic indicates a debate topic is empty or exceeds contract bounds.
	ErrInvalidTopic = errors.New("arena: invalid topic")
	// ErrInvalidDescription indicates a debate description is empty or exceeds contract bounds.
	ErrInvalidDescription = errors.New("arena: invalid description")
	// ErrInvalidSide indicates a side value outside {0, 1}.
	ErrInvalidSide = errors.New("arena: invalid side")
	// ErrInvalidDebateID indicates an empty debate identifier.
	ErrInvalidDebateID = errors.New("arena: invalid debate id")
)

// Side identifies one of the two positions in a debate.
type Side int8

const (
	// SideA is side 0 of a debate.
	SideA Side = 0
	// SideB is side 1 of a debate.
	SideB Side = 1
)

// NewSide validates a raw side value.
func NewSide(value int8) (Side, error) {
	if value != 0 && value != 1 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSide, value)
	}
	return Side(value), nil
}

// Topic represents a validated debate topic.
type Topic string

// NewTopic validates raw input and returns a Topic.
func NewTopic(rawInput string) (Topic, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidTopic)
	}
	if len(trimmed) > maxTopicLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidTopic, maxTopicLength)
	}
	return Topic(trimmed), nil
}

// String returns the underlying topic text.
func (t Topic) String() string {
	return string(t)
}

// Description represents a validated debate description.
type Description string

// NewDescription validates raw input and returns a Description.
func NewDescription(rawInput string) (Description, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDescription)
	}
	if len(trimmed) > maxDescriptionLength {
		return "", fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, maxDescriptionLength)
	}
	return Description(trimmed), nil
}

// String returns the underlying description text.
func (d Description) String() string {
	return string(d)
}

// Debate is one entry of the published view. It is an immutable per-cycle
// snapshot: each reconciliation cycle replaces the whole list, nothing is
// patched in place.
type Debate struct {
	ID                string  `json:"id"`
	Topic             string  `json:"topic"`
	Description       string  `json:"description"`
	SideACount        int64   `json:"side_a_count"`
	SideBCount        int64   `json:"side_b_count"`
	TotalParticipants int64   `json:"total_participants"`
	SideAPercent      float64 `json:"side_a_percent"`
	SideBPercent      float64 `json:"side_b_percent"`
	Joined            bool    `json:"joined"`
	JoinedSide        Side    `json:"joined_side"`
}

// Status reports the lifecycle of the most recent user-initiated write.
type Status string

const (
	// StatusIdle means no write is in flight or recently settled.
	StatusIdle Status = "idle"
	// StatusPending means a write has been submitted and not yet settled.
	StatusPending Status = "pending"
	// StatusSucceeded means the last write settled successfully; transient.
	StatusSucceeded Status = "succeeded"
	// StatusFailed means the last write settled with an error; transient.
	StatusFailed Status = "failed"
)
