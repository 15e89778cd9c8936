// Package domain defines the core domain models for planning poker sessions.
package domain

// SessionStatus represents the lifecycle status of a session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "Active"
	SessionStatusCompleted SessionStatus = "Completed"
	SessionStatusArchived  SessionStatus = "Archived"
)

// StoryStatus represents the lifecycle status of a story.
type StoryStatus string

const (
	StoryStatusPending   StoryStatus = "Pending"
	StoryStatusVoting    StoryStatus = "Voting"
	StoryStatusEstimated StoryStatus = "Estimated"
)

// EventType names an event pushed to the subscribers of a session.
type EventType string

const (
	EventParticipantJoined  EventType = "ParticipantJoined"
	EventStoryAdded         EventType = "StoryAdded"
	EventVoteSubmitted      EventType = "VoteSubmitted"
	EventVotesRevealed      EventType = "VotesRevealed"
	EventEstimateFinalized  EventType = "EstimateFinalized"
	EventActiveStoryChanged EventType = "ActiveStoryChanged"
	EventSessionUpdated     EventType = "SessionUpdated"
)
