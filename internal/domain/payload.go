package domain

import "time"

// VoteSubmittedPayload announces a vote without disclosing its value.
type VoteSubmittedPayload struct {
	SessionCode     string    `json:"sessionCode"`
	ParticipantName string    `json:"participantName"`
	Timestamp       time.Time `json:"timestamp"`
}

// EstimateFinalizedPayload announces a committed final estimate.
type EstimateFinalizedPayload struct {
	SessionCode   string    `json:"sessionCode"`
	StoryID       int64     `json:"storyId"`
	FinalEstimate int       `json:"finalEstimate"`
	Timestamp     time.Time `json:"timestamp"`
}

// ActiveStoryChangedPayload announces the story now open for voting.
type ActiveStoryChangedPayload struct {
	SessionCode string    `json:"sessionCode"`
	StoryID     int64     `json:"storyId"`
	Timestamp   time.Time `json:"timestamp"`
}
