package domain

import "time"

// Story is one unit of work being estimated.
type Story struct {
	ID            int64       `json:"id"`
	SessionID     int64       `json:"sessionId"`
	Title         string      `json:"title"`
	FinalEstimate *int        `json:"finalEstimate,omitempty"`
	Status        StoryStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// Vote is one participant's estimate for one story.
type Vote struct {
	ID            int64     `json:"id"`
	ParticipantID int64     `json:"participantId"`
	StoryID       int64     `json:"storyId"`
	Estimate      int       `json:"estimate"`
	SubmittedAt   time.Time `json:"submittedAt"`

	// ParticipantName is filled by queries that join the participant row.
	ParticipantName string `json:"-"`
}

// StoryView is a story as returned to clients.
type StoryView struct {
	ID            int64       `json:"id"`
	Title         string      `json:"title"`
	FinalEstimate *int        `json:"finalEstimate"`
	Status        StoryStatus `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	Votes         []VoteView  `json:"votes"`
}

// VoteView is a vote labelled with its participant's name. Estimate is nil
// when the value must not be disclosed yet.
type VoteView struct {
	ID              int64     `json:"id"`
	ParticipantName string    `json:"participantName"`
	Estimate        *int      `json:"estimate,omitempty"`
	SubmittedAt     time.Time `json:"submittedAt"`
}

// VoteResults is the outcome of revealing the votes of a story.
type VoteResults struct {
	StoryID              int64       `json:"storyId"`
	StoryTitle           string      `json:"storyTitle"`
	Votes                []VoteView  `json:"votes"`
	HasConsensus         bool        `json:"hasConsensus"`
	SuggestedEstimate    *int        `json:"suggestedEstimate"`
	EstimateDistribution map[int]int `json:"estimateDistribution"`
}
