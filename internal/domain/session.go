package domain

import "time"

// Session is one estimation gathering, addressed by its share code.
type Session struct {
	ID              int64         `json:"id"`
	Code            string        `json:"code"`
	Name            string        `json:"name"`
	FacilitatorName string        `json:"facilitatorName"`
	Status          SessionStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
	CurrentStoryID  *int64        `json:"currentStoryId,omitempty"`
}

// Participant is a named member of a session.
type Participant struct {
	ID           int64     `json:"id"`
	SessionID    int64     `json:"sessionId"`
	Name         string    `json:"name"`
	JoinedAt     time.Time `json:"joinedAt"`
	LastActivity time.Time `json:"lastActivity"`
}

// ParticipantInfo is returned to a caller that joined a session.
type ParticipantInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	SessionCode string `json:"sessionCode"`
	SessionName string `json:"sessionName"`
	IsJoined    bool   `json:"isJoined"`
}

// SessionDTO is the full representation of a freshly created session.
type SessionDTO struct {
	ID              int64             `json:"id"`
	Code            string            `json:"code"`
	Name            string            `json:"name"`
	FacilitatorName string            `json:"facilitatorName"`
	Status          SessionStatus     `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	CurrentStoryID  *int64            `json:"currentStoryId"`
	CurrentStory    *StoryView        `json:"currentStory"`
	Participants    []ParticipantView `json:"participants"`
	Stories         []StoryView       `json:"stories"`
}

// ParticipantView is a participant as seen in a session status snapshot.
type ParticipantView struct {
	ID                      int64     `json:"id"`
	Name                    string    `json:"name"`
	JoinedAt                time.Time `json:"joinedAt"`
	LastActivity            time.Time `json:"lastActivity"`
	HasVotedForCurrentStory bool      `json:"hasVotedForCurrentStory"`
}

// SessionStatusView aggregates the state of a session for display.
type SessionStatusView struct {
	Code                  string            `json:"code"`
	Name                  string            `json:"name"`
	FacilitatorName       string            `json:"facilitatorName"`
	Status                SessionStatus     `json:"status"`
	ParticipantCount      int               `json:"participantCount"`
	StoriesCount          int               `json:"storiesCount"`
	EstimatedStoriesCount int               `json:"estimatedStoriesCount"`
	CurrentStory          *StoryView        `json:"currentStory"`
	Participants          []ParticipantView `json:"participants"`
	Stories               []StoryView       `json:"stories"`
}
