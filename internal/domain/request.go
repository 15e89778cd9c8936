package domain

// CreateSessionRequest is the body of a session creation call.
type CreateSessionRequest struct {
	FacilitatorName string `json:"facilitatorName"`
	SessionName     string `json:"sessionName"`
}

// JoinSessionRequest is the body of a join call.
type JoinSessionRequest struct {
	ParticipantName string `json:"participantName"`
}

// AddStoryRequest is the body of an add-story call.
type AddStoryRequest struct {
	Title string `json:"title"`
}

// SubmitVoteRequest is the body of a vote call. The voter is named by the
// X-Participant-Name header.
type SubmitVoteRequest struct {
	Estimate int `json:"estimate"`
}

// FinalizeEstimateRequest is the body of a finalize call.
type FinalizeEstimateRequest struct {
	FinalPoints int `json:"finalPoints"`
}
