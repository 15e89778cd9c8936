package service

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xiaot623/pokr/internal/domain"
)

const (
	maxFacilitatorNameLength = 100
	maxSessionNameLength     = 200
	maxParticipantNameLength = 100
	maxStoryTitleLength      = 500
)

// NormalizeCode trims and upper-cases a session code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsCodeFormat reports whether code has the shape of a session code.
func IsCodeFormat(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(codeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

func requireText(fe domain.FieldErrors, field, label, value string, max int) {
	if value == "" {
		fe.Add(field, label+" is required")
		return
	}
	if utf8.RuneCountInString(value) > max {
		fe.Add(field, label+" must not exceed "+strconv.Itoa(max)+" characters")
	}
}

func requireCode(fe domain.FieldErrors, code string) {
	if code == "" {
		fe.Add("sessionCode", "Session code is required")
		return
	}
	if !IsCodeFormat(code) {
		fe.Add("sessionCode", "Session code must be 6 letters or digits")
	}
}

func requireStoryID(fe domain.FieldErrors, storyID int64) {
	if storyID <= 0 {
		fe.Add("storyId", "Story id must be a positive number")
	}
}

func validateCreateSession(facilitatorName, sessionName string) error {
	fe := domain.FieldErrors{}
	requireText(fe, "facilitatorName", "Facilitator name", facilitatorName, maxFacilitatorNameLength)
	requireText(fe, "sessionName", "Session name", sessionName, maxSessionNameLength)
	return fe.Err()
}

func validateJoin(code, participantName string) error {
	fe := domain.FieldErrors{}
	requireCode(fe, code)
	requireText(fe, "participantName", "Participant name", participantName, maxParticipantNameLength)
	return fe.Err()
}

func validateAddStory(code, title string) error {
	fe := domain.FieldErrors{}
	requireCode(fe, code)
	requireText(fe, "title", "Title", title, maxStoryTitleLength)
	return fe.Err()
}

func validateStoryRef(code string, storyID int64) error {
	fe := domain.FieldErrors{}
	requireCode(fe, code)
	requireStoryID(fe, storyID)
	return fe.Err()
}

func validateVote(code, participantName string, estimate int) error {
	fe := domain.FieldErrors{}
	requireCode(fe, code)
	requireText(fe, "participantName", "Participant name", participantName, maxParticipantNameLength)
	if !domain.IsValidEstimate(estimate) {
		fe.Add("estimate", "Estimate must be one of 1, 2, 3, 5, 8, 13, 21, -1 or -2")
	}
	return fe.Err()
}

func validateFinalize(code string, storyID int64, finalPoints int) error {
	fe := domain.FieldErrors{}
	requireCode(fe, code)
	requireStoryID(fe, storyID)
	if !domain.IsValidFinalEstimate(finalPoints) {
		fe.Add("finalPoints", "Final points must be one of 1, 2, 3, 5, 8, 13 or 21")
	}
	return fe.Err()
}
