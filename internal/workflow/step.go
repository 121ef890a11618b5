// Package workflow holds the three-step state machine that gates the studio:
// a local authenticity check, the dataset upload, and the dashboard.
//
// The auth step is a UI gate only. Credentials are never verified or sent.
package workflow

import (
	"strings"

	"demand-studio/internal/models"
)

type Step string

const (
	StepAuth      Step = "auth"
	StepUpload    Step = "upload"
	StepDashboard Step = "dashboard"
)

// Initial is the step every new session starts in.
const Initial = StepAuth

// Index is the 1-based position of the step in the stepper.
func (s Step) Index() int {
	switch s {
	case StepAuth:
		return 1
	case StepUpload:
		return 2
	case StepDashboard:
		return 3
	default:
		return 0
	}
}

// CanAuth reports whether all three credential fields are non-blank.
func CanAuth(c models.AuthCredentials) bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.Email) != "" &&
		strings.TrimSpace(c.Password) != ""
}

// SubmitAuth moves Auth to Upload when the credentials pass CanAuth. Any
// other combination leaves the step unchanged.
func (s Step) SubmitAuth(c models.AuthCredentials) (Step, bool) {
	if s != StepAuth || !CanAuth(c) {
		return s, false
	}
	return StepUpload, true
}

// CompleteUpload moves Upload to Dashboard. Callers invoke it only after the
// upload and both forecasts have succeeded.
func (s Step) CompleteUpload() (Step, bool) {
	if s != StepUpload {
		return s, false
	}
	return StepDashboard, true
}
