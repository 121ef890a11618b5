package workflow

import (
	"testing"

	"demand-studio/internal/models"
)

func TestInitialStep(t *testing.T) {
	if Initial != StepAuth {
		t.Errorf("Initial = %q, want %q", Initial, StepAuth)
	}
}

func TestSubmitAuth(t *testing.T) {
	tests := []struct {
		name  string
		creds models.AuthCredentials
		want  Step
		moved bool
	}{
		{"all fields", models.AuthCredentials{Name: "Simra Patel", Email: "you@company.com", Password: "secret"}, StepUpload, true},
		{"empty name", models.AuthCredentials{Email: "you@company.com", Password: "secret"}, StepAuth, false},
		{"blank email", models.AuthCredentials{Name: "Simra", Email: "   ", Password: "secret"}, StepAuth, false},
		{"tab password", models.AuthCredentials{Name: "Simra", Email: "a@b.c", Password: "\t\n"}, StepAuth, false},
		{"all empty", models.AuthCredentials{}, StepAuth, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, moved := StepAuth.SubmitAuth(tt.creds)
			if got != tt.want || moved != tt.moved {
				t.Errorf("SubmitAuth() = (%q, %v), want (%q, %v)", got, moved, tt.want, tt.moved)
			}
		})
	}
}

func TestSubmitAuth_OutsideAuthStep(t *testing.T) {
	creds := models.AuthCredentials{Name: "a", Email: "b", Password: "c"}
	for _, s := range []Step{StepUpload, StepDashboard} {
		if got, moved := s.SubmitAuth(creds); got != s || moved {
			t.Errorf("%q.SubmitAuth() = (%q, %v), want no transition", s, got, moved)
		}
	}
}

func TestCompleteUpload(t *testing.T) {
	if got, moved := StepUpload.CompleteUpload(); got != StepDashboard || !moved {
		t.Errorf("Upload.CompleteUpload() = (%q, %v)", got, moved)
	}
	for _, s := range []Step{StepAuth, StepDashboard} {
		if got, moved := s.CompleteUpload(); got != s || moved {
			t.Errorf("%q.CompleteUpload() = (%q, %v), want no transition", s, got, moved)
		}
	}
}

func TestIndex(t *testing.T) {
	if StepAuth.Index() != 1 || StepUpload.Index() != 2 || StepDashboard.Index() != 3 {
		t.Error("unexpected step indices")
	}
	if Step("bogus").Index() != 0 {
		t.Error("unknown step should have index 0")
	}
}
