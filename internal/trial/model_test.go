package trial

import (
	"testing"

	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

func TestNewTrial(t *testing.T) {
	caseID := types.NewID()
	judgeID := types.NewID()

	tests := []struct {
		name    string
		verdict Verdict
		title   string
		wantErr bool
	}{
		{"guilty with punishment", VerdictGuilty, "imprisonment", false},
		{"not guilty without punishment", VerdictNotGuilty, "", false},
		{"guilty without punishment", VerdictGuilty, "", true},
		{"unknown verdict", Verdict("undecided"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := NewTrial(caseID, judgeID, tt.verdict, tt.title, "")

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				appErr, ok := err.(*errors.AppError)
				if !ok || appErr.Code != "validation_error" {
					t.Errorf("expected validation_error, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("NewTrial: %v", err)
			}
			if tr.CaseID != caseID || tr.JudgeID != judgeID {
				t.Error("trial did not keep its case and judge")
			}
			if tr.Verdict != tt.verdict {
				t.Errorf("verdict = %s, want %s", tr.Verdict, tt.verdict)
			}
		})
	}
}
