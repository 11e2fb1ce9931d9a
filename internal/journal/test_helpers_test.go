package journal

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestJournal creates a file-backed journal in a temp dir.
func createTestJournal(t *testing.T) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

// beginTestRun starts a run and fails the test on error.
func beginTestRun(t *testing.T, j *Journal) string {
	t.Helper()
	token, err := j.BeginRun(context.Background())
	if err != nil {
		t.Fatalf("BeginRun() failed: %v", err)
	}
	return token
}

// testRecord builds a record with plausible normalization content.
func testRecord(runToken string) Record {
	return Record{
		RunToken:   runToken,
		Input:      "CN(=O)=O",
		Output:     "C[N+](=O)[O-]",
		Restarts:   1,
		Converged:  true,
		RulesFired: []string{"Nitro to N+(O-)=O"},
	}
}
