package journal

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pmachta/molnorm/internal/canon"
)

// BeginRun opens a new journal session and returns its run token.
// Tokens are UUIDv7, so they sort by creation time while staying
// globally unique across databases.
func (j *Journal) BeginRun(ctx context.Context) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("begin run: new token: %w", err)
	}
	token := id.String()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (token, seq) VALUES (?, ?)
	`, token, seq); err != nil {
		return "", fmt.Errorf("begin run: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("begin run: commit: %w", err)
	}

	return token, nil
}

// WriteRecord persists one normalization outcome and returns its
// content-addressed ID. Uses ON CONFLICT(id) DO NOTHING for
// idempotency - re-observing a known outcome is silently ignored and
// the first run to record it keeps the row.
//
// The record's rules_fired list is serialized to canonical JSON per
// RFC 8785, so stored bytes are identical across runs.
//
// Note: rec.RunToken must reference an existing run (foreign key
// constraint); rec.ID and rec.Seq are ignored and assigned here.
func (j *Journal) WriteRecord(ctx context.Context, rec Record) (string, error) {
	id, err := recordID(rec)
	if err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}

	firedJSON, err := marshalRulesFired(rec.RulesFired)
	if err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("write record: begin tx: %w", err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx)
	if err != nil {
		return "", fmt.Errorf("write record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO records
		(id, run_token, input_canonical, output_canonical, restarts, converged, rules_fired, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		rec.RunToken,
		rec.Input,
		rec.Output,
		rec.Restarts,
		rec.Converged,
		firedJSON,
		seq,
	); err != nil {
		return "", fmt.Errorf("write record: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("write record: commit: %w", err)
	}

	return id, nil
}

// recordID computes the content-addressed ID for a record.
//
// DESIGN DECISION: RunToken and Seq are intentionally EXCLUDED.
// The ID represents "what happened" (logical identity), not "which
// session saw it". Re-normalizing a molecule in a later run therefore
// lands on the existing row instead of growing the journal. The run
// token is still stored on the record for audit purposes.
func recordID(rec Record) (string, error) {
	return canon.HashRecord(canon.DomainRecord, map[string]any{
		"input":       rec.Input,
		"output":      rec.Output,
		"restarts":    rec.Restarts,
		"converged":   rec.Converged,
		"rules_fired": rec.RulesFired,
	})
}
