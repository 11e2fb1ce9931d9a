package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Lookup returns the most recent record whose input matches the given
// canonical notation, or ok=false when the journal has never seen it.
// Callers should check Record.Converged before trusting the output as
// a final form.
func (j *Journal) Lookup(ctx context.Context, inputCanonical string) (Record, bool, error) {
	row := j.db.QueryRowContext(ctx, `
		SELECT id, run_token, input_canonical, output_canonical, restarts, converged, rules_fired, seq
		FROM records
		WHERE input_canonical = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, inputCanonical)

	rec, err := scanRecordRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup: %w", err)
	}
	return rec, true, nil
}

// RecentRecords returns up to limit records, newest first.
// Results are ordered deterministically: seq DESC, id DESC COLLATE
// BINARY. Returns an empty slice (not nil) when the journal is empty.
func (j *Journal) RecentRecords(ctx context.Context, limit int) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, input_canonical, output_canonical, restarts, converged, rules_fired, seq
		FROM records
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if records == nil {
		records = []Record{}
	}

	return records, nil
}

// RunRecords returns all records written under a run token, oldest
// first so the session reads in execution order.
func (j *Journal) RunRecords(ctx context.Context, runToken string) ([]Record, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, run_token, input_canonical, output_canonical, restarts, converged, rules_fired, seq
		FROM records
		WHERE run_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, runToken)
	if err != nil {
		return nil, fmt.Errorf("query run records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run records: %w", err)
	}

	if records == nil {
		records = []Record{}
	}

	return records, nil
}

// scanRecord scans a multi-row result into a Record.
func scanRecord(rows *sql.Rows) (Record, error) {
	var rec Record
	var firedJSON string

	if err := rows.Scan(
		&rec.ID, &rec.RunToken, &rec.Input, &rec.Output,
		&rec.Restarts, &rec.Converged, &firedJSON, &rec.Seq,
	); err != nil {
		return Record{}, fmt.Errorf("scan record: %w", err)
	}

	fired, err := unmarshalRulesFired(firedJSON)
	if err != nil {
		return Record{}, err
	}
	rec.RulesFired = fired

	return rec, nil
}

// scanRecordRow scans a single-row result into a Record.
func scanRecordRow(row *sql.Row) (Record, error) {
	var rec Record
	var firedJSON string

	if err := row.Scan(
		&rec.ID, &rec.RunToken, &rec.Input, &rec.Output,
		&rec.Restarts, &rec.Converged, &firedJSON, &rec.Seq,
	); err != nil {
		return Record{}, err
	}

	fired, err := unmarshalRulesFired(firedJSON)
	if err != nil {
		return Record{}, err
	}
	rec.RulesFired = fired

	return rec, nil
}
