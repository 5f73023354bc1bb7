package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"medication-adherence/internal/domain/adherence"
)

type AdherenceRepo struct {
	db *sql.DB
}

func NewAdherenceRepo(db *sql.DB) *AdherenceRepo {
	return &AdherenceRepo{db: db}
}

const eventColumns = `
	seq, id, owner_user_id,
	medication_id, scheduled_at,
	status, source, logged_at, note
`

// Append y AppendIfAbsent toman un advisory lock por toma dentro de la
// transacción: las escrituras sobre la misma toma quedan serializadas y el
// orden de seq coincide con el orden de commit.
func (r *AdherenceRepo) Append(ctx context.Context, e adherence.Event) (adherence.Event, error) {
	var saved adherence.Event
	err := r.withDoseLock(ctx, e, func(tx *sql.Tx) error {
		var err error
		saved, err = insertEvent(ctx, tx, e)
		return err
	})
	return saved, err
}

func (r *AdherenceRepo) AppendIfAbsent(ctx context.Context, e adherence.Event) (adherence.Event, bool, error) {
	var (
		saved    adherence.Event
		inserted bool
	)
	err := r.withDoseLock(ctx, e, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+eventColumns+`
			FROM adherence_events
			WHERE medication_id = $1 AND scheduled_at = $2
			ORDER BY seq DESC
			LIMIT 1
		`, e.MedicationID, e.ScheduledAt)

		existing, err := scanEvent(row)
		switch {
		case err == nil:
			saved = existing
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		saved, err = insertEvent(ctx, tx, e)
		if err != nil {
			return err
		}
		inserted = true
		return nil
	})
	return saved, inserted, err
}

func (r *AdherenceRepo) History(ctx context.Context, medicationID string, scheduledAt time.Time) ([]adherence.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM adherence_events
		WHERE medication_id = $1 AND scheduled_at = $2
		ORDER BY seq ASC
	`, medicationID, scheduledAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *AdherenceRepo) ListInRange(ctx context.Context, medicationIDs []string, from, to time.Time) ([]adherence.Event, error) {
	if len(medicationIDs) == 0 {
		return []adherence.Event{}, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM adherence_events
		WHERE medication_id = ANY($1::text[])
		  AND scheduled_at >= $2
		  AND scheduled_at < $3
		ORDER BY seq ASC
	`, medicationIDs, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (r *AdherenceRepo) withDoseLock(ctx context.Context, e adherence.Event, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`,
		e.MedicationID+"|"+e.ScheduledAt.UTC().Format(time.RFC3339),
	); err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertEvent(ctx context.Context, tx *sql.Tx, e adherence.Event) (adherence.Event, error) {
	err := tx.QueryRowContext(ctx, `
		INSERT INTO adherence_events (
			id, owner_user_id,
			medication_id, scheduled_at,
			status, source, logged_at, note
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING seq
	`,
		e.ID,
		e.OwnerUserID,
		e.MedicationID,
		e.ScheduledAt,
		string(e.Status),
		string(e.Source),
		e.LoggedAt,
		e.Note,
	).Scan(&e.Seq)
	if err != nil {
		return adherence.Event{}, err
	}
	return e, nil
}

func collectEvents(rows *sql.Rows) ([]adherence.Event, error) {
	out := make([]adherence.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEvent(s scanner) (adherence.Event, error) {
	var (
		e      adherence.Event
		status string
		source string
	)
	if err := s.Scan(
		&e.Seq,
		&e.ID,
		&e.OwnerUserID,
		&e.MedicationID,
		&e.ScheduledAt,
		&status,
		&source,
		&e.LoggedAt,
		&e.Note,
	); err != nil {
		return adherence.Event{}, err
	}
	e.Status = adherence.Status(status)
	e.Source = adherence.Source(source)
	return e, nil
}
