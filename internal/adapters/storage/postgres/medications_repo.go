package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"medication-adherence/internal/domain/medications"
	"medication-adherence/internal/platform/civil"
)

type MedicationsRepo struct {
	db *sql.DB
}

func NewMedicationsRepo(db *sql.DB) *MedicationsRepo {
	return &MedicationsRepo{db: db}
}

const medicationColumns = `
	id, owner_user_id,
	name, dosage, frequency, time_of_day,
	start_date, end_date, notes, active,
	created_at, updated_at
`

func (r *MedicationsRepo) Create(ctx context.Context, m medications.Medication) error {
	slots, err := encodeSlots(m.TimeOfDay)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6::jsonb,$7::date,$8::date,$9,$10,$11,$12)
	`,
		m.ID,
		m.OwnerUserID,
		m.Name,
		m.Dosage,
		string(m.Frequency),
		slots,
		m.StartDate.String(),
		toNullDate(m.EndDate),
		m.Notes,
		m.Active,
		m.CreatedAt,
		m.UpdatedAt,
	)
	return err
}

func (r *MedicationsRepo) Update(ctx context.Context, m medications.Medication) error {
	slots, err := encodeSlots(m.TimeOfDay)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE medications
		SET
			name = $2,
			dosage = $3,
			frequency = $4,
			time_of_day = $5::jsonb,
			start_date = $6::date,
			end_date = $7::date,
			notes = $8,
			active = $9,
			updated_at = $10
		WHERE id = $1
	`,
		m.ID,
		m.Name,
		m.Dosage,
		string(m.Frequency),
		slots,
		m.StartDate.String(),
		toNullDate(m.EndDate),
		m.Notes,
		m.Active,
		m.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return medications.ErrNotFound
	}
	return nil
}

func (r *MedicationsRepo) GetByID(ctx context.Context, id string) (medications.Medication, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return medications.Medication{}, medications.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+medicationColumns+` FROM medications WHERE id = $1`, id)
	m, err := scanMedication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return medications.Medication{}, medications.ErrNotFound
		}
		return medications.Medication{}, err
	}
	return m, nil
}

func (r *MedicationsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]medications.Medication, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+medicationColumns+`
		FROM medications
		WHERE owner_user_id = $1
		ORDER BY created_at ASC, id ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]medications.Medication, 0)
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MedicationsRepo) ListOwners(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT owner_user_id
		FROM medications
		WHERE active
		ORDER BY owner_user_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(s scanner) (medications.Medication, error) {
	var (
		m     medications.Medication
		freq  string
		slots []byte
		start sql.NullTime
		end   sql.NullTime
	)
	if err := s.Scan(
		&m.ID,
		&m.OwnerUserID,
		&m.Name,
		&m.Dosage,
		&freq,
		&slots,
		&start,
		&end,
		&m.Notes,
		&m.Active,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return medications.Medication{}, err
	}

	m.Frequency = medications.Frequency(freq)
	// DATE llega como medianoche UTC; civil.DateOf toma el día tal cual.
	m.StartDate = civil.DateOf(start.Time)
	if end.Valid {
		d := civil.DateOf(end.Time)
		m.EndDate = &d
	}

	tod, err := decodeSlots(slots)
	if err != nil {
		return medications.Medication{}, fmt.Errorf("medication %s: %w", m.ID, err)
	}
	m.TimeOfDay = tod
	return m, nil
}

// time_of_day se guarda como JSONB ["08:00","20:00"] para conservar el orden cargado.
func encodeSlots(in []civil.Clock) (string, error) {
	raw := make([]string, 0, len(in))
	for _, c := range in {
		raw = append(raw, c.String())
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSlots(b []byte) ([]civil.Clock, error) {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("decode time_of_day: %w", err)
	}
	out := make([]civil.Clock, 0, len(raw))
	for _, s := range raw {
		c, err := civil.ParseClock(s)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func toNullDate(d *civil.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}
