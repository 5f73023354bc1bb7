package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"medication-adherence/internal/domain/interactions"
)

// RulesRepo es la tabla interaction_rules. Implementa interactions.RuleSource.
type RulesRepo struct {
	db *sql.DB
}

func NewRulesRepo(db *sql.DB) *RulesRepo {
	return &RulesRepo{db: db}
}

func (r *RulesRepo) Find(ctx context.Context, a, b string) (interactions.Rule, bool, error) {
	a, b = interactions.Pair(a, b)

	var (
		rule interactions.Rule
		sev  string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT drug_a, drug_b, severity, description
		FROM interaction_rules
		WHERE drug_a = $1 AND drug_b = $2
	`, a, b).Scan(&rule.DrugA, &rule.DrugB, &sev, &rule.Description)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interactions.Rule{}, false, nil
		}
		return interactions.Rule{}, false, err
	}
	rule.Severity = interactions.Severity(sev)
	return rule, true, nil
}

// Upsert carga o actualiza reglas en una sola transacción.
func (r *RulesRepo) Upsert(ctx context.Context, rules []interactions.Rule) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO interaction_rules (drug_a, drug_b, severity, description, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (drug_a, drug_b) DO UPDATE
		SET severity = EXCLUDED.severity,
			description = EXCLUDED.description,
			updated_at = now()
	`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, rule := range rules {
		if _, err := stmt.ExecContext(ctx, rule.DrugA, rule.DrugB, string(rule.Severity), rule.Description); err != nil {
			return 0, fmt.Errorf("upsert rule %s: %w", rule.Key(), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(rules), nil
}

func (r *RulesRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM interaction_rules`).Scan(&n)
	return n, err
}
