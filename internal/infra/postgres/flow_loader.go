package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"movie-quiz-service/internal/domain"
)

// FlowLoader loads quiz flow JSONB from Postgres.
type FlowLoader struct {
	pool *pgxpool.Pool
}

func NewFlowLoader(pool *pgxpool.Pool) *FlowLoader {
	return &FlowLoader{pool: pool}
}

func (l *FlowLoader) LoadFlow(ctx context.Context, flowID string) (domain.Flow, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quiz_flows WHERE id=$1`, flowID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Flow{}, domain.ErrFlowNotFound
	}
	if err != nil {
		return domain.Flow{}, fmt.Errorf("load flow: %w", err)
	}
	var flow domain.Flow
	if err := json.Unmarshal(raw, &flow); err != nil {
		return domain.Flow{}, fmt.Errorf("unmarshal flow: %w", err)
	}
	flow.ID = flowID
	return flow, nil
}

// SaveFlow upserts a flow after checking it can drive a quiz.
func (l *FlowLoader) SaveFlow(ctx context.Context, flow domain.Flow) error {
	normalized, err := flow.Normalize()
	if err != nil {
		return err
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("marshal flow: %w", err)
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO quiz_flows (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		normalized.ID, string(data))
	if err != nil {
		return fmt.Errorf("save flow: %w", err)
	}
	return nil
}
