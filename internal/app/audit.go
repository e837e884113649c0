package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TurnRecord is the audit trail of one chat turn. Views are never stored,
// only which tools ran with which arguments.
type TurnRecord struct {
	TurnID      string        `json:"turn_id"`
	UserMessage string        `json:"user_message"`
	FinalText   string        `json:"final_text"`
	Iterations  int           `json:"iterations"`
	GaveUp      bool          `json:"gave_up"`
	Error       string        `json:"error,omitempty"`
	Tools       []ToolAudit   `json:"tools"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
}

type ToolAudit struct {
	CallID    string        `json:"call_id"`
	Name      string        `json:"name"`
	Arguments string        `json:"arguments"`
	Error     string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
}

// MaxTurnsPage caps how many turns one listing returns.
const MaxTurnsPage = 200

type TurnRecorder interface {
	RecordTurn(ctx context.Context, rec TurnRecord) error
}

// AuditStore writes turn records to Postgres.
type AuditStore struct {
	DB *pgxpool.Pool
}

const auditSchema = `CREATE TABLE IF NOT EXISTS chat_turns (
	turn_id      UUID PRIMARY KEY,
	user_message TEXT NOT NULL,
	final_text   TEXT NOT NULL DEFAULT '',
	iterations   INT NOT NULL,
	gave_up      BOOLEAN NOT NULL DEFAULT FALSE,
	error        TEXT NOT NULL DEFAULT '',
	tools        JSONB NOT NULL DEFAULT '[]',
	started_at   TIMESTAMPTZ NOT NULL,
	duration_ms  BIGINT NOT NULL
)`

func (s *AuditStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.DB.Exec(ctx, auditSchema); err != nil {
		return fmt.Errorf("create chat_turns: %w", err)
	}
	return nil
}

func (s *AuditStore) RecordTurn(ctx context.Context, rec TurnRecord) error {
	tools := rec.Tools
	if tools == nil {
		tools = []ToolAudit{}
	}
	toolsJSON, err := json.Marshal(tools)
	if err != nil {
		return err
	}

	q := `INSERT INTO chat_turns
          (turn_id, user_message, final_text, iterations, gave_up, error, tools, started_at, duration_ms)
          VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
          ON CONFLICT (turn_id) DO NOTHING`
	_, err = s.DB.Exec(ctx, q,
		rec.TurnID, rec.UserMessage, rec.FinalText, rec.Iterations, rec.GaveUp,
		rec.Error, toolsJSON, rec.StartedAt.UTC(), rec.Duration.Milliseconds())
	return err
}

// RecentTurns lists the latest turns, newest first.
func (s *AuditStore) RecentTurns(ctx context.Context, limit int) ([]TurnRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	limit = min(limit, MaxTurnsPage)
	q := `SELECT turn_id::text, user_message, final_text, iterations, gave_up, error, tools, started_at, duration_ms
	      FROM chat_turns ORDER BY started_at DESC LIMIT $1`
	rows, err := s.DB.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TurnRecord
	for rows.Next() {
		var (
			r          TurnRecord
			toolsJSON  []byte
			durationMS int64
		)
		if err := rows.Scan(&r.TurnID, &r.UserMessage, &r.FinalText, &r.Iterations, &r.GaveUp,
			&r.Error, &toolsJSON, &r.StartedAt, &durationMS); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(toolsJSON, &r.Tools); err != nil {
			return nil, fmt.Errorf("decode tools of turn %s: %w", r.TurnID, err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}

// Turn loads one turn by id; pgx.ErrNoRows when it does not exist.
func (s *AuditStore) Turn(ctx context.Context, turnID string) (TurnRecord, error) {
	q := `SELECT turn_id::text, user_message, final_text, iterations, gave_up, error, tools, started_at, duration_ms
	      FROM chat_turns WHERE turn_id=$1`
	var (
		r          TurnRecord
		toolsJSON  []byte
		durationMS int64
	)
	err := s.DB.QueryRow(ctx, q, turnID).Scan(&r.TurnID, &r.UserMessage, &r.FinalText, &r.Iterations,
		&r.GaveUp, &r.Error, &toolsJSON, &r.StartedAt, &durationMS)
	if err != nil {
		return TurnRecord{}, err
	}
	if err := json.Unmarshal(toolsJSON, &r.Tools); err != nil {
		return TurnRecord{}, err
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	return r, nil
}
