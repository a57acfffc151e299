// Package automation stores saved automations. It is the persistence endpoint
// and the existing-automation loader used by the editor, either in-process
// over Postgres (Service) or against a remote API (Client).
package automation

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"automation-builder/api/services/workflow"
)

//go:embed schema.sql
var schema string

// DB is the subset of *pgxpool.Pool used by the store.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Service struct {
	db    DB
	newID func() string
}

func NewService(db DB) *Service {
	return &Service{db: db, newID: uuid.NewString}
}

// Summary is one row of the automation list.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Trigger   string    `json:"trigger"`
	Steps     int       `json:"steps"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Migrate creates the automations table when missing.
func (s *Service) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schema)
	return err
}

// Persist creates the automation, or replaces it when a.ID is set.
func (s *Service) Persist(ctx context.Context, a workflow.Automation) (string, error) {
	if err := a.Validate(); err != nil {
		return "", err
	}
	if a.Workflow.Steps == nil {
		a.Workflow.Steps = []workflow.SerializedStep{}
	}

	definition, err := json.Marshal(a.Workflow)
	if err != nil {
		return "", fmt.Errorf("marshal definition: %w", err)
	}

	if a.ID == "" {
		id := s.newID()
		if err := s.insertAutomation(ctx, id, a, definition); err != nil {
			return "", err
		}
		slog.Debug("Created automation", "id", id)
		return id, nil
	}

	updated, err := s.updateAutomation(ctx, a.ID, a, definition)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", fmt.Errorf("%w: %s", ErrAutomationNotFound, a.ID)
	}
	slog.Debug("Updated automation", "id", a.ID)
	return a.ID, nil
}

// Load returns the saved automation with the given id.
func (s *Service) Load(ctx context.Context, id string) (*workflow.Automation, error) {
	return s.getAutomationByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.listAutomations(ctx)
}
