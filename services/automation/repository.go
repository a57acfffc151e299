package automation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"automation-builder/api/services/workflow"
)

// This file repository.go contains automation related DB methods.
// The queries use raw SQL and manual scanning.

func (s *Service) insertAutomation(ctx context.Context, id string, a workflow.Automation, definition []byte) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO automations (id, name, description, trigger, definition)
		VALUES ($1, $2, $3, $4, $5)
	`, id, a.Name, a.Description, a.Trigger, definition)
	return err
}

// updateAutomation reports false when no row has the id.
func (s *Service) updateAutomation(ctx context.Context, id string, a workflow.Automation, definition []byte) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE automations
		SET name = $1,
		    description = $2,
		    trigger = $3,
		    definition = $4,
		    updated_at = now()
		WHERE id = $5
	`, a.Name, a.Description, a.Trigger, definition, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// getAutomationByID returns an automation by id.
func (s *Service) getAutomationByID(ctx context.Context, id string) (*workflow.Automation, error) {
	a := workflow.Automation{ID: id}
	var definition []byte

	err := s.db.QueryRow(ctx, `
		SELECT name, description, trigger, definition
		FROM automations
		WHERE id = $1
	`, id).Scan(&a.Name, &a.Description, &a.Trigger, &definition)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrAutomationNotFound, id)
		}
		return nil, err
	}

	if err := json.Unmarshal(definition, &a.Workflow); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAutomationStore, err)
	}
	return &a, nil
}

func (s *Service) listAutomations(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, trigger, COALESCE(jsonb_array_length(definition->'steps'), 0), updated_at
		FROM automations
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := []Summary{}
	for rows.Next() {
		var sm Summary
		if err := rows.Scan(&sm.ID, &sm.Name, &sm.Trigger, &sm.Steps, &sm.UpdatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, sm)
	}
	return summaries, rows.Err()
}
