package manuals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"systemqa/internal/services"
)

// Create inserts a manual in WAITING together with its steps. Step orders are
// assigned 1..N from the slice position.
func (s *Store) Create(ctx context.Context, input NewManual) (*Manual, error) {
	now := time.Now().UTC()
	manual := &Manual{
		ID:               uuid.NewString(),
		Title:            strings.TrimSpace(input.Title),
		ProcessingStatus: StatusWaiting,
		VideoPath:        strings.TrimSpace(input.VideoPath),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	for i, step := range input.Steps {
		manual.Steps = append(manual.Steps, Step{
			ID:          uuid.NewString(),
			ManualID:    manual.ID,
			StepOrder:   i + 1,
			Description: step.Description,
			Instruction: step.Instruction,
			Metadata:    step.Metadata,
		})
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO manuals (id, title, processing_status, video_path, created_at, updated_at)
             VALUES (?, ?, ?, ?, ?, ?)`,
			manual.ID, manual.Title, manual.ProcessingStatus, nullableString(manual.VideoPath),
			formatTime(now), formatTime(now),
		); err != nil {
			return err
		}
		for _, step := range manual.Steps {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO manual_steps (id, manual_id, step_order, description, instruction, metadata)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				step.ID, step.ManualID, step.StepOrder, step.Description, step.Instruction, nullableString(step.Metadata),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("insert manual: %w", err)
	}
	return manual, nil
}

// Get loads a manual with its steps ordered by step order. It returns nil when
// the manual does not exist.
func (s *Store) Get(ctx context.Context, id string) (*Manual, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+manualColumns+" FROM manuals WHERE id = ?", id)
	manual, err := scanManual(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get manual: %w", err)
	}

	steps, err := s.steps(ctx, id)
	if err != nil {
		return nil, err
	}
	manual.Steps = steps
	return manual, nil
}

// MustGet is Get with a not-found error instead of a nil manual.
func (s *Store) MustGet(ctx context.Context, id string) (*Manual, error) {
	manual, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if manual == nil {
		return nil, services.Wrap(services.ErrNotFound, "manuals", "get", fmt.Sprintf("manual %s does not exist", id), nil)
	}
	return manual, nil
}

func (s *Store) steps(ctx context.Context, manualID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+stepColumns+" FROM manual_steps WHERE manual_id = ? ORDER BY step_order",
		manualID,
	)
	if err != nil {
		return nil, fmt.Errorf("list steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		step, err := scanStep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}

// List returns manuals without their steps, newest first. When statuses is
// empty every manual is returned.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Manual, error) {
	query := "SELECT " + manualColumns + " FROM manuals"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE processing_status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list manuals: %w", err)
	}
	defer rows.Close()

	var manuals []*Manual
	for rows.Next() {
		manual, err := scanManual(rows)
		if err != nil {
			return nil, fmt.Errorf("scan manual: %w", err)
		}
		manuals = append(manuals, manual)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate manuals: %w", err)
	}
	return manuals, nil
}

// Stats counts manuals per status and PROCESSING rows with a lapsed lease.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Counts: make(map[Status]int, len(allStatuses))}
	for _, status := range allStatuses {
		stats.Counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx, "SELECT processing_status, COUNT(1) FROM manuals GROUP BY processing_status")
	if err != nil {
		return Stats{}, fmt.Errorf("count manuals: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.Counts[Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate stats: %w", err)
	}

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM manuals WHERE processing_status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at < ?",
		StatusProcessing, formatTime(time.Now()),
	).Scan(&stats.Expired); err != nil {
		return Stats{}, fmt.Errorf("count expired leases: %w", err)
	}
	return stats, nil
}
