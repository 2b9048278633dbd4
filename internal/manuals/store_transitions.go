package manuals

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Claim atomically moves a WAITING manual to PROCESSING and stamps a lease
// expiring after lease. It reports false when the manual is missing or not
// WAITING, which callers treat as a duplicate delivery.
func (s *Store) Claim(ctx context.Context, id string, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(ctx,
		`UPDATE manuals
         SET processing_status = ?, lease_expires_at = ?, updated_at = ?
         WHERE id = ? AND processing_status = ?`,
		StatusProcessing, formatTime(now.Add(lease)), formatTime(now),
		id, StatusWaiting,
	)
	if err != nil {
		return false, fmt.Errorf("claim manual: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim manual rows affected: %w", err)
	}
	return affected == 1, nil
}

// Finish moves a PROCESSING manual to a terminal status and clears its lease.
// It reports false when the manual is no longer PROCESSING.
func (s *Store) Finish(ctx context.Context, id string, status Status) (bool, error) {
	if !status.IsTerminal() {
		return false, fmt.Errorf("finish manual: %s is not a terminal status", status)
	}
	res, err := s.execWithRetry(ctx,
		`UPDATE manuals
         SET processing_status = ?, lease_expires_at = NULL, updated_at = ?
         WHERE id = ? AND processing_status = ?`,
		status, formatTime(time.Now()), id, StatusProcessing,
	)
	if err != nil {
		return false, fmt.Errorf("finish manual: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("finish manual rows affected: %w", err)
	}
	return affected == 1, nil
}

// Heartbeat extends the lease of a PROCESSING manual.
func (s *Store) Heartbeat(ctx context.Context, id string, lease time.Duration) error {
	now := time.Now().UTC()
	if _, err := s.execWithRetry(ctx,
		`UPDATE manuals SET lease_expires_at = ?, updated_at = ?
         WHERE id = ? AND processing_status = ?`,
		formatTime(now.Add(lease)), formatTime(now), id, StatusProcessing,
	); err != nil {
		return fmt.Errorf("update lease: %w", err)
	}
	return nil
}

// SetStepImage commits the blob key of a published screenshot.
func (s *Store) SetStepImage(ctx context.Context, stepID, imagePath string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE manual_steps SET image_path = ? WHERE id = ?`,
		nullableString(imagePath), stepID,
	)
	if err != nil {
		return fmt.Errorf("set step image: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("set step image: step %s does not exist", stepID)
	}
	return nil
}

// SetTitle overwrites the manual title.
func (s *Store) SetTitle(ctx context.Context, id, title string) error {
	if _, err := s.execWithRetry(ctx,
		`UPDATE manuals SET title = ?, updated_at = ? WHERE id = ?`,
		title, formatTime(time.Now()), id,
	); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	return nil
}

// ReclaimExpired resets PROCESSING manuals whose lease lapsed before now back
// to WAITING and returns their identifiers so they can be re-enqueued.
func (s *Store) ReclaimExpired(ctx context.Context, now time.Time) ([]string, error) {
	cutoff := formatTime(now)
	var reclaimed []string
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		reclaimed = reclaimed[:0]
		rows, err := tx.QueryContext(ctx,
			`SELECT id FROM manuals
             WHERE processing_status = ? AND lease_expires_at IS NOT NULL AND lease_expires_at < ?
             ORDER BY lease_expires_at`,
			StatusProcessing, cutoff,
		)
		if err != nil {
			return err
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			reclaimed = append(reclaimed, id)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(reclaimed) == 0 {
			return nil
		}

		args := []any{StatusWaiting, formatTime(time.Now()), StatusProcessing}
		for _, id := range reclaimed {
			args = append(args, id)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE manuals SET processing_status = ?, lease_expires_at = NULL, updated_at = ?
             WHERE processing_status = ? AND id IN (`+makePlaceholders(len(reclaimed))+`)`,
			args...,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("reclaim expired manuals: %w", err)
	}
	return reclaimed, nil
}
