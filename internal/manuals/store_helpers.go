package manuals

import (
	"database/sql"
	"errors"
	"time"
)

const manualColumns = "id, title, processing_status, video_path, lease_expires_at, created_at, updated_at"

const stepColumns = "id, manual_id, step_order, description, instruction, image_path, metadata"

// timeLayout is fixed width so lease timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanManual(scanner interface{ Scan(dest ...any) error }) (*Manual, error) {
	var (
		id         string
		title      string
		statusStr  string
		videoPath  sql.NullString
		leaseRaw   sql.NullString
		createdRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &title, &statusStr, &videoPath, &leaseRaw, &createdRaw, &updatedRaw); err != nil {
		return nil, err
	}

	manual := &Manual{
		ID:               id,
		Title:            title,
		ProcessingStatus: Status(statusStr),
		VideoPath:        videoPath.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		manual.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		manual.UpdatedAt = updated
	}
	if leaseRaw.Valid {
		if lease, err := parseTimeString(leaseRaw.String); err == nil {
			manual.LeaseExpiresAt = &lease
		}
	}
	return manual, nil
}

func scanStep(scanner interface{ Scan(dest ...any) error }) (Step, error) {
	var (
		step      Step
		imagePath sql.NullString
		metadata  sql.NullString
	)
	if err := scanner.Scan(&step.ID, &step.ManualID, &step.StepOrder, &step.Description, &step.Instruction, &imagePath, &metadata); err != nil {
		return Step{}, err
	}
	step.ImagePath = imagePath.String
	step.Metadata = metadata.String
	return step, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
