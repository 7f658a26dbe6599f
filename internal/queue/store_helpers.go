package queue

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, kind, status, input_json, result_json, error_message, run_id, current_step, step_index, total_steps, progress_percent, created_at, updated_at, started_at, completed_at, last_heartbeat"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id              string
		kind            string
		statusStr       string
		inputJSON       string
		resultJSON      sql.NullString
		errorMessage    sql.NullString
		runID           sql.NullString
		currentStep     sql.NullString
		stepIndex       sql.NullInt64
		totalSteps      sql.NullInt64
		progressPercent sql.NullFloat64
		createdRaw      sql.NullString
		updatedRaw      sql.NullString
		startedRaw      sql.NullString
		completedRaw    sql.NullString
		heartbeatRaw    sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&kind,
		&statusStr,
		&inputJSON,
		&resultJSON,
		&errorMessage,
		&runID,
		&currentStep,
		&stepIndex,
		&totalSteps,
		&progressPercent,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&completedRaw,
		&heartbeatRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:              id,
		Kind:            kind,
		Status:          Status(statusStr),
		InputJSON:       inputJSON,
		ResultJSON:      resultJSON.String,
		ErrorMessage:    errorMessage.String,
		RunID:           runID.String,
		CurrentStep:     currentStep.String,
		StepIndex:       int(stepIndex.Int64),
		TotalSteps:      int(totalSteps.Int64),
		ProgressPercent: progressPercent.Float64,
		StartedAt:       parseNullableTime(startedRaw),
		CompletedAt:     parseNullableTime(completedRaw),
		LastHeartbeat:   parseNullableTime(heartbeatRaw),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableJSON(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	if string(data) == "null" {
		return nil, nil
	}
	return string(data), nil
}

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseNullableTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	t, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &t
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
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func statusArgs(statuses []Status) []any {
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, status)
	}
	return args
}
