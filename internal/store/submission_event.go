package store

import (
	"context"
	"fmt"
	"time"
)

func (r *eventRepo) AppendSubmission(ctx context.Context, data SubmissionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO submission_events
		(sequence, timestamp, attempt_id, category, lesson_id, sign, stage, reason,
		 score, passed, media_url, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UTC(), data.AttemptID, data.Category, data.LessonID,
		data.Sign, data.Stage, data.Reason, data.Score, data.Passed, data.MediaURL,
		data.LatencyMs,
	)
	if err != nil {
		return fmt.Errorf("save submission event: %w", err)
	}
	return nil
}

func (r *eventRepo) QuerySubmissions(ctx context.Context, category string, opts QueryOpts) ([]SubmissionEvent, error) {
	var extra []string
	if category != "" {
		extra = append(extra, "category = ?")
	}
	where, args := whereClause(opts, extra...)
	if category != "" {
		args = append(args, category)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, attempt_id,
		category, lesson_id, sign, stage, reason, score, passed, media_url, latency_ms
		FROM submission_events`+where+" ORDER BY sequence DESC"+limitClause(opts), args...)
	if err != nil {
		return nil, fmt.Errorf("query submission events: %w", err)
	}
	defer rows.Close()

	var out []SubmissionEvent
	for rows.Next() {
		var e SubmissionEvent
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.AttemptID, &e.Category,
			&e.LessonID, &e.Sign, &e.Stage, &e.Reason, &e.Score, &e.Passed, &e.MediaURL,
			&e.LatencyMs); err != nil {
			return nil, fmt.Errorf("scan submission event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) AppendAttempt(ctx context.Context, data AttemptEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `INSERT INTO attempt_events
		(sequence, timestamp, category, lesson_id, kind, action, score, passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		seqNum, time.Now().UTC(), data.Category, data.LessonID, data.Kind, data.Action,
		data.Score, data.Passed,
	)
	if err != nil {
		return fmt.Errorf("save attempt event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryAttempts(ctx context.Context, category string, opts QueryOpts) ([]AttemptEvent, error) {
	var extra []string
	if category != "" {
		extra = append(extra, "category = ?")
	}
	where, args := whereClause(opts, extra...)
	if category != "" {
		args = append(args, category)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, category,
		lesson_id, kind, action, score, passed
		FROM attempt_events`+where+" ORDER BY sequence DESC"+limitClause(opts), args...)
	if err != nil {
		return nil, fmt.Errorf("query attempt events: %w", err)
	}
	defer rows.Close()

	var out []AttemptEvent
	for rows.Next() {
		var e AttemptEvent
		if err := rows.Scan(&e.ID, &e.Sequence, &e.Timestamp, &e.Category, &e.LessonID,
			&e.Kind, &e.Action, &e.Score, &e.Passed); err != nil {
			return nil, fmt.Errorf("scan attempt event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
