package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mindhaven/backend/internal/model/mood"
)

// emotions 与 tips 以 JSON 文本落库，读取时再解回切片。

func (r *Repo) InsertMoodLog(ctx context.Context, entry mood.Log) error {
	emotions, err := json.Marshal(entry.Emotions)
	if err != nil {
		return err
	}
	tips, err := json.Marshal(entry.Tips)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO mood_logs(id, user_id, mood_text, insight, mood_score, emotions, tips, closing, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		entry.ID, entry.UserID, entry.MoodText, entry.Insight, entry.MoodScore,
		string(emotions), string(tips), entry.Closing, entry.CreatedAt, entry.UpdatedAt)
	return err
}

func (r *Repo) GetMoodLog(ctx context.Context, id string) (mood.Log, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, mood_text, insight, mood_score, emotions, tips, closing, created_at, updated_at
		 FROM mood_logs WHERE id = ?`, id)
	return scanMoodLog(row.Scan)
}

func (r *Repo) ListMoodLogsByUser(ctx context.Context, userID string) ([]mood.Log, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, user_id, mood_text, insight, mood_score, emotions, tips, closing, created_at, updated_at
		 FROM mood_logs WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []mood.Log
	for rows.Next() {
		entry, err := scanMoodLog(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *Repo) UpdateMoodLogText(ctx context.Context, id, moodText string, updatedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE mood_logs SET mood_text = ?, updated_at = ? WHERE id = ?`, moodText, updatedAt, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteMoodLog(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM mood_logs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMoodLog(scan func(dest ...any) error) (mood.Log, error) {
	var entry mood.Log
	var emotions, tips string
	err := scan(&entry.ID, &entry.UserID, &entry.MoodText, &entry.Insight, &entry.MoodScore,
		&emotions, &tips, &entry.Closing, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return entry, ErrNotFound
	}
	if err != nil {
		return entry, err
	}
	if err := json.Unmarshal([]byte(emotions), &entry.Emotions); err != nil {
		return entry, err
	}
	if err := json.Unmarshal([]byte(tips), &entry.Tips); err != nil {
		return entry, err
	}
	return entry, nil
}
