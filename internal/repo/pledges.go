package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/mindhaven/backend/internal/model/pledge"
)

const pledgeColumns = `p.id, p.user_id, p.title, p.status, p.created_at, p.updated_at,
	COALESCE(pr.username, ''), COALESCE(pr.avatar_url, '')`

func (r *Repo) InsertPledge(ctx context.Context, p pledge.Pledge) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO pledges(id, user_id, title, status, created_at, updated_at) VALUES (?,?,?,?,?,?)`,
		p.ID, p.UserID, p.Title, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}

// GetPledge 返回单条承诺，带上发布者的公开资料。
func (r *Repo) GetPledge(ctx context.Context, id string) (pledge.Pledge, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges p
		 LEFT JOIN profiles pr ON pr.user_id = p.user_id
		 WHERE p.id = ?`, id)
	return scanPledge(row.Scan)
}

// ListPledges 返回全部承诺，新的在前。
func (r *Repo) ListPledges(ctx context.Context) ([]pledge.Pledge, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+pledgeColumns+` FROM pledges p
		 LEFT JOIN profiles pr ON pr.user_id = p.user_id
		 ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pledges []pledge.Pledge
	for rows.Next() {
		p, err := scanPledge(rows.Scan)
		if err != nil {
			return nil, err
		}
		pledges = append(pledges, p)
	}
	return pledges, rows.Err()
}

func (r *Repo) UpdatePledgeStatus(ctx context.Context, id string, status pledge.Status, updatedAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE pledges SET status = ?, updated_at = ? WHERE id = ?`, status, updatedAt, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeletePledge(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM pledges WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanPledge(scan func(dest ...any) error) (pledge.Pledge, error) {
	var p pledge.Pledge
	err := scan(&p.ID, &p.UserID, &p.Title, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		&p.Username, &p.AvatarURL)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}
