package repo

import (
	"context"
	"database/sql"

	"github.com/mindhaven/backend/internal/model/user"
)

func (r *Repo) InsertUser(ctx context.Context, u user.User) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users(id, email, password_hash, created_at) VALUES (?,?,?,?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

func (r *Repo) GetUser(ctx context.Context, id string) (user.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

func scanUser(row *sql.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

func (r *Repo) InsertProfile(ctx context.Context, p user.Profile) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO profiles(user_id, username, avatar_url, updated_at) VALUES (?,?,?,?)`,
		p.UserID, p.Username, nullable(p.AvatarURL), p.UpdatedAt)
	return err
}

func (r *Repo) GetProfile(ctx context.Context, userID string) (user.Profile, error) {
	var p user.Profile
	var avatar sql.NullString
	err := r.DB.QueryRowContext(ctx,
		`SELECT user_id, username, avatar_url, updated_at FROM profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Username, &avatar, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	if avatar.Valid {
		p.AvatarURL = avatar.String
	}
	return p, err
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
