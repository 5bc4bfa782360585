package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mindhaven/backend/internal/config"
	"github.com/mindhaven/backend/internal/model/user"
	"github.com/mindhaven/backend/internal/repo"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Service 负责注册、登录与令牌签发。
type Service struct {
	repo *repo.Repo
	cfg  config.AuthConfig
}

// NewService 创建认证服务。
func NewService(r *repo.Repo, cfg config.AuthConfig) *Service {
	return &Service{repo: r, cfg: cfg}
}

// Session 是一次成功注册或登录的产物。
type Session struct {
	Token   string       `json:"token"`
	User    user.User    `json:"user"`
	Profile user.Profile `json:"profile"`
}

// Signup 创建账号与公开资料并直接签发令牌。
func (s *Service) Signup(ctx context.Context, email, password, username string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, errors.New("a valid email is required")
	}
	if len(password) < 8 {
		return nil, errors.New("password must be at least 8 characters")
	}
	if username == "" {
		return nil, errors.New("username is required")
	}

	if _, err := s.repo.GetUserByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := s.repo.InsertUser(ctx, u); err != nil {
		return nil, err
	}

	p := user.Profile{
		UserID:    u.ID,
		Username:  username,
		UpdatedAt: now,
	}
	if err := s.repo.InsertProfile(ctx, p); err != nil {
		return nil, err
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u, Profile: p}, nil
}

// Login 校验密码并签发令牌。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.repo.GetUserByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	p, err := s.repo.GetProfile(ctx, u.ID)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	token, err := s.issueToken(u.ID)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u, Profile: p}, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
