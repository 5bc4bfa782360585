package moodlog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mindhaven/backend/internal/model/mood"
	"github.com/mindhaven/backend/internal/repo"
)

var (
	ErrNotFound  = errors.New("mood log not found")
	ErrForbidden = errors.New("mood log belongs to another user")
	ErrEmptyText = errors.New("mood text is required")
)

// Service 管理用户的情绪日记。分析核心从不落库，是否保存由调用方决定后走这里。
type Service struct {
	repo *repo.Repo
}

// NewService 创建日记服务。
func NewService(r *repo.Repo) *Service {
	return &Service{repo: r}
}

// Create 保存一条带评估结果的日记。
func (s *Service) Create(ctx context.Context, userID, moodText string, assessment mood.Assessment) (mood.Log, error) {
	moodText = strings.TrimSpace(moodText)
	if moodText == "" {
		return mood.Log{}, ErrEmptyText
	}

	now := time.Now().UTC()
	entry := mood.Log{
		ID:        uuid.NewString(),
		UserID:    userID,
		MoodText:  moodText,
		Insight:   assessment.Insight,
		MoodScore: assessment.MoodScore,
		Emotions:  assessment.Emotions,
		Tips:      assessment.Tips,
		Closing:   assessment.Closing,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.InsertMoodLog(ctx, entry); err != nil {
		return mood.Log{}, err
	}
	return entry, nil
}

// List 返回该用户的全部日记，新的在前。
func (s *Service) List(ctx context.Context, userID string) ([]mood.Log, error) {
	return s.repo.ListMoodLogsByUser(ctx, userID)
}

// UpdateText 修改日记正文。重新分析是一次新的提交，不在这里发生。
func (s *Service) UpdateText(ctx context.Context, userID, id, moodText string) (mood.Log, error) {
	moodText = strings.TrimSpace(moodText)
	if moodText == "" {
		return mood.Log{}, ErrEmptyText
	}

	entry, err := s.owned(ctx, userID, id)
	if err != nil {
		return mood.Log{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdateMoodLogText(ctx, id, moodText, now); err != nil {
		return mood.Log{}, err
	}
	entry.MoodText = moodText
	entry.UpdatedAt = now
	return entry, nil
}

// Delete 删除日记。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.DeleteMoodLog(ctx, id)
}

// owned 取出日记并校验归属。
func (s *Service) owned(ctx context.Context, userID, id string) (mood.Log, error) {
	entry, err := s.repo.GetMoodLog(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return mood.Log{}, ErrNotFound
	}
	if err != nil {
		return mood.Log{}, err
	}
	if entry.UserID != userID {
		return mood.Log{}, ErrForbidden
	}
	return entry, nil
}
