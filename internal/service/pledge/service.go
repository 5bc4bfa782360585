package pledge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	model "github.com/mindhaven/backend/internal/model/pledge"
	"github.com/mindhaven/backend/internal/realtime"
	"github.com/mindhaven/backend/internal/repo"
)

var (
	ErrNotFound      = errors.New("pledge not found")
	ErrForbidden     = errors.New("pledge belongs to another user")
	ErrEmptyTitle    = errors.New("pledge title is required")
	ErrInvalidStatus = errors.New("invalid pledge status")
)

const feedTable = "pledges"

// Publisher 把变更事件交给实时通道。测试里用桩替换。
type Publisher interface {
	Publish(event realtime.ChangeEvent)
}

// Service 管理社区承诺板：写入存储并向订阅者广播变更。
type Service struct {
	repo      *repo.Repo
	publisher Publisher
}

// NewService 创建承诺服务。publisher 可以为 nil，此时不广播。
func NewService(r *repo.Repo, publisher Publisher) *Service {
	return &Service{repo: r, publisher: publisher}
}

// List 返回全部承诺，新的在前。
func (s *Service) List(ctx context.Context) ([]model.Pledge, error) {
	return s.repo.ListPledges(ctx)
}

// Create 发布一条新的承诺。
func (s *Service) Create(ctx context.Context, userID, title string) (model.Pledge, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Pledge{}, ErrEmptyTitle
	}

	now := time.Now().UTC()
	p := model.Pledge{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Status:    model.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.InsertPledge(ctx, p); err != nil {
		return model.Pledge{}, err
	}

	// 广播携带资料拼接后的完整记录，省去订阅端的二次查询。
	if full, err := s.repo.GetPledge(ctx, p.ID); err == nil {
		p = full
	}
	s.publish(realtime.EventInsert, p)
	return p, nil
}

// SetStatus 由所有者切换承诺状态。
func (s *Service) SetStatus(ctx context.Context, userID, id string, status model.Status) (model.Pledge, error) {
	if !status.Valid() {
		return model.Pledge{}, ErrInvalidStatus
	}

	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return model.Pledge{}, err
	}

	now := time.Now().UTC()
	if err := s.repo.UpdatePledgeStatus(ctx, id, status, now); err != nil {
		return model.Pledge{}, err
	}
	p.Status = status
	p.UpdatedAt = now

	s.publish(realtime.EventUpdate, p)
	return p, nil
}

// Delete 由所有者删除承诺。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeletePledge(ctx, id); err != nil {
		return err
	}

	s.publish(realtime.EventDelete, p)
	return nil
}

func (s *Service) owned(ctx context.Context, userID, id string) (model.Pledge, error) {
	p, err := s.repo.GetPledge(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Pledge{}, ErrNotFound
	}
	if err != nil {
		return model.Pledge{}, err
	}
	if p.UserID != userID {
		return model.Pledge{}, ErrForbidden
	}
	return p, nil
}

func (s *Service) publish(eventType realtime.EventType, record model.Pledge) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(realtime.ChangeEvent{
		Type:      eventType,
		Table:     feedTable,
		Record:    record,
		Timestamp: time.Now().UTC(),
	})
}
