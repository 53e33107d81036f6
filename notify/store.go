package notify

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Subscription 政策更新订阅
type Subscription struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PolicyID  string         `gorm:"size:255;not null;index" json:"policy_id"` // 政策标识（名称或文号）
	Email     string         `gorm:"size:255;not null" json:"email"`
	Channel   string         `gorm:"size:255;not null;default:''" json:"channel,omitempty"` // Slack 频道
	Frequency string         `gorm:"size:32;not null;default:weekly" json:"frequency"`      // daily / weekly / monthly
	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Reminder 合规截止日提醒
type Reminder struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	PolicyName string         `gorm:"size:255;not null" json:"policy_name"`
	Deadline   time.Time      `gorm:"not null" json:"deadline"`
	RemindAt   time.Time      `gorm:"not null;index" json:"remind_at"`
	Channel    string         `gorm:"size:255;not null;default:''" json:"channel,omitempty"`
	Sent       bool           `gorm:"not null;default:false" json:"sent"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

// ActionRecord 外部动作审计流水
type ActionRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"size:64;not null;index" json:"action"`
	Target    string    `gorm:"size:255;not null;default:''" json:"target,omitempty"`
	Payload   string    `gorm:"type:text" json:"payload,omitempty"` // 动作参数的 JSON 快照
	Success   bool      `gorm:"not null;default:true" json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

// InitDatabase 自动迁移通知侧的表。db 为 nil 时跳过（log-only 模式）。
func InitDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	if err := db.AutoMigrate(&Subscription{}, &Reminder{}, &ActionRecord{}); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}

// Store 封装通知侧的持久化。
// db 为 nil 时所有写操作降级为仅记日志，读操作返回空集。
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore 创建通知存储。
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

// Persistent 报告是否有底层数据库。
func (s *Store) Persistent() bool { return s.db != nil }

// CreateSubscription 落库一条订阅。
func (s *Store) CreateSubscription(ctx context.Context, sub *Subscription) error {
	if s.db == nil {
		s.logger.Info("no database, subscription not persisted",
			zap.String("policy_id", sub.PolicyID))
		return nil
	}
	return s.db.WithContext(ctx).Create(sub).Error
}

// ListSubscriptions 按创建序倒排列出订阅；activeOnly 时过滤停用项。
func (s *Store) ListSubscriptions(ctx context.Context, activeOnly bool) ([]Subscription, error) {
	if s.db == nil {
		return []Subscription{}, nil
	}
	q := s.db.WithContext(ctx).Order("id DESC")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var subs []Subscription
	if err := q.Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// DeactivateSubscription 停用订阅。订阅行保留，供审计与重新启用。
func (s *Store) DeactivateSubscription(ctx context.Context, id uint) error {
	if s.db == nil {
		return nil
	}
	res := s.db.WithContext(ctx).Model(&Subscription{}).
		Where("id = ?", id).
		Update("active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateReminder 落库一条提醒。
func (s *Store) CreateReminder(ctx context.Context, rem *Reminder) error {
	if s.db == nil {
		s.logger.Info("no database, reminder not persisted",
			zap.String("policy", rem.PolicyName))
		return nil
	}
	return s.db.WithContext(ctx).Create(rem).Error
}

// PendingReminders 返回 remind_at 已到且未发送的提醒。
func (s *Store) PendingReminders(ctx context.Context, now time.Time) ([]Reminder, error) {
	if s.db == nil {
		return []Reminder{}, nil
	}
	var rems []Reminder
	err := s.db.WithContext(ctx).
		Where("sent = ? AND remind_at <= ?", false, now).
		Order("remind_at ASC").
		Find(&rems).Error
	if err != nil {
		return nil, err
	}
	return rems, nil
}

// MarkReminderSent 标记提醒已投递。
func (s *Store) MarkReminderSent(ctx context.Context, id uint) error {
	if s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Model(&Reminder{}).
		Where("id = ?", id).
		Update("sent", true).Error
}

// RecordAction 追加一条审计流水。
func (s *Store) RecordAction(ctx context.Context, rec *ActionRecord) error {
	if s.db == nil {
		s.logger.Debug("no database, action not recorded",
			zap.String("action", rec.Action))
		return nil
	}
	return s.db.WithContext(ctx).Create(rec).Error
}

// RecentActions 返回最近的审计流水，最新在前。
func (s *Store) RecentActions(ctx context.Context, limit int) ([]ActionRecord, error) {
	if s.db == nil {
		return []ActionRecord{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var recs []ActionRecord
	err := s.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}
