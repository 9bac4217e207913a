package repository

import (
	"context"
	"time"

	"github.com/subgate/subgate/subscription/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// --- Persistence Model ---

type subscriberModel struct {
	ID          int64     `gorm:"primaryKey;autoIncrement:false"`
	DisplayName string    `gorm:"not null"`
	ValidUntil  time.Time `gorm:"index;not null"` // Index useful for expiration scans
	InviteLink  string
	Notified    bool      `gorm:"default:false"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (subscriberModel) TableName() string {
	return "subscribers"
}

func toSubscriberModel(sub *domain.Subscriber) subscriberModel {
	return subscriberModel{
		ID:          sub.ID,
		DisplayName: sub.DisplayName,
		ValidUntil:  sub.ValidUntil,
		InviteLink:  sub.InviteLink,
		Notified:    sub.Notified,
		CreatedAt:   sub.CreatedAt,
		UpdatedAt:   sub.UpdatedAt,
	}
}

func fromSubscriberModel(m subscriberModel) *domain.Subscriber {
	return &domain.Subscriber{
		ID:          m.ID,
		DisplayName: m.DisplayName,
		ValidUntil:  m.ValidUntil,
		InviteLink:  m.InviteLink,
		Notified:    m.Notified,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// --- Repository Implementation ---

type SubscriberGormRepository struct {
	db *gorm.DB
}

func NewSubscriberGormRepository(db *gorm.DB) *SubscriberGormRepository {
	return &SubscriberGormRepository{db: db}
}

func (r *SubscriberGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&subscriberModel{})
}

func (r *SubscriberGormRepository) Get(ctx context.Context, id int64) (*domain.Subscriber, error) {
	var m subscriberModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrSubscriberNotFound
		}
		return nil, err
	}
	return fromSubscriberModel(m), nil
}

// Upsert creates or replaces the record. The notified flag is always
// cleared: a fresh purchase or admin grant starts a new expiry window.
func (r *SubscriberGormRepository) Upsert(ctx context.Context, sub *domain.Subscriber) error {
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now
	sub.Notified = false

	model := toSubscriberModel(sub)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"display_name": model.DisplayName,
			"valid_until":  model.ValidUntil,
			"invite_link":  model.InviteLink,
			"notified":     false,
			"updated_at":   model.UpdatedAt,
		}),
	}).Create(&model).Error
}

// Extend moves valid_until forward by delta from its stored value and clears
// the notified flag in the same transaction, so no reader can observe the
// new validity with a stale flag.
func (r *SubscriberGormRepository) Extend(ctx context.Context, id int64, delta time.Duration) (time.Time, error) {
	var newEnd time.Time
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m subscriberModel
		if err := tx.First(&m, "id = ?", id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return domain.ErrSubscriberNotFound
			}
			return err
		}

		newEnd = m.ValidUntil.Add(delta)
		return tx.Model(&subscriberModel{}).Where("id = ?", id).Updates(map[string]interface{}{
			"valid_until": newEnd,
			"notified":    false,
			"updated_at":  time.Now(),
		}).Error
	})
	if err != nil {
		return time.Time{}, err
	}
	return newEnd, nil
}

// Delete is idempotent: removing an absent record is not an error.
func (r *SubscriberGormRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&subscriberModel{}, "id = ?", id).Error
}

func (r *SubscriberGormRepository) FindExpiringUnnotified(ctx context.Context, window time.Duration) ([]*domain.Subscriber, error) {
	now := time.Now()
	var models []subscriberModel
	err := r.db.WithContext(ctx).
		Where("valid_until > ? AND valid_until <= ? AND notified = ?", now, now.Add(window), false).
		Order("valid_until asc").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	subs := make([]*domain.Subscriber, 0, len(models))
	for _, m := range models {
		subs = append(subs, fromSubscriberModel(m))
	}
	return subs, nil
}

func (r *SubscriberGormRepository) MarkNotified(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Model(&subscriberModel{}).Where("id = ?", id).Updates(map[string]interface{}{
		"notified":   true,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrSubscriberNotFound
	}
	return nil
}

func (r *SubscriberGormRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&subscriberModel{}).Count(&count).Error
	return count, err
}

func (r *SubscriberGormRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&subscriberModel{}).
		Where("valid_until > ?", time.Now()).
		Count(&count).Error
	return count, err
}
