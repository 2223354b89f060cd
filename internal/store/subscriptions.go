package store

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ac-maintenance-backend/internal/apperr"
	"ac-maintenance-backend/internal/model"
)

// UpsertSubscription creates or replaces a push subscription and the set of
// subdivisions it follows.
func (s *gormStore) UpsertSubscription(ctx context.Context, sub *model.PushSubscription, subdivisionIDs []uint) error {
	sub.Endpoint = strings.TrimSpace(sub.Endpoint)
	if sub.Endpoint == "" || sub.P256DH == "" || sub.Auth == "" {
		return apperr.Validation("endpoint, p256dh and auth are required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Omit("Subdivisions").Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "endpoint"}},
			DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth", "user_id"}),
		}).Create(sub).Error
		if err != nil {
			return apperr.FromDB(err, "subscription", sub.Endpoint)
		}

		subdivisions := []*model.Subdivision{}
		if len(subdivisionIDs) > 0 {
			if err := tx.Where("is_active = ?", true).Find(&subdivisions, subdivisionIDs).Error; err != nil {
				return apperr.FromDB(err, "subdivision", subdivisionIDs)
			}
			if len(subdivisions) != len(uniqueIDs(subdivisionIDs)) {
				return apperr.Validation("subscription references unknown subdivisions")
			}
		}
		if err := tx.Model(sub).Association("Subdivisions").Replace(subdivisions); err != nil {
			return apperr.FromDB(err, "subscription", sub.Endpoint)
		}
		sub.Subdivisions = subdivisions
		return nil
	})
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).Preload("Subdivisions").First(&sub, "endpoint = ?", endpoint).Error
	if err != nil {
		return nil, apperr.FromDB(err, "subscription", endpoint)
	}
	return &sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM subscription_subdivision_mapping WHERE push_subscription_endpoint = ?", endpoint).Error; err != nil {
			return apperr.FromDB(err, "subscription", endpoint)
		}
		res := tx.Delete(&model.PushSubscription{Endpoint: endpoint})
		if res.Error != nil {
			return apperr.FromDB(res.Error, "subscription", endpoint)
		}
		if res.RowsAffected == 0 {
			return apperr.NotFound("subscription", endpoint)
		}
		return nil
	})
}

func uniqueIDs(ids []uint) map[uint]struct{} {
	set := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
