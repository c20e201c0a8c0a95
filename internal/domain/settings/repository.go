package settings

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Provider supplies the facility settings. Get never fails for a missing row:
// defaults are returned instead.
type Provider interface {
	Get(ctx context.Context) (*Settings, error)
}

type Repository interface {
	Provider
	Save(ctx context.Context, s *Settings) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context) (*Settings, error) {
	var s Settings
	err := r.db.WithContext(ctx).Order("id ASC").First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Default(), nil
		}
		return nil, err
	}
	if len(s.OpeningHours) == 0 {
		s.OpeningHours = DefaultWorkingHours()
	}
	return &s, nil
}

func (r *repository) Save(ctx context.Context, s *Settings) error {
	return r.db.WithContext(ctx).Save(s).Error
}
