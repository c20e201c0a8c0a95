package machine

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	List(ctx context.Context) ([]Machine, error)
	GetByID(ctx context.Context, id int64) (*Machine, error)
	// LockByID reads the machine row with a write lock held until the surrounding
	// transaction ends. Bookings on one machine serialise on this lock.
	LockByID(ctx context.Context, id int64) (*Machine, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]Machine, error) {
	var out []Machine
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Machine, error) {
	var m Machine
	if err := r.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *repository) LockByID(ctx context.Context, id int64) (*Machine, error) {
	var m Machine
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}
