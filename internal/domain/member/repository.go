package member

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Directory is the member lookup used by booking.
type Directory interface {
	GetByID(ctx context.Context, id int64) (*Member, error)
	FindByEmail(ctx context.Context, email string) (*Member, error)
	// FindOrCreate returns the member registered under email, creating a bare record
	// when none exists. created reports whether a new row was inserted.
	FindOrCreate(ctx context.Context, email, name, phone string) (m *Member, created bool, err error)
}

type directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &directory{db: db}
}

func (d *directory) GetByID(ctx context.Context, id int64) (*Member, error) {
	var m Member
	if err := d.db.WithContext(ctx).First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (d *directory) FindByEmail(ctx context.Context, email string) (*Member, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}

	var m Member
	if err := d.db.WithContext(ctx).Where("email = ?", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (d *directory) FindOrCreate(ctx context.Context, email, name, phone string) (*Member, bool, error) {
	existing, err := d.FindByEmail(ctx, email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	return d.insertOrGet(ctx, &Member{
		Email: NormalizeEmail(email),
		Name:  strings.TrimSpace(name),
		Phone: strings.TrimSpace(phone),
	})
}

// insertOrGet inserts m unless its email is already taken, in which case the stored
// member is returned. The conflict is resolved by ON CONFLICT DO NOTHING instead of
// a failed insert, so a surrounding transaction stays usable.
func (d *directory) insertOrGet(ctx context.Context, m *Member) (*Member, bool, error) {
	res := d.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return m, true, nil
	}

	existing, err := d.FindByEmail(ctx, m.Email)
	return existing, false, err
}
