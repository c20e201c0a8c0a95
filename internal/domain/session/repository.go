package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"trainingdesk/internal/domain/ledger"
	"trainingdesk/internal/domain/machine"
	"trainingdesk/internal/domain/member"
	"trainingdesk/internal/domain/scheduling"
	"trainingdesk/internal/domain/subscription"
)

// pgExclusionViolation is raised by the no-overlap constraint on training_sessions.
const pgExclusionViolation = "23P01"

type gormStore struct {
	ledger.Store

	db            *gorm.DB
	machines      machine.Repository
	members       member.Directory
	subscriptions subscription.Repository
}

// NewStore returns the gorm implementation of Store.
func NewStore(db *gorm.DB) Store {
	return &gormStore{
		Store:         ledger.NewStore(db),
		db:            db,
		machines:      machine.NewRepository(db),
		members:       member.NewDirectory(db),
		subscriptions: subscription.NewRepository(db),
	}
}

func (r *gormStore) InTx(ctx context.Context, fn func(tx Store) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (r *gormStore) LockMachine(ctx context.Context, id int64) (*machine.Machine, error) {
	return r.machines.LockByID(ctx, id)
}

func (r *gormStore) GetMachine(ctx context.Context, id int64) (*machine.Machine, error) {
	return r.machines.GetByID(ctx, id)
}

func (r *gormStore) FindOverlapping(ctx context.Context, machineID int64, start, end time.Time, excludeID int64) ([]int64, error) {
	q := r.db.WithContext(ctx).Model(&Session{}).
		Where("machine_id = ?", machineID).
		Where("status <> ?", StatusCancelled).
		Where("scheduled_start < ? AND scheduled_end > ?", end.UTC(), start.UTC())
	if excludeID > 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var ids []int64
	if err := q.Order("scheduled_start ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *gormStore) Create(ctx context.Context, s *Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return mapWriteError(err, s.MachineID)
	}
	return nil
}

func (r *gormStore) GetByID(ctx context.Context, id int64) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormStore) GetForUpdate(ctx context.Context, id int64) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *gormStore) UpdateStatus(ctx context.Context, id int64, status Status, at time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": at,
	}
	switch status {
	case StatusInProgress:
		updates["started_at"] = at
	case StatusCompleted:
		updates["completed_at"] = at
	case StatusCancelled:
		updates["cancelled_at"] = at
	}

	res := r.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormStore) UpdateFields(ctx context.Context, id int64, p Patch, at time.Time) error {
	if p.Empty() {
		return nil
	}

	updates := map[string]any{"updated_at": at.UTC()}
	if p.MachineID != nil {
		updates["machine_id"] = *p.MachineID
	}
	if p.ScheduledStart != nil {
		updates["scheduled_start"] = p.ScheduledStart.UTC()
	}
	if p.ScheduledEnd != nil {
		updates["scheduled_end"] = p.ScheduledEnd.UTC()
	}
	if p.TrainerID != nil {
		updates["trainer_id"] = *p.TrainerID
	}
	if p.CountedInSubscriptionID != nil {
		updates["counted_in_subscription_id"] = *p.CountedInSubscriptionID
	}
	if p.ClearCountedIn {
		updates["counted_in_subscription_id"] = gorm.Expr("NULL")
	}
	if p.Notes != nil {
		updates["notes"] = *p.Notes
	}

	res := r.db.WithContext(ctx).Model(&Session{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		var machineID int64
		if p.MachineID != nil {
			machineID = *p.MachineID
		}
		return mapWriteError(res.Error, machineID)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormStore) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&Session{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormStore) GetMember(ctx context.Context, id int64) (*member.Member, error) {
	return r.members.GetByID(ctx, id)
}

func (r *gormStore) FindOrCreateTrialMember(ctx context.Context, email, name, phone string) (*member.Member, error) {
	m, _, err := r.members.FindOrCreate(ctx, email, name, phone)
	return m, err
}

func (r *gormStore) CountAttendedSessions(ctx context.Context, memberID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Session{}).
		Where("member_id = ? AND status IN ?", memberID, []Status{StatusInProgress, StatusCompleted}).
		Count(&n).Error
	return n, err
}

func (r *gormStore) ActiveSubscriptionForMember(ctx context.Context, memberID int64, at time.Time) (*subscription.Subscription, error) {
	return r.subscriptions.GetActiveForMember(ctx, memberID, at)
}

func (r *gormStore) ListForMachine(ctx context.Context, machineID int64, from, to time.Time) ([]Session, error) {
	var out []Session
	err := r.db.WithContext(ctx).
		Where("machine_id = ? AND status <> ?", machineID, StatusCancelled).
		Where("scheduled_start < ? AND scheduled_end > ?", to.UTC(), from.UTC()).
		Order("scheduled_start ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormStore) UncountedContractual(ctx context.Context, memberID int64) ([]Session, error) {
	var out []Session
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("member_id = ? AND session_type = ?", memberID, TypeContractual).
		Where("status <> ? AND counted_in_subscription_id IS NULL", StatusCancelled).
		Order("scheduled_start ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gormStore) CountCompletedSince(ctx context.Context, memberID int64, since *time.Time) (int64, error) {
	q := r.db.WithContext(ctx).Model(&Session{}).
		Where("member_id = ? AND status = ?", memberID, StatusCompleted)
	if since != nil {
		q = q.Where("scheduled_start >= ?", since.UTC())
	}

	var n int64
	err := q.Count(&n).Error
	return n, err
}

// mapWriteError turns a violation of the Postgres no-overlap constraint into the
// allocator's conflict error. It fires only when a concurrent writer bypassed the
// machine row lock.
func mapWriteError(err error, machineID int64) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation {
		return &scheduling.SlotConflictError{MachineID: machineID}
	}
	return err
}
