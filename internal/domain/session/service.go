package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"trainingdesk/internal/domain/ledger"
	"trainingdesk/internal/domain/member"
	"trainingdesk/internal/domain/planning"
	"trainingdesk/internal/domain/scheduling"
	"trainingdesk/internal/domain/settings"
)

// Service owns the session lifecycle: it validates requests, reserves machine
// windows, moves credits and persists the result in one transaction per call.
type Service struct {
	store    Store
	settings settings.Provider
	sinks    []EventSink
	now      func() time.Time
}

func NewService(store Store, settings settings.Provider, sinks ...EventSink) *Service {
	return &Service{
		store:    store,
		settings: settings,
		sinks:    sinks,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TrialContact identifies a prospective member booking a trial.
type TrialContact struct {
	Email string
	Name  string
	Phone string
}

type CreateInput struct {
	MachineID      int64
	TrainerID      *int64
	ScheduledStart time.Time
	ScheduledEnd   time.Time
	Type           Type
	MemberID       *int64
	Trial          *TrialContact
	Guest          *Guest
	Notes          string
}

type RescheduleInput struct {
	MachineID      *int64
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
}

type transitionOptions struct {
	trainerID *int64
}

type TransitionOption func(*transitionOptions)

// WithTrainer assigns the trainer while the session starts or completes.
func WithTrainer(trainerID int64) TransitionOption {
	return func(o *transitionOptions) { o.trainerID = &trainerID }
}

// View is a session with the planning indicators computed for display.
type View struct {
	Session    *Session            `json:"session"`
	Indicators planning.Indicators `json:"indicators"`
}

type DayView struct {
	MachineID int64                  `json:"machine_id"`
	Date      string                 `json:"date"`
	Open      bool                   `json:"open"`
	Slots     []scheduling.SlotState `json:"slots"`
	Sessions  []Session              `json:"sessions"`
}

func (s *Service) CreateSession(ctx context.Context, in CreateInput) (*Session, Command, error) {
	if err := validateCreate(&in); err != nil {
		return nil, Command{}, err
	}

	sess := &Session{
		MachineID:      in.MachineID,
		TrainerID:      in.TrainerID,
		ScheduledStart: in.ScheduledStart.UTC(),
		ScheduledEnd:   in.ScheduledEnd.UTC(),
		Status:         StatusScheduled,
		Type:           in.Type,
		MemberID:       in.MemberID,
		Notes:          strings.TrimSpace(in.Notes),
	}
	if in.Guest != nil {
		sess.Guest = *in.Guest
	}

	now := s.now()
	sess.CreatedAt, sess.UpdatedAt = now, now
	err := s.store.InTx(ctx, func(tx Store) error {
		if err := resolveParticipant(ctx, tx, sess, in.Trial); err != nil {
			return err
		}

		var subscriptionID int64
		if sess.Type.ConsumesCredit() {
			sub, err := tx.ActiveSubscriptionForMember(ctx, *sess.MemberID, sess.ScheduledStart)
			if err != nil {
				return err
			}
			if sub == nil {
				return fmt.Errorf("member %d: %w", *sess.MemberID, ErrNoActiveSubscription)
			}
			subscriptionID = sub.ID
		}

		if err := scheduling.NewAllocator(tx).Reserve(ctx, sess.MachineID, sess.ScheduledStart, sess.ScheduledEnd, 0); err != nil {
			return err
		}

		if subscriptionID != 0 {
			if err := ledger.New(tx).Consume(ctx, subscriptionID); err != nil {
				return err
			}
			sess.CountedInSubscriptionID = &subscriptionID
		}

		return tx.Create(ctx, sess)
	})
	if err != nil {
		return nil, Command{}, err
	}

	cmd := newCommand(KindCreated, sess.ID, nil, sess, now)
	s.publish(ctx, cmd)
	return sess, cmd, nil
}

// resolveParticipant checks the member reference for types that carry one and,
// for trials, finds or registers the prospective member.
func resolveParticipant(ctx context.Context, tx Store, sess *Session, trial *TrialContact) error {
	switch sess.Type {
	case TypeTrial:
		var m *member.Member
		var err error
		if trial != nil {
			m, err = tx.FindOrCreateTrialMember(ctx, trial.Email, trial.Name, trial.Phone)
		} else {
			m, err = tx.GetMember(ctx, *sess.MemberID)
		}
		if err != nil {
			return err
		}
		attended, err := tx.CountAttendedSessions(ctx, m.ID)
		if err != nil {
			return err
		}
		if attended > 0 {
			return fmt.Errorf("%s: %w", m.Email, ErrDuplicateTrialMember)
		}
		sess.MemberID = &m.ID
		return nil

	case TypeMember, TypeMakeup, TypeContractual:
		_, err := tx.GetMember(ctx, *sess.MemberID)
		return err

	case TypeMultiSite, TypeCollaboration, TypeNonBookable:
		if sess.MemberID != nil {
			_, err := tx.GetMember(ctx, *sess.MemberID)
			return err
		}
		return nil

	default:
		return invalid("session_type", "is unknown")
	}
}

func validateCreate(in *CreateInput) error {
	if in.MachineID <= 0 {
		return invalid("machine_id", "is required")
	}
	if in.ScheduledStart.IsZero() || in.ScheduledEnd.IsZero() {
		return invalid("scheduled_start", "and scheduled_end are required")
	}
	if !in.ScheduledEnd.After(in.ScheduledStart) {
		return invalid("scheduled_end", "must be after scheduled_start")
	}
	if !in.Type.Valid() {
		return invalid("session_type", "is unknown")
	}
	if in.Guest != nil && in.Guest.IsZero() {
		in.Guest = nil
	}

	hasMember := in.MemberID != nil
	hasGuest := in.Guest != nil

	switch in.Type {
	case TypeTrial:
		if hasGuest {
			return invalid("guest", "is not allowed for trial sessions")
		}
		if in.Trial == nil && !hasMember {
			return invalid("trial", "contact or member_id is required")
		}
		if in.Trial != nil && hasMember {
			return invalid("trial", "cannot be combined with member_id")
		}
		if in.Trial != nil && member.NormalizeEmail(in.Trial.Email) == "" {
			return invalid("trial.email", "is required")
		}
	case TypeMember, TypeMakeup, TypeContractual:
		if !hasMember {
			return invalid("member_id", "is required for "+string(in.Type)+" sessions")
		}
		if hasGuest {
			return invalid("guest", "is not allowed for "+string(in.Type)+" sessions")
		}
	case TypeMultiSite:
		if hasMember {
			return invalid("member_id", "is not allowed for multi_site sessions")
		}
		if !hasGuest || strings.TrimSpace(in.Guest.Name) == "" {
			return invalid("guest.name", "is required for multi_site sessions")
		}
	case TypeCollaboration:
		if hasMember && hasGuest {
			return invalid("guest", "cannot be combined with member_id")
		}
	case TypeNonBookable:
		if hasMember || hasGuest {
			return invalid("member_id", "non_bookable sessions have no participant")
		}
	}

	if in.Type != TypeTrial && in.Trial != nil {
		return invalid("trial", "is only accepted for trial sessions")
	}
	return nil
}

// TransitionSession moves a session along the lifecycle. Cancelling restores the
// recorded credit and clears the reference in the same transaction; cancelling an
// already cancelled session is a no-op.
func (s *Service) TransitionSession(ctx context.Context, id int64, to Status, opts ...TransitionOption) (*Session, Command, error) {
	var o transitionOptions
	for _, opt := range opts {
		opt(&o)
	}

	if !to.Valid() {
		return nil, Command{}, invalid("status", "is unknown")
	}
	if o.trainerID != nil && to == StatusCancelled {
		return nil, Command{}, invalid("trainer_id", "cannot be assigned when cancelling")
	}

	var before, after *Session
	unchanged := false
	now := s.now()
	err := s.store.InTx(ctx, func(tx Store) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = cur

		if cur.Status == StatusCancelled && to == StatusCancelled {
			unchanged = true
			if err := restoreCredit(ctx, tx, cur, now); err != nil {
				return err
			}
			after, err = tx.GetByID(ctx, id)
			return err
		}

		if !CanTransition(cur.Status, to) {
			return &InvalidTransitionError{From: cur.Status, To: to}
		}

		if to == StatusCancelled {
			if err := restoreCredit(ctx, tx, cur, now); err != nil {
				return err
			}
		}
		if o.trainerID != nil {
			if err := tx.UpdateFields(ctx, id, Patch{TrainerID: o.trainerID}, now); err != nil {
				return err
			}
		}
		if err := tx.UpdateStatus(ctx, id, to, now); err != nil {
			return err
		}

		after, err = tx.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, Command{}, err
	}

	if unchanged {
		return after, newCommand(KindUnchanged, id, before, after, now), nil
	}
	cmd := newCommand(KindStatusChanged, id, before, after, now)
	s.publish(ctx, cmd)
	return after, cmd, nil
}

// RescheduleSession moves a scheduled session to another window or machine. The
// session's own reservation does not conflict with its new window. Credits are
// not re-checked: the booking already paid for the session.
func (s *Service) RescheduleSession(ctx context.Context, id int64, in RescheduleInput) (*Session, Command, error) {
	if in.MachineID == nil && in.ScheduledStart == nil && in.ScheduledEnd == nil {
		return nil, Command{}, invalid("schedule", "nothing to change")
	}
	if in.MachineID != nil && *in.MachineID <= 0 {
		return nil, Command{}, invalid("machine_id", "must be positive")
	}

	var before, after *Session
	now := s.now()
	err := s.store.InTx(ctx, func(tx Store) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = cur

		if cur.Status != StatusScheduled {
			return &InvalidTransitionError{From: cur.Status, To: StatusScheduled}
		}

		machineID, start, end := cur.MachineID, cur.ScheduledStart, cur.ScheduledEnd
		if in.MachineID != nil {
			machineID = *in.MachineID
		}
		if in.ScheduledStart != nil {
			start = in.ScheduledStart.UTC()
		}
		if in.ScheduledEnd != nil {
			end = in.ScheduledEnd.UTC()
		}
		if !end.After(start) {
			return invalid("scheduled_end", "must be after scheduled_start")
		}

		if err := scheduling.NewAllocator(tx).Reserve(ctx, machineID, start, end, cur.ID); err != nil {
			return err
		}
		if err := tx.UpdateFields(ctx, id, Patch{MachineID: &machineID, ScheduledStart: &start, ScheduledEnd: &end}, now); err != nil {
			return err
		}

		after, err = tx.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, Command{}, err
	}

	cmd := newCommand(KindRescheduled, id, before, after, now)
	s.publish(ctx, cmd)
	return after, cmd, nil
}

// DeleteSession removes a session, restoring its credit first when one is recorded.
// Completed sessions are kept as history and cannot be deleted.
func (s *Service) DeleteSession(ctx context.Context, id int64) (Command, error) {
	var before *Session
	now := s.now()
	err := s.store.InTx(ctx, func(tx Store) error {
		cur, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = cur

		if !deletable(cur.Status) {
			return &InvalidTransitionError{From: cur.Status, To: statusDeleted}
		}
		if err := restoreCredit(ctx, tx, cur, now); err != nil {
			return err
		}
		return tx.Delete(ctx, id)
	})
	if err != nil {
		return Command{}, err
	}

	cmd := newCommand(KindDeleted, id, before, nil, now)
	s.publish(ctx, cmd)
	return cmd, nil
}

// restoreCredit gives back the credit recorded on cur, if any, and clears the
// reference so a repeated call restores nothing.
func restoreCredit(ctx context.Context, tx Store, cur *Session, at time.Time) error {
	if cur.CountedInSubscriptionID == nil {
		return nil
	}
	if err := ledger.New(tx).Restore(ctx, *cur.CountedInSubscriptionID); err != nil {
		return err
	}
	return tx.UpdateFields(ctx, cur.ID, Patch{ClearCountedIn: true}, at)
}

// AssignContractualCredits debits subscriptionID once for each of the member's
// contractual sessions not yet counted, oldest first, until credits run out.
func (s *Service) AssignContractualCredits(ctx context.Context, memberID, subscriptionID int64) ([]Command, error) {
	type change struct{ before, after *Session }
	var changes []change

	now := s.now()
	err := s.store.InTx(ctx, func(tx Store) error {
		sub, err := tx.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return err
		}
		if sub.MemberID != memberID {
			return invalid("member_id", "does not own the subscription")
		}

		pending, err := tx.UncountedContractual(ctx, memberID)
		if err != nil {
			return err
		}

		l := ledger.New(tx)
		for i := range pending {
			cur := &pending[i]
			if err := l.Consume(ctx, subscriptionID); err != nil {
				if errors.Is(err, ledger.ErrNoRemainingCredits) {
					break
				}
				return err
			}
			if err := tx.UpdateFields(ctx, cur.ID, Patch{CountedInSubscriptionID: &subscriptionID}, now); err != nil {
				return err
			}
			after, err := tx.GetByID(ctx, cur.ID)
			if err != nil {
				return err
			}
			changes = append(changes, change{before: cur, after: after})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cmds := make([]Command, 0, len(changes))
	for _, ch := range changes {
		cmd := newCommand(KindCreditAssigned, ch.after.ID, ch.before, ch.after, now)
		s.publish(ctx, cmd)
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// GetSession returns the session with its planning indicators.
func (s *Service) GetSession(ctx context.Context, id int64) (*View, error) {
	sess, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.indicatorData(ctx, sess)
	if err != nil {
		return nil, err
	}

	return &View{
		Session:    sess,
		Indicators: planning.Compute(data, sess.ScheduledStart, cfg.Planning()),
	}, nil
}

func (s *Service) indicatorData(ctx context.Context, sess *Session) (planning.Data, error) {
	var data planning.Data
	if sess.MemberID == nil {
		return data, nil
	}

	m, err := s.store.GetMember(ctx, *sess.MemberID)
	if err != nil {
		if errors.Is(err, member.ErrNotFound) {
			return data, nil
		}
		return data, err
	}
	data.LatestPaymentDate = m.LatestPaymentAt

	sub, err := s.store.ActiveSubscriptionForMember(ctx, m.ID, sess.ScheduledStart)
	if err != nil {
		return data, err
	}
	if sub != nil {
		end := sub.EndDate
		data.SubscriptionEndDate = &end
	}

	n, err := s.store.CountCompletedSince(ctx, m.ID, m.LastCheckupAt)
	if err != nil {
		return data, err
	}
	count := int(n)
	data.SessionsSinceCheckup = &count

	return data, nil
}

// MachineDay lays out the machine's day in 30-minute slots within opening hours.
// day is interpreted as a calendar date in UTC.
func (s *Service) MachineDay(ctx context.Context, machineID int64, day time.Time) (*DayView, error) {
	if _, err := s.store.GetMachine(ctx, machineID); err != nil {
		return nil, err
	}

	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.AddDate(0, 0, 1)

	sessions, err := s.store.ListForMachine(ctx, machineID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	view := &DayView{
		MachineID: machineID,
		Date:      dayStart.Format("2006-01-02"),
		Slots:     []scheduling.SlotState{},
		Sessions:  sessions,
	}

	hours := cfg.HoursFor(dayStart)
	window, open, err := scheduling.OpeningWindow(dayStart, hours.OpenTime, hours.CloseTime, hours.IsClosed)
	if err != nil {
		return nil, err
	}
	if !open {
		return view, nil
	}
	view.Open = true

	occupants := make([]scheduling.Occupant, 0, len(sessions))
	for i := range sessions {
		occupants = append(occupants, scheduling.Occupant{ID: sessions[i].ID, Window: sessions[i].Window()})
	}
	view.Slots = scheduling.MarkBusy(scheduling.DaySlots(window), occupants)
	return view, nil
}

func (s *Service) publish(ctx context.Context, cmd Command) {
	for _, sink := range s.sinks {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, cmd); err != nil {
			log.Printf("session_event_publish_failed kind=%s session_id=%d command_id=%s err=%v",
				cmd.Kind, cmd.SessionID, cmd.ID, err)
		}
	}
}
