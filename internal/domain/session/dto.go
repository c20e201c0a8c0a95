package session

import "time"

type TrialContactRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Name  string `json:"name" validate:"max=255"`
	Phone string `json:"phone" validate:"max=64"`
}

type GuestRequest struct {
	Name   string `json:"name" validate:"max=255"`
	Email  string `json:"email" validate:"omitempty,email,max=255"`
	Phone  string `json:"phone" validate:"max=64"`
	Origin string `json:"origin" validate:"max=255"`
}

type CreateSessionRequest struct {
	MachineID      int64                `json:"machine_id" validate:"required,gt=0"`
	TrainerID      *int64               `json:"trainer_id" validate:"omitempty,gt=0"`
	ScheduledStart time.Time            `json:"scheduled_start" validate:"required"`
	ScheduledEnd   time.Time            `json:"scheduled_end" validate:"required,gtfield=ScheduledStart"`
	SessionType    string               `json:"session_type" validate:"required,oneof=trial member contractual makeup multi_site collaboration non_bookable"`
	MemberID       *int64               `json:"member_id" validate:"omitempty,gt=0"`
	Trial          *TrialContactRequest `json:"trial"`
	Guest          *GuestRequest        `json:"guest"`
	Notes          string               `json:"notes" validate:"max=2000"`
}

func (r CreateSessionRequest) toInput() CreateInput {
	in := CreateInput{
		MachineID:      r.MachineID,
		TrainerID:      r.TrainerID,
		ScheduledStart: r.ScheduledStart,
		ScheduledEnd:   r.ScheduledEnd,
		Type:           Type(r.SessionType),
		MemberID:       r.MemberID,
		Notes:          r.Notes,
	}
	if r.Trial != nil {
		in.Trial = &TrialContact{Email: r.Trial.Email, Name: r.Trial.Name, Phone: r.Trial.Phone}
	}
	if r.Guest != nil {
		in.Guest = &Guest{Name: r.Guest.Name, Email: r.Guest.Email, Phone: r.Guest.Phone, Origin: r.Guest.Origin}
	}
	return in
}

type TransitionRequest struct {
	Status    string `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
	TrainerID *int64 `json:"trainer_id" validate:"omitempty,gt=0"`
}

type RescheduleRequest struct {
	MachineID      *int64     `json:"machine_id" validate:"omitempty,gt=0"`
	ScheduledStart *time.Time `json:"scheduled_start"`
	ScheduledEnd   *time.Time `json:"scheduled_end"`
}

type AssignCreditsRequest struct {
	MemberID int64 `json:"member_id" validate:"required,gt=0"`
}

type SessionResponse struct {
	Session *Session `json:"session"`
	Command Command  `json:"command"`
}

type AssignCreditsResponse struct {
	Assigned int       `json:"assigned"`
	Commands []Command `json:"commands"`
}
