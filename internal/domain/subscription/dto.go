package subscription

import "time"

type BalanceResponse struct {
	ID                    int64     `json:"id"`
	MemberID              int64     `json:"member_id"`
	Status                Status    `json:"status"`
	StartDate             time.Time `json:"start_date"`
	EndDate               time.Time `json:"end_date"`
	TotalSessionsSnapshot int       `json:"total_sessions_snapshot"`
	UsedSessions          int       `json:"used_sessions"`
	RemainingSessions     int       `json:"remaining_sessions"`
}

func toBalanceResponse(s *Subscription) BalanceResponse {
	return BalanceResponse{
		ID:                    s.ID,
		MemberID:              s.MemberID,
		Status:                s.Status,
		StartDate:             s.StartDate,
		EndDate:               s.EndDate,
		TotalSessionsSnapshot: s.TotalSessionsSnapshot,
		UsedSessions:          s.UsedSessions,
		RemainingSessions:     s.RemainingSessions(),
	}
}
