package session

// transition is one allowed edge of the session lifecycle.
type transition struct {
	From Status
	To   Status
}

var transitionsTable = []transition{
	{From: StatusScheduled, To: StatusInProgress},
	{From: StatusScheduled, To: StatusCancelled},
	{From: StatusInProgress, To: StatusCompleted},
	{From: StatusInProgress, To: StatusCancelled},
}

// CanTransition reports whether a session in from may move to to.
func CanTransition(from, to Status) bool {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.To == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s Status) Terminal() bool {
	for _, tr := range transitionsTable {
		if tr.From == s {
			return false
		}
	}
	return true
}

// deletable: every state except completed may be removed.
func deletable(s Status) bool {
	return s != StatusCompleted
}
