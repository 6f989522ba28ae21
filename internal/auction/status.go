package auction

// Status is a listing's position in the auction lifecycle.
type Status string

const (
	StatusPending      Status = "pending"
	StatusRejected     Status = "rejected"
	StatusScheduled    Status = "scheduled"
	StatusActive       Status = "active"
	StatusClosedSold   Status = "closed_sold"
	StatusClosedUnsold Status = "closed_unsold"
)

// Transitions are monotonic; a listing never re-enters an earlier state.
var validNext = map[Status]map[Status]bool{
	StatusPending:      {StatusRejected: true, StatusScheduled: true, StatusActive: true},
	StatusScheduled:    {StatusActive: true},
	StatusActive:       {StatusClosedSold: true, StatusClosedUnsold: true},
	StatusRejected:     {},
	StatusClosedSold:   {},
	StatusClosedUnsold: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Terminal() bool {
	return len(validNext[s]) == 0
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}
