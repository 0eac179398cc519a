package contact

// Status is the lifecycle of one submission attempt.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusValidating Status = "validating"
	StatusInvalid    Status = "invalid"
	StatusSubmitting Status = "submitting"
	StatusSuccess    Status = "success"
	StatusFailure    Status = "failure"
)

var transitions = map[Status][]Status{
	StatusIdle:       {StatusValidating},
	StatusValidating: {StatusInvalid, StatusSubmitting},
	StatusInvalid:    {StatusValidating},
	StatusSubmitting: {StatusSuccess, StatusFailure},
	StatusSuccess:    {StatusIdle},
	StatusFailure:    {StatusValidating},
}

// CanTransition reports whether s may move to next.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further automatic transition follows s.
func (s Status) Terminal() bool {
	return s == StatusInvalid || s == StatusSuccess || s == StatusFailure
}

// trail records the status sequence of one Submit call.
type trail []Status

func (t *trail) move(next Status) {
	if n := len(*t); n > 0 && !(*t)[n-1].CanTransition(next) {
		panic("contact: invalid status transition " + string((*t)[n-1]) + " -> " + string(next))
	}
	*t = append(*t, next)
}

func (t trail) current() Status {
	if len(t) == 0 {
		return StatusIdle
	}
	return t[len(t)-1]
}
