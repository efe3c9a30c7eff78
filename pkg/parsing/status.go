package parsing

// ProcessStatus is the scheduling state reported in top's S column.
type ProcessStatus byte

const (
	StatusUninterruptible ProcessStatus = 'D'
	StatusIdle            ProcessStatus = 'I'
	StatusRunning         ProcessStatus = 'R'
	StatusSleeping        ProcessStatus = 'S'
	StatusStopped         ProcessStatus = 'T'
	StatusTraced          ProcessStatus = 't'
	StatusZombie          ProcessStatus = 'Z'
)

// Statuses lists every known status in display order.
var Statuses = []ProcessStatus{
	StatusUninterruptible,
	StatusIdle,
	StatusRunning,
	StatusSleeping,
	StatusStopped,
	StatusTraced,
	StatusZombie,
}

var statusDescriptions = map[ProcessStatus]string{
	StatusUninterruptible: "uninterruptible sleep",
	StatusIdle:            "idle",
	StatusRunning:         "running",
	StatusSleeping:        "sleeping",
	StatusStopped:         "stopped by job control signal",
	StatusTraced:          "stopped by debugger during trace",
	StatusZombie:          "zombie",
}

// ParseStatus maps a status token to its ProcessStatus. The match is exact and case-sensitive.
func ParseStatus(s string) (ProcessStatus, error) {
	if len(s) == 1 {
		st := ProcessStatus(s[0])
		if _, ok := statusDescriptions[st]; ok {
			return st, nil
		}
	}
	return 0, &FieldError{Kind: ErrUnknownStatus, Field: FieldStatus, Value: s}
}

// Code returns the single-letter status code.
func (s ProcessStatus) Code() string { return string(rune(s)) }

// Description returns the human-readable meaning of the status.
func (s ProcessStatus) Description() string { return statusDescriptions[s] }

// Valid reports whether s is one of the known statuses.
func (s ProcessStatus) Valid() bool {
	_, ok := statusDescriptions[s]
	return ok
}

// Ordinal returns the position of s in Statuses, or -1.
func (s ProcessStatus) Ordinal() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

// String formats the status as "S: sleeping".
func (s ProcessStatus) String() string {
	if !s.Valid() {
		return "?"
	}
	return s.Code() + ": " + s.Description()
}
