package loginclient

// Kind classifies a login job status reported by the backend.
type Kind int

const (
	// KindRunning means the browser session is starting up.
	KindRunning Kind = iota
	// KindWaitingForUser means the browser window is open and waits for the human to log in.
	KindWaitingForUser
	// KindCompleted is the terminal success state.
	KindCompleted
	// KindFailed is the terminal failure reported by the backend ("failed").
	KindFailed
	// KindOther is any status value this client does not know. Treated as terminal.
	KindOther
)

// Wire values of the status field in GET /api/login-jobs/{account_id}.
const (
	StatusRunning        = "running"
	StatusWaitingForUser = "waiting_for_user"
	StatusCompleted      = "completed"
	StatusFailed         = "failed"
)

// Status is a parsed job status. Raw keeps the original value so Other can be reported as-is.
type Status struct {
	Kind Kind
	Raw  string
}

// ParseStatus maps a wire value to a Status. Unknown values yield KindOther.
func ParseStatus(raw string) Status {
	switch raw {
	case StatusRunning:
		return Status{Kind: KindRunning, Raw: raw}
	case StatusWaitingForUser:
		return Status{Kind: KindWaitingForUser, Raw: raw}
	case StatusCompleted:
		return Status{Kind: KindCompleted, Raw: raw}
	case StatusFailed:
		return Status{Kind: KindFailed, Raw: raw}
	default:
		return Status{Kind: KindOther, Raw: raw}
	}
}

// Terminal reports whether polling must stop after this status.
func (s Status) Terminal() bool {
	return s.Kind == KindCompleted || s.Kind == KindFailed || s.Kind == KindOther
}

func (s Status) String() string { return s.Raw }
