package events

// CommitPhase is where a coordinator's current commit stands.
type CommitPhase int

const (
	CommitIdle CommitPhase = iota
	CommitLoading
	CommitSucceeded
	CommitFailed
)

func (p CommitPhase) String() string {
	switch p {
	case CommitIdle:
		return "idle"
	case CommitLoading:
		return "loading"
	case CommitSucceeded:
		return "success"
	case CommitFailed:
		return "error"
	}
	return "unknown"
}

// CommitState is the progress signal observers read off a coordinator.
// Message is set only when Phase is CommitFailed. The struct is comparable,
// so two failed states are equal exactly when their messages match.
type CommitState struct {
	Phase   CommitPhase
	Message string
}

var (
	StateIdle    = CommitState{Phase: CommitIdle}
	StateLoading = CommitState{Phase: CommitLoading}
	StateSuccess = CommitState{Phase: CommitSucceeded}
)

func StateError(message string) CommitState {
	return CommitState{Phase: CommitFailed, Message: message}
}

// Terminal reports whether the state ends a commit.
func (s CommitState) Terminal() bool {
	return s.Phase == CommitSucceeded || s.Phase == CommitFailed
}
