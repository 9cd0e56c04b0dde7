package portal

type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusApproved ReviewStatus = "approved"
	StatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) IsDecision() bool { return s == StatusApproved || s == StatusRejected }

// Transition returns the status after applying decision to s.
// pending moves to approved or rejected; repeating the current decision is a no-op.
// changed is false for the no-op.
func (s ReviewStatus) Transition(decision ReviewStatus) (next ReviewStatus, changed bool, err error) {
	if !decision.IsDecision() {
		return s, false, ErrInvalidDecision
	}
	switch s {
	case StatusPending, "":
		return decision, true, nil
	case decision:
		return s, false, nil
	}
	return s, false, ErrInvalidTransition
}
