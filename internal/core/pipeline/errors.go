package pipeline

// Violation is a confirmed, author-visible policy violation: a missing or
// invalid approval reference, a closed approval issue, a wrong phrase, or an
// under-privileged approver. It is the only error kind that leads to the
// pull request being closed; infrastructure errors are reported instead.
type Violation struct {
	Reason string
}

func (v *Violation) Error() string {
	return "policy violation: " + v.Reason
}

// IntegrityError reports an anomaly in data that should always be present,
// such as an approval comment with no identifiable author. It surfaces as a
// failure, never as a closure.
type IntegrityError struct {
	Reason string
}

func (e *IntegrityError) Error() string {
	return "integrity error: " + e.Reason
}
