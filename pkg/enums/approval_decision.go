package enums

import "fmt"

// ApprovalDecision is the outcome recorded on an approval row.
type ApprovalDecision string

const (
	ApprovalApproved ApprovalDecision = "approved"
	ApprovalRejected ApprovalDecision = "rejected"
)

var validApprovalDecisions = []ApprovalDecision{
	ApprovalApproved,
	ApprovalRejected,
}

// String implements fmt.Stringer.
func (a ApprovalDecision) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ApprovalDecision.
func (a ApprovalDecision) IsValid() bool {
	for _, candidate := range validApprovalDecisions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseApprovalDecision converts raw input into a ApprovalDecision.
func ParseApprovalDecision(value string) (ApprovalDecision, error) {
	for _, candidate := range validApprovalDecisions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid approval decision %q", value)
}
