package enums

import (
	"fmt"
	"strings"
)

// TransitionPolicy selects how strictly shipment status changes are checked.
type TransitionPolicy string

const (
	// TransitionPolicyForward allows any move further along
	// CREATED -> PROCESSING -> IN_TRANSIT -> DELIVERED, plus FAILED from any non-terminal state.
	TransitionPolicyForward TransitionPolicy = "forward"
	// TransitionPolicySequential only allows the next step on the happy path, plus FAILED.
	TransitionPolicySequential TransitionPolicy = "sequential"
	// TransitionPolicyPermissive accepts any valid status unconditionally.
	TransitionPolicyPermissive TransitionPolicy = "permissive"
)

var validTransitionPolicies = []TransitionPolicy{
	TransitionPolicyForward,
	TransitionPolicySequential,
	TransitionPolicyPermissive,
}

// IsValid reports whether the value names a known policy.
func (p TransitionPolicy) IsValid() bool {
	for _, candidate := range validTransitionPolicies {
		if candidate == p {
			return true
		}
	}
	return false
}

// Allows reports whether moving from -> to is permitted under p.
func (p TransitionPolicy) Allows(from, to ShipmentStatus) bool {
	if !to.IsValid() {
		return false
	}
	if p == TransitionPolicyPermissive {
		return true
	}
	if from.IsTerminal() || from == to {
		return false
	}
	if to == ShipmentStatusFailed {
		return true
	}
	switch p {
	case TransitionPolicySequential:
		return to.Stage() == from.Stage()+1
	default:
		return to.Stage() > from.Stage()
	}
}

// ParseTransitionPolicy converts raw input into TransitionPolicy, defaulting to forward when empty.
func ParseTransitionPolicy(value string) (TransitionPolicy, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return TransitionPolicyForward, nil
	}
	for _, candidate := range validTransitionPolicies {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transition policy %q", value)
}
