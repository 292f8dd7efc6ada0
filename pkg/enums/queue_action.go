package enums

import (
	"fmt"
	"strings"
)

// QueueAction tags a shipment queue event with the mutation that produced it.
type QueueAction string

const (
	QueueActionCreate       QueueAction = "CREATE"
	QueueActionUpdateStatus QueueAction = "UPDATE_STATUS"
	QueueActionDelete       QueueAction = "DELETE"
	QueueActionProcess      QueueAction = "PROCESS"
)

var validQueueActions = []QueueAction{
	QueueActionCreate,
	QueueActionUpdateStatus,
	QueueActionDelete,
	QueueActionProcess,
}

// String implements fmt.Stringer.
func (a QueueAction) String() string {
	return string(a)
}

// IsValid reports whether the value matches a known queue action.
func (a QueueAction) IsValid() bool {
	for _, candidate := range validQueueActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseQueueAction converts raw input into QueueAction. An empty value means PROCESS.
func ParseQueueAction(value string) (QueueAction, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	if normalized == "" {
		return QueueActionProcess, nil
	}
	for _, candidate := range validQueueActions {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid queue action %q", value)
}
