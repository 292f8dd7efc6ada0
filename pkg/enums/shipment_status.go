package enums

import (
	"fmt"
	"strings"
)

// ShipmentStatus is the lifecycle state of a shipment.
type ShipmentStatus string

const (
	ShipmentStatusCreated    ShipmentStatus = "CREATED"
	ShipmentStatusProcessing ShipmentStatus = "PROCESSING"
	ShipmentStatusInTransit  ShipmentStatus = "IN_TRANSIT"
	ShipmentStatusDelivered  ShipmentStatus = "DELIVERED"
	ShipmentStatusFailed     ShipmentStatus = "FAILED"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusCreated,
	ShipmentStatusProcessing,
	ShipmentStatusInTransit,
	ShipmentStatusDelivered,
	ShipmentStatusFailed,
}

// shipmentStage orders the happy path. FAILED sits outside it.
var shipmentStage = map[ShipmentStatus]int{
	ShipmentStatusCreated:    0,
	ShipmentStatusProcessing: 1,
	ShipmentStatusInTransit:  2,
	ShipmentStatusDelivered:  3,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is one of the known shipment statuses.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed out of s.
func (s ShipmentStatus) IsTerminal() bool {
	return s == ShipmentStatusDelivered || s == ShipmentStatusFailed
}

// Stage returns the position of s on the happy path, or -1 for FAILED/unknown values.
func (s ShipmentStatus) Stage() int {
	if stage, ok := shipmentStage[s]; ok {
		return stage
	}
	return -1
}

// ParseShipmentStatus converts raw input into ShipmentStatus. Matching is case-insensitive.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
