package enums

// NotificationEventType is attached to every published notification as the event_type attribute
// so subscribers can filter without parsing the body.
type NotificationEventType string

const (
	NotificationShipmentProcessed    NotificationEventType = "SHIPMENT_PROCESSED"
	NotificationShipmentStatusUpdate NotificationEventType = "SHIPMENT_STATUS_UPDATE"
	NotificationShipmentDeleted      NotificationEventType = "SHIPMENT_DELETED"
)

// String implements fmt.Stringer.
func (n NotificationEventType) String() string {
	return string(n)
}
