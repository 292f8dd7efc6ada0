package notifications

import (
	"fmt"

	"github.com/angelmondragon/shipping-service/internal/shipments"
	"github.com/angelmondragon/shipping-service/pkg/enums"
)

const (
	subjectDeleted       = "Envío Eliminado"
	subjectStatusUpdated = "Actualización de Estado"
	subjectProcessed     = "Envío Procesado"
)

// ForEvent renders the notification for a decoded queue event. DELETE and UPDATE_STATUS have
// their own wording; every other action, known or not, is reported as processed.
func ForEvent(evt shipments.QueueEvent) Notification {
	switch evt.Action {
	case enums.QueueActionDelete:
		return Notification{
			Subject:    subjectDeleted,
			Body:       fmt.Sprintf("El envío %s ha sido eliminado", evt.ID),
			EventType:  enums.NotificationShipmentDeleted,
			ShipmentID: evt.ID,
		}
	case enums.QueueActionUpdateStatus:
		status := evt.Status
		if status == "" {
			status = "desconocido"
		}
		return Notification{
			Subject:    subjectStatusUpdated,
			Body:       fmt.Sprintf("El estado del envío %s ha cambiado a %s", evt.ID, status),
			EventType:  enums.NotificationShipmentStatusUpdate,
			ShipmentID: evt.ID,
		}
	default:
		return Notification{
			Subject:    subjectProcessed,
			Body:       fmt.Sprintf("El envío %s ha sido procesado exitosamente", evt.ID),
			EventType:  enums.NotificationShipmentProcessed,
			ShipmentID: evt.ID,
		}
	}
}
