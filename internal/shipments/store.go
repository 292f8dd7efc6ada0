package shipments

import (
	"context"

	"github.com/angelmondragon/shipping-service/pkg/enums"
)

// Store owns shipment records. Implementations must be safe for concurrent use and
// return copies so callers never alias stored state.
//
// Errors carry pkg/errors codes: CodeValidation, CodeNotFound, CodeInvalidTransition.
type Store interface {
	Create(ctx context.Context, in CreateInput) (*Shipment, error)
	Get(ctx context.Context, id string) (*Shipment, error)
	ListByUser(ctx context.Context, userID string) ([]Shipment, error)
	ListAll(ctx context.Context) ([]Shipment, error)
	SetStatus(ctx context.Context, id string, status enums.ShipmentStatus) (*Shipment, error)
	// Delete removes the shipment and returns the record as it was at removal.
	Delete(ctx context.Context, id string) (*Shipment, error)
}
