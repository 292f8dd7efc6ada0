package shipments

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
)

// Service is the entry point for shipment operations. Store mutations commit before the
// matching queue event is sent and are never rolled back when sending fails.
type Service interface {
	CreateShipment(ctx context.Context, in CreateInput) (*Shipment, error)
	GetShipment(ctx context.Context, id string) (*Shipment, error)
	ListUserShipments(ctx context.Context, userID string) ([]Shipment, error)
	ListShipments(ctx context.Context) ([]Shipment, error)
	UpdateShipmentStatus(ctx context.Context, id string, status enums.ShipmentStatus) (*Shipment, error)
	ProcessShipment(ctx context.Context, id string) (*Shipment, error)
	DeleteShipment(ctx context.Context, id string) error
}

type eventPublisher interface {
	PublishCreate(ctx context.Context, s Shipment) error
	PublishStatusUpdate(ctx context.Context, s Shipment) error
	PublishProcess(ctx context.Context, s Shipment) error
	PublishDelete(ctx context.Context, s Shipment) error
}

type service struct {
	store  Store
	events eventPublisher
	logg   *logger.Logger
}

func NewService(store Store, events eventPublisher, logg *logger.Logger) (Service, error) {
	if store == nil {
		return nil, errors.New("shipment store required")
	}
	if events == nil {
		return nil, errors.New("event publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &service{store: store, events: events, logg: logg}, nil
}

// CreateShipment stores the shipment and sends its CREATE event. When sending fails the
// stored shipment is still returned, together with a CodeTransport error.
func (s *service) CreateShipment(ctx context.Context, in CreateInput) (*Shipment, error) {
	created, err := s.store.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithShipmentID(s.logg.WithUserID(ctx, created.UserID), created.ID)
	if err := s.events.PublishCreate(ctx, *created); err != nil {
		s.logg.Error(logCtx, "shipment created but event not published", err)
		return created, pkgerrors.Wrap(pkgerrors.CodeTransport, err, "publish shipment created").
			WithDetails(map[string]any{"shipmentId": created.ID})
	}
	s.logg.Info(logCtx, "shipment created")
	return created, nil
}

func (s *service) GetShipment(ctx context.Context, id string) (*Shipment, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

func (s *service) ListUserShipments(ctx context.Context, userID string) ([]Shipment, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.store.ListByUser(ctx, userID)
}

func (s *service) ListShipments(ctx context.Context) ([]Shipment, error) {
	return s.store.ListAll(ctx)
}

func (s *service) UpdateShipmentStatus(ctx context.Context, id string, status enums.ShipmentStatus) (*Shipment, error) {
	return s.transition(ctx, id, status, enums.QueueActionUpdateStatus, s.events.PublishStatusUpdate)
}

// ProcessShipment moves the shipment to PROCESSING and sends a PROCESS event.
func (s *service) ProcessShipment(ctx context.Context, id string) (*Shipment, error) {
	return s.transition(ctx, id, enums.ShipmentStatusProcessing, enums.QueueActionProcess, s.events.PublishProcess)
}

func (s *service) transition(
	ctx context.Context,
	id string,
	status enums.ShipmentStatus,
	action enums.QueueAction,
	publish func(context.Context, Shipment) error,
) (*Shipment, error) {
	id, err := requireID(id)
	if err != nil {
		return nil, err
	}
	updated, err := s.store.SetStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithFields(s.logg.WithShipmentID(ctx, id), map[string]any{
		"status": updated.Status,
		"action": action,
	})
	if err := publish(ctx, *updated); err != nil {
		s.logg.Error(logCtx, "shipment event not published", err)
	} else {
		s.logg.Info(logCtx, "shipment status changed")
	}
	return updated, nil
}

func (s *service) DeleteShipment(ctx context.Context, id string) error {
	id, err := requireID(id)
	if err != nil {
		return err
	}
	removed, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	logCtx := s.logg.WithShipmentID(ctx, id)
	if err := s.events.PublishDelete(ctx, *removed); err != nil {
		s.logg.Error(logCtx, "shipment deleted but event not published", err)
		return nil
	}
	s.logg.Info(logCtx, "shipment deleted")
	return nil
}

func requireID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	return id, nil
}
