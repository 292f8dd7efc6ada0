package shipments

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
)

// MemoryStore is the process-local Store. Writes are serialized; reads run concurrently.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Shipment

	policy enums.TransitionPolicy
	now    func() time.Time
	newID  func() (string, error)
}

type StoreOption func(*MemoryStore)

func WithTransitionPolicy(policy enums.TransitionPolicy) StoreOption {
	return func(s *MemoryStore) {
		if policy.IsValid() {
			s.policy = policy
		}
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

func WithIDGenerator(gen func() (string, error)) StoreOption {
	return func(s *MemoryStore) {
		if gen != nil {
			s.newID = gen
		}
	}
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		records: make(map[string]*Shipment),
		policy:  enums.TransitionPolicyForward,
		now:     time.Now,
		newID:   newShipmentID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// newShipmentID returns a UUIDv7 so ids sort by creation time.
func newShipmentID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func (s *MemoryStore) Create(_ context.Context, in CreateInput) (*Shipment, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	if err := ValidateCreateInput(in); err != nil {
		return nil, err
	}
	id, err := s.newID()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate shipment id")
	}
	now := s.now().UTC()
	record := &Shipment{
		ID:          id,
		UserID:      in.UserID,
		Status:      enums.ShipmentStatusCreated,
		Origin:      in.Origin,
		Destination: in.Destination,
		Weight:      in.Weight,
		Dimensions:  in.Dimensions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[id]; exists {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "shipment id already exists")
	}
	s.records[id] = record
	out := *record
	return &out, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	out := *record
	return &out, nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := lo.Filter(lo.Values(s.records), func(r *Shipment, _ int) bool {
		return r.UserID == userID
	})
	return sortedCopies(matches), nil
}

func (s *MemoryStore) ListAll(_ context.Context) ([]Shipment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedCopies(lo.Values(s.records)), nil
}

// SetStatus applies the configured transition policy. UpdatedAt always moves strictly forward,
// even when the clock has not advanced since the previous write.
func (s *MemoryStore) SetStatus(_ context.Context, id string, status enums.ShipmentStatus) (*Shipment, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment status").
			WithDetails(map[string]any{"status": status})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	if !s.policy.Allows(record.Status, status) {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidTransition, "shipment status transition not allowed").
			WithDetails(map[string]any{"from": record.Status, "to": status})
	}

	updated := s.now().UTC()
	if !updated.After(record.UpdatedAt) {
		updated = record.UpdatedAt.Add(time.Nanosecond)
	}
	record.Status = status
	record.UpdatedAt = updated
	out := *record
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (*Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	delete(s.records, id)
	out := *record
	return &out, nil
}

func sortedCopies(records []*Shipment) []Shipment {
	out := lo.Map(records, func(r *Shipment, _ int) Shipment { return *r })
	slices.SortFunc(out, func(a, b Shipment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func notFound(id string) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found").WithDetails(map[string]any{"id": id})
}
