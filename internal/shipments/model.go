package shipments

import (
	"time"

	"github.com/angelmondragon/shipping-service/pkg/enums"
)

type Address struct {
	Street     string `json:"street" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Country    string `json:"country" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
}

type Dimensions struct {
	Length float64 `json:"length" validate:"gt=0"`
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
}

// Shipment is the stored record. UpdatedAt never precedes CreatedAt.
type Shipment struct {
	ID          string               `json:"id"`
	UserID      string               `json:"userId"`
	Status      enums.ShipmentStatus `json:"status"`
	Origin      Address              `json:"origin"`
	Destination Address              `json:"destination"`
	Weight      float64              `json:"weight"`
	Dimensions  Dimensions           `json:"dimensions"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// CreateInput carries the caller supplied fields of a new shipment.
type CreateInput struct {
	UserID      string     `json:"userId" validate:"required"`
	Origin      Address    `json:"origin"`
	Destination Address    `json:"destination"`
	Weight      float64    `json:"weight" validate:"gt=0"`
	Dimensions  Dimensions `json:"dimensions"`
}
