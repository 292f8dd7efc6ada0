package shipments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shipping-service/api/middleware"
	"github.com/angelmondragon/shipping-service/api/responses"
	"github.com/angelmondragon/shipping-service/api/validators"
	internalshipments "github.com/angelmondragon/shipping-service/internal/shipments"
	"github.com/angelmondragon/shipping-service/pkg/enums"
	pkgerrors "github.com/angelmondragon/shipping-service/pkg/errors"
	"github.com/angelmondragon/shipping-service/pkg/logger"
)

// createShipmentRequest mirrors CreateInput; userId falls back to the authenticated caller.
type createShipmentRequest struct {
	UserID      string                       `json:"userId"`
	Origin      internalshipments.Address    `json:"origin"`
	Destination internalshipments.Address    `json:"destination"`
	Weight      float64                      `json:"weight" validate:"gt=0"`
	Dimensions  internalshipments.Dimensions `json:"dimensions"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// Create stores a shipment and answers 201. A shipment that was stored but whose event could not
// be queued is reported as 503 with the shipment id in the error details.
func Create(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createShipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		userID := strings.TrimSpace(req.UserID)
		if userID == "" {
			userID = middleware.UserIDFromContext(r.Context())
		}

		created, err := svc.CreateShipment(r.Context(), internalshipments.CreateInput{
			UserID:      userID,
			Origin:      req.Origin,
			Destination: req.Destination,
			Weight:      req.Weight,
			Dimensions:  req.Dimensions,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

func Get(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shipment, err := svc.GetShipment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func ListByUser(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListUserShipments(r.Context(), chi.URLParam(r, "userId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(list))
	}
}

func List(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := svc.ListShipments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nonNil(list))
	}
}

func UpdateStatus(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseShipmentStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").
				WithDetails(map[string]string{"status": "is invalid"}))
			return
		}
		updated, err := svc.UpdateShipmentStatus(r.Context(), chi.URLParam(r, "id"), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func Process(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := svc.ProcessShipment(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

func Delete(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteShipment(r.Context(), chi.URLParam(r, "id")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func nonNil(list []internalshipments.Shipment) []internalshipments.Shipment {
	if list == nil {
		return []internalshipments.Shipment{}
	}
	return list
}
