package handlers

import (
	"log/slog"
	"net/http"

	"github.com/opaquedelicia/restaurant-platform/internal/api/middleware"
	service "github.com/opaquedelicia/restaurant-platform/internal/services"
	"github.com/opaquedelicia/restaurant-platform/internal/utils/response"
)

type ReservationHandler struct {
	reservationService service.ReservationService
}

func NewReservationHandler(reservationService service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// ListReservations godoc
//
//	@Summary		List reservations
//	@Description	Lists every reservation ordered by date. Requires an admin token.
//	@Tags			Reservations
//	@Produce		json
//	@Success		200	{array}		models.Reservation		"Reservations"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		403	{object}	response.ErrorResponse	"Admin access required"
//	@Failure		500	{object}	response.ErrorResponse	"Internal server error"
//	@Security		BearerAuth
//	@Router			/reservations [get]
func (h *ReservationHandler) ListReservations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		reservations, err := h.reservationService.ListReservations(r.Context())
		if err != nil {
			middleware.LoggerFromContext(r.Context()).Error("Failed to list reservations", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, reservations)
	}
}
