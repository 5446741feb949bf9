package handler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adrienvx/travel-agency-api/internal/model"
	"github.com/adrienvx/travel-agency-api/internal/observability"
	"github.com/adrienvx/travel-agency-api/internal/queue"
	"github.com/adrienvx/travel-agency-api/internal/repository"
	queue_publisher "github.com/adrienvx/travel-agency-api/internal/service"
)

// ReservationHandler owns the reservation workflow: booking, lifecycle
// transitions and deletion.  Every operation that touches the seat
// ledger runs inside a single database transaction so a reservation row
// and its seat effect commit or roll back together.
type ReservationHandler struct {
	DestRepo   *repository.DestinationRepo
	ClientRepo *repository.ClientRepo
	ResRepo    *repository.ReservationRepo
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(destRepo *repository.DestinationRepo, clientRepo *repository.ClientRepo, resRepo *repository.ReservationRepo) *ReservationHandler {
	if destRepo == nil || clientRepo == nil || resRepo == nil {
		panic("nil repository passed to NewReservationHandler")
	}
	return &ReservationHandler{DestRepo: destRepo, ClientRepo: clientRepo, ResRepo: resRepo}
}

// Create handles POST /api/reservations.  Inside one transaction it
// loads the destination, reserves the requested seats, resolves the
// client by email and inserts the reservation in en_attente status.  The
// total price is the destination price at this moment times the traveler
// count and is never recomputed afterwards.
func (h *ReservationHandler) Create(c echo.Context) error {
	var req reservationRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Corps de requête invalide")
	}
	if erreurs := validateReservation(req, time.Now().UTC()); len(erreurs) > 0 {
		return respondValidation(c, erreurs)
	}

	ctx := c.Request().Context()
	tx, err := h.ResRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la réservation")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	destID := uint64(req.DestinationID)
	nom, prix, disponible, err := h.DestRepo.GetForBookingTx(ctx, tx, destID)
	if err != nil {
		if errors.Is(err, repository.ErrDestinationNotFound) {
			return respondError(c, http.StatusNotFound, "Destination non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la réservation")
	}
	if !disponible {
		return respondError(c, http.StatusBadRequest, "Cette destination n'est plus disponible")
	}

	seats := uint32(req.NombrePersonnes)
	if err := h.DestRepo.ReserveSeatsTx(ctx, tx, destID, seats); err != nil {
		switch {
		case errors.Is(err, repository.ErrInsufficientSeats):
			observability.CapacityConflicts.Inc()
			return respondError(c, http.StatusBadRequest, "Places insuffisantes pour cette destination")
		case errors.Is(err, repository.ErrDestinationNotFound):
			return respondError(c, http.StatusNotFound, "Destination non trouvée")
		default:
			return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la réservation")
		}
	}

	client, err := h.ClientRepo.FindOrCreateTx(ctx, tx, model.Client{
		Nom:       req.Client.Nom,
		Prenom:    req.Client.Prenom,
		Email:     req.Client.Email,
		Telephone: req.Client.Telephone,
	})
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la réservation")
	}

	dateVoyage, err := time.Parse(dateLayout, req.DateVoyage)
	if err != nil {
		return respondError(c, http.StatusBadRequest, "Date de voyage invalide")
	}
	rec := repository.ReservationRecord{
		DestinationID:   destID,
		ClientID:        client.ID,
		NombrePersonnes: seats,
		DateVoyage:      dateVoyage,
		PrixTotal:       prix * float64(req.NombrePersonnes),
		Statut:          model.StatusPending,
		Commentaires:    strings.TrimSpace(req.Commentaires),
	}
	if err := h.ResRepo.CreateTx(ctx, tx, &rec); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la réservation")
	}

	if err := tx.Commit(); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la réservation")
	}
	committed = true
	observability.ReservationsCreated.Inc()

	h.publish(queue.ReservationEvent{
		Type:            queue.EventReservationCreated,
		ReservationID:   rec.ID,
		Numero:          rec.Numero,
		DestinationID:   destID,
		DestinationNom:  nom,
		ClientEmail:     client.Email,
		NombrePersonnes: seats,
		PrixTotal:       rec.PrixTotal,
		Statut:          rec.Statut,
	})

	res := model.Reservation{
		ID:              rec.ID,
		Numero:          rec.Numero,
		DestinationID:   destID,
		Client:          client,
		NombrePersonnes: seats,
		DateVoyage:      req.DateVoyage,
		PrixTotal:       rec.PrixTotal,
		Statut:          rec.Statut,
		Commentaires:    rec.Commentaires,
		DateReservation: rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	return respondMessage(c, http.StatusCreated, "Réservation créée avec succès", res)
}

// List handles GET /api/reservations with optional statut, email,
// date_debut and date_fin filters.
func (h *ReservationHandler) List(c echo.Context) error {
	f := repository.ReservationFilter{
		Statut: c.QueryParam("statut"),
		Email:  c.QueryParam("email"),
	}
	if f.Statut != "" && !model.ValidStatus(f.Statut) {
		return respondError(c, http.StatusBadRequest,
			"Statut invalide. Valeurs possibles: "+strings.Join(model.Statuses, ", "))
	}
	if s := c.QueryParam("date_debut"); s != "" {
		if d, err := time.Parse(dateLayout, s); err == nil {
			f.DateDebut = &d
		}
	}
	if s := c.QueryParam("date_fin"); s != "" {
		if d, err := time.Parse(dateLayout, s); err == nil {
			f.DateFin = &d
		}
	}
	list, err := h.ResRepo.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la récupération des réservations")
	}
	return respondList(c, len(list), list)
}

// Get handles GET /api/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "ID invalide")
	}
	res, err := h.ResRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return respondError(c, http.StatusNotFound, "Réservation non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la récupération de la réservation")
	}
	return respondOK(c, res)
}

// GetByNumero handles GET /api/reservations/numero/:numero, the lookup
// clients use with the number from their confirmation.
func (h *ReservationHandler) GetByNumero(c echo.Context) error {
	numero := strings.TrimSpace(c.Param("numero"))
	if numero == "" {
		return respondError(c, http.StatusBadRequest, "Numéro de réservation invalide")
	}
	res, err := h.ResRepo.GetByNumero(c.Request().Context(), numero)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return respondError(c, http.StatusNotFound, "Réservation non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la récupération de la réservation")
	}
	return respondOK(c, res)
}

type statusRequest struct {
	Statut string `json:"statut"`
}

// UpdateStatus handles PATCH /api/reservations/:id/statut.  The
// reservation row is locked for the duration of the transaction;
// transitions that change whether the reservation holds seats reserve or
// release them in the same transaction.  Setting the current status
// again succeeds without touching inventory.
func (h *ReservationHandler) UpdateStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "ID invalide")
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Corps de requête invalide")
	}
	if !model.ValidStatus(req.Statut) {
		return respondError(c, http.StatusBadRequest,
			"Statut invalide. Valeurs possibles: "+strings.Join(model.Statuses, ", "))
	}

	ctx := c.Request().Context()
	tx, err := h.ResRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour du statut")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := h.ResRepo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return respondError(c, http.StatusNotFound, "Réservation non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour du statut")
	}
	if !model.CanTransition(rec.Statut, req.Statut) {
		return respondError(c, http.StatusBadRequest,
			fmt.Sprintf("Transition de statut invalide: %s vers %s", rec.Statut, req.Statut))
	}

	switch model.SeatDelta(rec.Statut, req.Statut) {
	case -1:
		if err := h.DestRepo.ReserveSeatsTx(ctx, tx, rec.DestinationID, rec.NombrePersonnes); err != nil {
			if errors.Is(err, repository.ErrInsufficientSeats) {
				observability.CapacityConflicts.Inc()
				return respondError(c, http.StatusBadRequest, "Places insuffisantes pour cette destination")
			}
			return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour du statut")
		}
	case +1:
		if err := h.DestRepo.ReleaseSeatsTx(ctx, tx, rec.DestinationID, rec.NombrePersonnes); err != nil {
			return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour du statut")
		}
	}

	if err := h.ResRepo.UpdateStatusTx(ctx, tx, id, req.Statut); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour du statut")
	}
	if err := tx.Commit(); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour du statut")
	}
	committed = true

	h.publish(queue.ReservationEvent{
		Type:            queue.EventReservationStatusChanged,
		ReservationID:   rec.ID,
		Numero:          rec.Numero,
		DestinationID:   rec.DestinationID,
		NombrePersonnes: rec.NombrePersonnes,
		Statut:          req.Statut,
	})

	res, err := h.ResRepo.GetByID(ctx, id)
	if err != nil {
		return respondMessage(c, http.StatusOK, fmt.Sprintf("Statut mis à jour vers %q", req.Statut), nil)
	}
	return respondMessage(c, http.StatusOK, fmt.Sprintf("Statut mis à jour vers %q", req.Statut), res)
}

// Delete handles DELETE /api/reservations/:id.  When the reservation
// still holds seats they are released in the same transaction as the row
// removal, so deleting an active booking frees its capacity exactly
// once.
func (h *ReservationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "ID invalide")
	}

	ctx := c.Request().Context()
	tx, err := h.ResRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression de la réservation")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	rec, err := h.ResRepo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return respondError(c, http.StatusNotFound, "Réservation non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression de la réservation")
	}

	if model.HoldsSeats(rec.Statut) {
		if err := h.DestRepo.ReleaseSeatsTx(ctx, tx, rec.DestinationID, rec.NombrePersonnes); err != nil {
			return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression de la réservation")
		}
	}
	if err := h.ResRepo.DeleteTx(ctx, tx, id); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression de la réservation")
	}
	if err := tx.Commit(); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression de la réservation")
	}
	committed = true

	h.publish(queue.ReservationEvent{
		Type:            queue.EventReservationDeleted,
		ReservationID:   rec.ID,
		Numero:          rec.Numero,
		DestinationID:   rec.DestinationID,
		NombrePersonnes: rec.NombrePersonnes,
		Statut:          rec.Statut,
	})

	return respondMessage(c, http.StatusOK, "Réservation supprimée avec succès", nil)
}

// Stats handles GET /api/reservations/stats/dashboard.
func (h *ReservationHandler) Stats(c echo.Context) error {
	stats, err := h.ResRepo.Stats(c.Request().Context())
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors du calcul des statistiques")
	}
	return respondOK(c, stats)
}

// publish sends a reservation event to the broker without blocking the
// HTTP response.  A broker outage never fails a committed booking.
func (h *ReservationHandler) publish(event queue.ReservationEvent) {
	event.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue_publisher.PublishReservationEvent(ctx, event); err != nil {
			log.Printf("reservation event not published: %v", err)
		}
	}()
}
