package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/adrienvx/travel-agency-api/internal/model"
	"github.com/adrienvx/travel-agency-api/internal/repository"
)

// DestinationHandler exposes the catalogue of travel destinations.
// Browse endpoints are public and sit behind the Redis response cache;
// the write endpoints are used by the agency's back office.
type DestinationHandler struct {
	DestRepo *repository.DestinationRepo
}

// NewDestinationHandler constructs a DestinationHandler.
func NewDestinationHandler(destRepo *repository.DestinationRepo) *DestinationHandler {
	if destRepo == nil {
		panic("nil repository passed to NewDestinationHandler")
	}
	return &DestinationHandler{DestRepo: destRepo}
}

// List handles GET /api/destinations.  Optional query parameters:
// categorie, prix_max and disponible.  Unparseable numeric filters are
// ignored rather than rejected.
func (h *DestinationHandler) List(c echo.Context) error {
	f := repository.ListFilter{Categorie: c.QueryParam("categorie")}
	if s := c.QueryParam("prix_max"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.PrixMax = &v
		}
	}
	if s := c.QueryParam("disponible"); s != "" {
		v := s == "true"
		f.Disponible = &v
	}
	dests, err := h.DestRepo.List(c.Request().Context(), f)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la récupération des destinations")
	}
	return respondList(c, len(dests), dests)
}

// Search handles GET /api/destinations/search.  The q parameter is
// required (minimum 2 characters) and matches against name, description
// and activity names; prix_min/prix_max/duree_min/duree_max narrow the
// results further.
func (h *DestinationHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if len([]rune(q)) < 2 {
		return respondError(c, http.StatusBadRequest, "Le terme de recherche doit contenir au moins 2 caractères")
	}
	f := repository.SearchFilter{Q: q}
	if s := c.QueryParam("prix_min"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.PrixMin = &v
		}
	}
	if s := c.QueryParam("prix_max"); s != "" {
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			f.PrixMax = &v
		}
	}
	if s := c.QueryParam("duree_min"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 32); err == nil {
			d := uint32(v)
			f.DureeMin = &d
		}
	}
	if s := c.QueryParam("duree_max"); s != "" {
		if v, err := strconv.ParseUint(s, 10, 32); err == nil {
			d := uint32(v)
			f.DureeMax = &d
		}
	}
	dests, err := h.DestRepo.Search(c.Request().Context(), f)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la recherche")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"query":   q,
		"count":   len(dests),
		"data":    dests,
	})
}

// Get handles GET /api/destinations/:id.
func (h *DestinationHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "ID invalide")
	}
	dest, err := h.DestRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrDestinationNotFound) {
			return respondError(c, http.StatusNotFound, "Destination non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la récupération de la destination")
	}
	return respondOK(c, dest)
}

// Create handles POST /api/destinations.  placesDisponibles defaults to
// 20 and seeds both the immutable capacity and the available counter;
// only the reservation workflow mutates the latter afterwards.
func (h *DestinationHandler) Create(c echo.Context) error {
	var req destinationRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Corps de requête invalide")
	}
	if erreurs := validateDestination(req); len(erreurs) > 0 {
		return respondValidation(c, erreurs)
	}

	seats := 20
	if req.PlacesDisponibles != nil {
		seats = *req.PlacesDisponibles
	}
	dateDepart := req.DateDepart
	if dateDepart == "" {
		dateDepart = time.Now().UTC().Format(dateLayout)
	}
	image := req.Image
	if image == "" {
		image = "https://via.placeholder.com/400x300"
	}
	dest := model.Destination{
		Nom:            strings.TrimSpace(req.Nom),
		Description:    strings.TrimSpace(req.Description),
		Prix:           req.Prix,
		Duree:          uint32(req.Duree),
		Image:          image,
		Categorie:      strings.ToLower(strings.TrimSpace(req.Categorie)),
		DateDepart:     dateDepart,
		TotalSeats:     uint32(seats),
		AvailableSeats: uint32(seats),
		Disponible:     true,
	}
	for _, nom := range req.Activites {
		if nom = strings.TrimSpace(nom); nom != "" {
			dest.Activites = append(dest.Activites, model.Activity{Nom: nom})
		}
	}
	if err := h.DestRepo.Create(c.Request().Context(), &dest); err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la création de la destination")
	}
	// Reload so activity ids are populated in the response.
	createdDest, err := h.DestRepo.GetByID(c.Request().Context(), dest.ID)
	if err != nil {
		createdDest = &dest
	}
	return respondMessage(c, http.StatusCreated, "Destination créée avec succès", createdDest)
}

// destinationUpdateRequest mirrors destinationRequest with every field
// optional; only provided fields are written.
type destinationUpdateRequest struct {
	Nom         *string  `json:"nom"`
	Description *string  `json:"description"`
	Prix        *float64 `json:"prix"`
	Duree       *int     `json:"duree"`
	Image       *string  `json:"image"`
	Categorie   *string  `json:"categorie"`
	DateDepart  *string  `json:"dateDepart"`
	Disponible  *bool    `json:"disponible"`
}

// Update handles PUT /api/destinations/:id with partial update
// semantics.  Seat counters cannot be changed here; the inventory ledger
// owns them.
func (h *DestinationHandler) Update(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "ID invalide")
	}
	var req destinationUpdateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "Corps de requête invalide")
	}

	erreurs := make([]string, 0)
	if req.Nom != nil && runeLen(*req.Nom) < 3 {
		erreurs = append(erreurs, "Le nom doit contenir au moins 3 caractères")
	}
	if req.Description != nil && runeLen(*req.Description) < 10 {
		erreurs = append(erreurs, "La description doit contenir au moins 10 caractères")
	}
	if req.Prix != nil && *req.Prix <= 0 {
		erreurs = append(erreurs, "Le prix doit être supérieur à 0")
	}
	if req.Duree != nil && *req.Duree <= 0 {
		erreurs = append(erreurs, "La durée doit être supérieure à 0")
	}
	if req.DateDepart != nil {
		if _, err := time.Parse(dateLayout, *req.DateDepart); err != nil {
			erreurs = append(erreurs, "Date de départ invalide")
		}
	}
	if len(erreurs) > 0 {
		return respondValidation(c, erreurs)
	}

	u := repository.DestinationUpdate{
		Prix:       req.Prix,
		Image:      req.Image,
		Categorie:  req.Categorie,
		DateDepart: req.DateDepart,
		Disponible: req.Disponible,
	}
	if req.Nom != nil {
		nom := strings.TrimSpace(*req.Nom)
		u.Nom = &nom
	}
	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		u.Description = &desc
	}
	if req.Duree != nil {
		d := uint32(*req.Duree)
		u.Duree = &d
	}
	ctx := c.Request().Context()
	if err := h.DestRepo.Update(ctx, id, u); err != nil {
		if errors.Is(err, repository.ErrDestinationNotFound) {
			return respondError(c, http.StatusNotFound, "Destination non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour")
	}
	dest, err := h.DestRepo.GetByID(ctx, id)
	if err != nil {
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la mise à jour")
	}
	return respondMessage(c, http.StatusOK, "Destination mise à jour avec succès", dest)
}

// Delete handles DELETE /api/destinations/:id.  A destination with
// reservations cannot be removed.
func (h *DestinationHandler) Delete(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return respondError(c, http.StatusBadRequest, "ID invalide")
	}
	ctx := c.Request().Context()
	dest, err := h.DestRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDestinationNotFound) {
			return respondError(c, http.StatusNotFound, "Destination non trouvée")
		}
		return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression")
	}
	if err := h.DestRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrDestinationNotFound):
			return respondError(c, http.StatusNotFound, "Destination non trouvée")
		case errors.Is(err, repository.ErrConflict):
			return respondError(c, http.StatusConflict, "Impossible de supprimer une destination avec des réservations existantes")
		default:
			return respondError(c, http.StatusInternalServerError, "Erreur lors de la suppression")
		}
	}
	return respondMessage(c, http.StatusOK, "Destination supprimée avec succès", dest)
}
