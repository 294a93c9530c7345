package media

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cinewave/cinewave-api/internal/httputil"
	"github.com/cinewave/cinewave-api/internal/logging"
)

// Handler contains HTTP handlers for catalog endpoints
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// DetailResponse is a media item with related content.
type DetailResponse struct {
	Media   *Media   `json:"media"`
	Similar []*Media `json:"similar"`
}

// Hero returns hero section items
// @Summary      Hero section items
// @Tags         media
// @Produce      json
// @Param        limit query int false "Maximum items" default(5)
// @Success      200 {array} Media
// @Router       /api/media/hero [get]
func (h *Handler) Hero(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", DefaultHeroLimit)
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.HeroItems(r.Context(), limit))
}

// FeaturedMovies returns featured movies
// @Summary      Featured movies
// @Tags         media
// @Produce      json
// @Param        limit query int false "Maximum items" default(8)
// @Param        tag query string false "Tag filter"
// @Success      200 {array} Media
// @Router       /api/media/featured/movies [get]
func (h *Handler) FeaturedMovies(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", DefaultFeaturedLimit)
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.FeaturedMovies(r.Context(), limit, r.URL.Query().Get("tag")))
}

// FeaturedTVShows returns featured TV shows
// @Summary      Featured TV shows
// @Tags         media
// @Produce      json
// @Param        limit query int false "Maximum items" default(8)
// @Param        tag query string false "Tag filter"
// @Success      200 {array} Media
// @Router       /api/media/featured/tvshows [get]
func (h *Handler) FeaturedTVShows(w http.ResponseWriter, r *http.Request) {
	limit, ok := intQuery(w, r, "limit", DefaultFeaturedLimit)
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.FeaturedTVShows(r.Context(), limit, r.URL.Query().Get("tag")))
}

// Movies returns every movie
// @Summary      All movies
// @Tags         media
// @Produce      json
// @Success      200 {array} Media
// @Router       /api/media/movies [get]
func (h *Handler) Movies(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.AllMovies(r.Context()))
}

// TVShows returns every TV show
// @Summary      All TV shows
// @Tags         media
// @Produce      json
// @Success      200 {array} Media
// @Router       /api/media/tvshows [get]
func (h *Handler) TVShows(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.AllTVShows(r.Context()))
}

// Get returns a media item with similar content
// @Summary      Media details
// @Tags         media
// @Produce      json
// @Param        id path string true "Media ID"
// @Param        sameTypeOnly query bool false "Only suggest the same kind" default(true)
// @Success      200 {object} DetailResponse
// @Failure      404 {object} httputil.ErrorResponse "Media not found"
// @Router       /api/media/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	sameTypeOnly := true
	if raw := r.URL.Query().Get("sameTypeOnly"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.RespondErrorWithCode(w, "sameTypeOnly must be a boolean", httputil.CodeInvalidQueryParam, http.StatusBadRequest)
			return
		}
		sameTypeOnly = v
	}

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondMediaError(w, logger, err)
		return
	}

	similar, err := h.service.Similar(r.Context(), id, sameTypeOnly)
	if err != nil {
		respondMediaError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, DetailResponse{Media: m, Similar: similar}, http.StatusOK)
}

// Search finds media by name
// @Summary      Search media by name
// @Tags         media
// @Produce      json
// @Param        query query string true "Name fragment"
// @Success      200 {array} Media
// @Failure      400 {object} httputil.ErrorResponse "Missing query"
// @Router       /api/media/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.Search(r.Context(), r.URL.Query().Get("query")))
}

// RentRange filters by rent price
// @Summary      Filter by rent price
// @Tags         media
// @Produce      json
// @Param        min query number true "Minimum price"
// @Param        max query number true "Maximum price"
// @Success      200 {array} Media
// @Failure      400 {object} httputil.ErrorResponse "Invalid range"
// @Router       /api/media/filter/rent [get]
func (h *Handler) RentRange(w http.ResponseWriter, r *http.Request) {
	minPrice, maxPrice, ok := priceRange(w, r)
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.RentRange(r.Context(), minPrice, maxPrice))
}

// PurchaseRange filters by purchase price
// @Summary      Filter by purchase price
// @Tags         media
// @Produce      json
// @Param        min query number true "Minimum price"
// @Param        max query number true "Maximum price"
// @Success      200 {array} Media
// @Failure      400 {object} httputil.ErrorResponse "Invalid range"
// @Router       /api/media/filter/purchase [get]
func (h *Handler) PurchaseRange(w http.ResponseWriter, r *http.Request) {
	minPrice, maxPrice, ok := priceRange(w, r)
	if !ok {
		return
	}
	h.respondList(w, r)(h.service.PurchaseRange(r.Context(), minPrice, maxPrice))
}

// ByYear filters by release year
// @Summary      Filter by release year
// @Tags         media
// @Produce      json
// @Param        year query int true "Release year"
// @Success      200 {array} Media
// @Router       /api/media/filter/year [get]
func (h *Handler) ByYear(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("year")
	year, err := strconv.Atoi(raw)
	if err != nil {
		httputil.RespondErrorWithCode(w, "year must be an integer", httputil.CodeInvalidQueryParam, http.StatusBadRequest)
		return
	}
	h.respondList(w, r)(h.service.ByYear(r.Context(), year))
}

// ByTag filters by tag
// @Summary      Filter by tag
// @Tags         media
// @Produce      json
// @Param        tag path string true "Tag"
// @Success      200 {array} Media
// @Router       /api/media/tag/{tag} [get]
func (h *Handler) ByTag(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.ByTag(r.Context(), chi.URLParam(r, "tag")))
}

// SortedByName lists the whole catalog by name
// @Summary      Catalog sorted by name
// @Tags         media
// @Produce      json
// @Success      200 {array} Media
// @Router       /api/media/sorted/name [get]
func (h *Handler) SortedByName(w http.ResponseWriter, r *http.Request) {
	h.respondList(w, r)(h.service.SortedByName(r.Context()))
}

// Create adds a media item
// @Summary      Create media
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body Input true "Media"
// @Success      201 {object} Media
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/admin/media [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid media request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	m, err := h.service.Create(r.Context(), in)
	if err != nil {
		respondMediaError(w, logger, err)
		return
	}

	logger.Info("media created", "media_id", m.ID)
	httputil.RespondJSON(w, m, http.StatusCreated)
}

// Update replaces a media item
// @Summary      Update media
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Media ID"
// @Param        request body Input true "Media"
// @Success      200 {object} Media
// @Failure      400 {object} httputil.ErrorResponse "Validation error"
// @Failure      404 {object} httputil.ErrorResponse "Media not found"
// @Router       /api/admin/media/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		logger.Warn("invalid media request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	m, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		respondMediaError(w, logger, err)
		return
	}

	logger.Info("media updated", "media_id", m.ID)
	httputil.RespondJSON(w, m, http.StatusOK)
}

// Delete removes a media item
// @Summary      Delete media
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Media ID"
// @Success      200 {object} map[string]string
// @Failure      404 {object} httputil.ErrorResponse "Media not found"
// @Router       /api/admin/media/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseMediaID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		respondMediaError(w, logger, err)
		return
	}

	logger.Info("media deleted", "media_id", id)
	httputil.RespondJSON(w, map[string]string{"message": "Media deleted successfully"}, http.StatusOK)
}

// respondList returns a function that writes the result of a list query.
func (h *Handler) respondList(w http.ResponseWriter, r *http.Request) func([]*Media, error) {
	return func(items []*Media, err error) {
		if err != nil {
			respondMediaError(w, logging.GetLoggerFromContext(r.Context()), err)
			return
		}
		if items == nil {
			items = []*Media{}
		}
		httputil.RespondJSON(w, items, http.StatusOK)
	}
}

func respondMediaError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httputil.RespondErrorWithCode(w, "media not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrInvalidMedia):
		logger.Warn("media validation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeValidationFailed, http.StatusBadRequest)
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrInvalidRange):
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeInvalidQueryParam, http.StatusBadRequest)
	default:
		logger.Error("media operation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func parseMediaID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		// Unknown ids and ids that are not UUIDs look the same to clients.
		httputil.RespondErrorWithCode(w, "media not found", httputil.CodeNotFound, http.StatusNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		httputil.RespondErrorWithCode(w, name+" must be an integer", httputil.CodeInvalidQueryParam, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

func priceRange(w http.ResponseWriter, r *http.Request) (float64, float64, bool) {
	q := r.URL.Query()
	minPrice, errMin := strconv.ParseFloat(q.Get("min"), 64)
	maxPrice, errMax := strconv.ParseFloat(q.Get("max"), 64)
	if errMin != nil || errMax != nil {
		httputil.RespondErrorWithCode(w, "min and max must be numbers", httputil.CodeInvalidQueryParam, http.StatusBadRequest)
		return 0, 0, false
	}
	return minPrice, maxPrice, true
}
