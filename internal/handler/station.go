package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecomove/internal/domain"
	"ecomove/internal/service"
)

// StationHandler handles HTTP requests for stations.
type StationHandler struct {
	stationService *service.StationService
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stationService *service.StationService) *StationHandler {
	return &StationHandler{stationService: stationService}
}

// CreateStationRequest is the HTTP request body for registering a station.
type CreateStationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	MaxCapacity int     `json:"max_capacity" binding:"required"`
}

// StationResponse is the HTTP response for station data.
type StationResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Address     string  `json:"address,omitempty"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	MaxCapacity int     `json:"max_capacity"`
	DistanceKm  float64 `json:"distance_km,omitempty"`
}

func toStationResponse(s *domain.Station) StationResponse {
	return StationResponse{
		ID:          s.ID,
		Name:        s.Name,
		Address:     s.Address,
		Lat:         s.Lat,
		Lng:         s.Lng,
		MaxCapacity: s.MaxCapacity,
	}
}

// CreateStation handles POST /v1/stations
func (h *StationHandler) CreateStation(c *gin.Context) {
	var req CreateStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	station, err := h.stationService.CreateStation(c.Request.Context(), service.CreateStationRequest{
		Name:        req.Name,
		Address:     req.Address,
		Lat:         req.Lat,
		Lng:         req.Lng,
		MaxCapacity: req.MaxCapacity,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toStationResponse(station))
}

// GetStation handles GET /v1/stations/:id
func (h *StationHandler) GetStation(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidStationID)
		return
	}

	station, err := h.stationService.GetStation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toStationResponse(station))
}

// ListStations handles GET /v1/stations
func (h *StationHandler) ListStations(c *gin.Context) {
	stations, err := h.stationService.GetAllStations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		responses = append(responses, toStationResponse(s))
	}

	respondJSON(c, http.StatusOK, responses)
}

// FindNearby handles GET /v1/stations/nearby?lat=&lng=&radius_km=
func (h *StationHandler) FindNearby(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		respondBadRequest(c, "lat and lng are required")
		return
	}

	radiusKm := 0.0
	if raw := c.Query("radius_km"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			respondBadRequest(c, "radius_km must be a positive number")
			return
		}
		radiusKm = parsed
	}

	nearby, err := h.stationService.FindNearby(c.Request.Context(), lat, lng, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]StationResponse, 0, len(nearby))
	for _, n := range nearby {
		resp := toStationResponse(n.Station)
		resp.DistanceKm = n.DistKm
		responses = append(responses, resp)
	}

	respondJSON(c, http.StatusOK, responses)
}
