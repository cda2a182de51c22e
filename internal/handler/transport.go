package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecomove/internal/domain"
	"ecomove/internal/repository"
	"ecomove/internal/service"
)

// TransportHandler handles HTTP requests for transports.
type TransportHandler struct {
	transportService *service.TransportService
	transportRepo    repository.TransportRepository
}

// NewTransportHandler creates a new TransportHandler.
func NewTransportHandler(transportService *service.TransportService, transportRepo repository.TransportRepository) *TransportHandler {
	return &TransportHandler{transportService: transportService, transportRepo: transportRepo}
}

// CreateTransportRequest is the HTTP request body for registering a transport.
type CreateTransportRequest struct {
	Code           string   `json:"code" binding:"required"`
	Type           string   `json:"type" binding:"required"`
	HourlyRate     float64  `json:"hourly_rate" binding:"required"`
	StationID      *int64   `json:"station_id,omitempty"`
	BatteryPercent *float64 `json:"battery_percent,omitempty"`
	RangeKm        *float64 `json:"range_km,omitempty"`
	Gears          *int     `json:"gears,omitempty"`
}

// ChangeStatusRequest is the HTTP request body for a status change.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransportResponse is the HTTP response for transport data.
type TransportResponse struct {
	ID             int64    `json:"id"`
	Code           string   `json:"code"`
	Type           string   `json:"type"`
	HourlyRate     float64  `json:"hourly_rate"`
	Status         string   `json:"status"`
	StationID      *int64   `json:"station_id,omitempty"`
	BatteryPercent *float64 `json:"battery_percent,omitempty"`
	RangeKm        *float64 `json:"range_km,omitempty"`
	Gears          *int     `json:"gears,omitempty"`
}

func toTransportResponse(t *domain.Transport) TransportResponse {
	return TransportResponse{
		ID:         t.ID,
		Code:       t.Code,
		Type:       string(t.Type),
		HourlyRate: t.HourlyRate,
		Status:     string(t.Status),
		StationID:  t.StationID,
	}
}

func toTransportDetailResponse(d *domain.TransportDetail) TransportResponse {
	resp := toTransportResponse(&d.Transport)
	if d.Electric != nil {
		resp.BatteryPercent = &d.Electric.BatteryPercent
		resp.RangeKm = &d.Electric.RangeKm
	}
	if d.Bicycle != nil {
		resp.Gears = &d.Bicycle.Gears
	}
	return resp
}

// CreateTransport handles POST /v1/transports
func (h *TransportHandler) CreateTransport(c *gin.Context) {
	var req CreateTransportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	if !domain.ValidTransportType(req.Type) {
		respondError(c, service.ErrInvalidTransportType)
		return
	}
	if req.HourlyRate <= 0 {
		respondBadRequest(c, "hourly_rate must be positive")
		return
	}

	transportType := domain.TransportType(req.Type)

	detail := &domain.TransportDetail{
		Transport: domain.Transport{
			Code:       req.Code,
			Type:       transportType,
			HourlyRate: req.HourlyRate,
			Status:     domain.TransportStatusAvailable,
			StationID:  req.StationID,
		},
	}

	if transportType.IsElectric() {
		spec := &domain.ElectricSpec{BatteryPercent: 100}
		if req.BatteryPercent != nil {
			spec.BatteryPercent = *req.BatteryPercent
		}
		if req.RangeKm != nil {
			spec.RangeKm = *req.RangeKm
		}
		detail.Electric = spec
	}
	if transportType == domain.TransportTypeBicycle && req.Gears != nil {
		detail.Bicycle = &domain.BicycleSpec{Gears: *req.Gears}
	}

	if err := h.transportRepo.Create(c.Request.Context(), detail); err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toTransportDetailResponse(detail))
}

// GetTransport handles GET /v1/transports/:id
func (h *TransportHandler) GetTransport(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidTransportID)
		return
	}

	detail, err := h.transportService.GetTransportDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTransportDetailResponse(detail))
}

// ListTransports handles GET /v1/transports
func (h *TransportHandler) ListTransports(c *gin.Context) {
	transports, err := h.transportService.GetAllTransports(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]TransportResponse, 0, len(transports))
	for _, t := range transports {
		responses = append(responses, toTransportResponse(t))
	}

	respondJSON(c, http.StatusOK, responses)
}

// ChangeStatus handles POST /v1/transports/:id/status
func (h *TransportHandler) ChangeStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		respondError(c, service.ErrInvalidTransportID)
		return
	}

	var req ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	transport, err := h.transportService.ChangeStatus(c.Request.Context(), id, domain.TransportStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toTransportResponse(transport))
}
