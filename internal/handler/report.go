package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ecomove/internal/domain"
	"ecomove/internal/service"
)

// ReportHandler handles HTTP requests for reports.
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// PeriodReportResponse is the HTTP response for a period report.
type PeriodReportResponse struct {
	From          string                `json:"from"`
	To            string                `json:"to"`
	TotalLoans    int                   `json:"total_loans"`
	TotalRevenue  float64               `json:"total_revenue"`
	LoansByDay    []DailyCountInfo      `json:"loans_by_day"`
	TopTransports []TransportUsageInfo  `json:"top_transports"`
	TopStations   []StationActivityInfo `json:"top_stations"`
}

// DailyCountInfo is one row of loans-per-day.
type DailyCountInfo struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TransportUsageInfo is one row of most-used transports.
type TransportUsageInfo struct {
	TransportID int64  `json:"transport_id"`
	Code        string `json:"code"`
	Type        string `json:"type"`
	LoanCount   int    `json:"loan_count"`
}

// StationActivityInfo is one row of station departures and arrivals.
type StationActivityInfo struct {
	StationID  int64  `json:"station_id"`
	Name       string `json:"name"`
	Departures int    `json:"departures"`
	Arrivals   int    `json:"arrivals"`
}

// GetPeriodReport handles GET /v1/reports/loans?from=&to=
func (h *ReportHandler) GetPeriodReport(c *gin.Context) {
	from, errFrom := time.Parse(time.RFC3339, c.Query("from"))
	to, errTo := time.Parse(time.RFC3339, c.Query("to"))
	if errFrom != nil || errTo != nil {
		respondBadRequest(c, "from and to must be RFC3339 timestamps")
		return
	}

	report, err := h.reportService.GetPeriodReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toPeriodReportResponse(report))
}

func toPeriodReportResponse(report *domain.PeriodReport) PeriodReportResponse {
	resp := PeriodReportResponse{
		From:          report.From.Format("2006-01-02T15:04:05Z07:00"),
		To:            report.To.Format("2006-01-02T15:04:05Z07:00"),
		TotalLoans:    report.TotalLoans,
		TotalRevenue:  report.TotalRevenue,
		LoansByDay:    make([]DailyCountInfo, 0, len(report.LoansByDay)),
		TopTransports: make([]TransportUsageInfo, 0, len(report.TopTransports)),
		TopStations:   make([]StationActivityInfo, 0, len(report.TopStations)),
	}

	for _, day := range report.LoansByDay {
		resp.LoansByDay = append(resp.LoansByDay, DailyCountInfo{
			Day:   day.Day.Format("2006-01-02"),
			Count: day.Count,
		})
	}
	for _, t := range report.TopTransports {
		resp.TopTransports = append(resp.TopTransports, TransportUsageInfo{
			TransportID: t.TransportID,
			Code:        t.Code,
			Type:        string(t.Type),
			LoanCount:   t.LoanCount,
		})
	}
	for _, s := range report.TopStations {
		resp.TopStations = append(resp.TopStations, StationActivityInfo{
			StationID:  s.StationID,
			Name:       s.Name,
			Departures: s.Departures,
			Arrivals:   s.Arrivals,
		})
	}

	return resp
}
