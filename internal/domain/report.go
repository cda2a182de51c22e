package domain

import "time"

// UserLoanStats are the derived figures shown with a user's loan history.
type UserLoanStats struct {
	TotalLoans        int
	CompletedLoans    int
	CancelledLoans    int
	TotalSpent        float64
	FavoriteTransport TransportType // most-rented type, empty if no loans
}

// DailyLoanCount is one row of a loans-per-day report.
type DailyLoanCount struct {
	Day   time.Time
	Count int
}

// TransportUsage is one row of a most-used-transports report.
type TransportUsage struct {
	TransportID int64
	Code        string
	Type        TransportType
	LoanCount   int
}

// StationActivity is one row of a most-active-stations report. Departures
// count loans originating at the station, arrivals loans returned to it.
type StationActivity struct {
	StationID  int64
	Name       string
	Departures int
	Arrivals   int
}

// PeriodReport aggregates loan activity inside a time window.
type PeriodReport struct {
	From          time.Time
	To            time.Time
	TotalLoans    int
	TotalRevenue  float64
	LoansByDay    []DailyLoanCount
	TopTransports []TransportUsage
	TopStations   []StationActivity
}
