package domain

import "time"

// TransportType represents the kind of vehicle.
type TransportType string

const (
	TransportTypeBicycle         TransportType = "bicycle"
	TransportTypeElectricScooter TransportType = "electric_scooter"
	TransportTypeScooter         TransportType = "scooter"
	TransportTypeElectricVehicle TransportType = "electric_vehicle"
)

// TransportStatus represents the current status of a transport.
type TransportStatus string

const (
	TransportStatusAvailable    TransportStatus = "available"
	TransportStatusInUse        TransportStatus = "in_use"
	TransportStatusMaintenance  TransportStatus = "maintenance"
	TransportStatusOutOfService TransportStatus = "out_of_service"
)

// Transport represents a rentable vehicle.
type Transport struct {
	ID         int64
	Code       string // physical label on the vehicle, e.g. "ECO-0042"
	Type       TransportType
	HourlyRate float64
	Status     TransportStatus
	StationID  *int64 // nil while the transport is out riding
	CreatedAt  time.Time
}

// ElectricSpec holds the subtype fields shared by electric scooters and
// electric vehicles.
type ElectricSpec struct {
	BatteryPercent float64
	RangeKm        float64
}

// BicycleSpec holds the bicycle-specific subtype fields.
type BicycleSpec struct {
	Gears int
}

// TransportDetail is a transport together with its subtype fields.
// Exactly one of the spec pointers is set, keyed by Type; plain scooters
// carry neither.
type TransportDetail struct {
	Transport
	Electric *ElectricSpec
	Bicycle  *BicycleSpec
}

// IsElectric reports whether the transport type carries a battery.
func (t TransportType) IsElectric() bool {
	return t == TransportTypeElectricScooter || t == TransportTypeElectricVehicle
}

// ValidTransportType reports whether s names a known transport type.
func ValidTransportType(s string) bool {
	switch TransportType(s) {
	case TransportTypeBicycle, TransportTypeElectricScooter,
		TransportTypeScooter, TransportTypeElectricVehicle:
		return true
	}
	return false
}
