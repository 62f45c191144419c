package venueservice

import "github.com/canchapp/PDR-BookingService/pkg/types"

// Court модель корта из VenueService
type Court struct {
	ID                  int64            `json:"id"`
	VenueID             int64            `json:"venue_id"`
	Name                string           `json:"name"`
	Sport               string           `json:"sport"`
	PricePerHour        float64          `json:"price_per_hour"`
	RequiresDeposit     bool             `json:"requires_deposit"`
	DepositAmount       float64          `json:"deposit_amount"`
	SlotDurationMinutes int              `json:"slot_duration_minutes"`
	OpenTime            types.TimeString `json:"open_time"`  // "09:00"
	CloseTime           types.TimeString `json:"close_time"` // "23:00"
	Active              bool             `json:"active"`
}

// Venue модель предия из VenueService
type Venue struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	OwnerIDs []int64 `json:"owner_ids"`
}

// ErrorResponse модель ошибки от VenueService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
