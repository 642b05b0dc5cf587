// README: Rider directory entity; one row per courier account.
package rider

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/surajacharya12/Mr.Fodee-sub000/internal/types"
)

type Rider struct {
	ID            types.ID
	UserID        types.ID
	VehicleType   string
	LicenseNumber string

	// IsOnline is the rider's own toggle; IsAvailable is system-managed and
	// flips false while a delivery is in flight.
	IsOnline    bool
	IsAvailable bool
	Location    types.Point

	WalletBalance   decimal.Decimal
	TotalDeliveries int
	Rating          float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Eligible reports whether the rider can be offered new work.
func (r Rider) Eligible() bool {
	return r.IsOnline && r.IsAvailable
}
