// README: Shared identifier and geographic value types.
package types

// ID identifies an entity (order, rider, customer, restaurant).
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
