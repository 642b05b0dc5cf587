// README: Matching candidates returned by the GEO index, nearest first.
package matching

import "github.com/surajacharya12/Mr.Fodee-sub000/internal/types"

type Candidate struct {
	ID             types.ID
	DistanceMeters float64
}
