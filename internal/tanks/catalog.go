package tanks

import errorz "github.com/tedtop/fuelrelay/internal/errors"

// Tank is one entry of the static fuel-farm catalog. MaxLevel is inches of
// product; Capacity is gallons.
type Tank struct {
	MaxLevel float64 `json:"maxLevel"`
	FuelType string  `json:"fuelType"`
	Capacity int     `json:"capacity"`
	Name     string  `json:"name"`
}

// Catalog is configuration, not data: the farm has seven fixed tanks.
var Catalog = map[string]Tank{
	"T1": {MaxLevel: 86, FuelType: "Avgas", Capacity: 12000, Name: "Tank 1"},
	"T2": {MaxLevel: 86, FuelType: "Jet A", Capacity: 12000, Name: "Tank 2"},
	"T3": {MaxLevel: 86, FuelType: "Jet A", Capacity: 12000, Name: "Tank 3"},
	"T4": {MaxLevel: 86, FuelType: "Jet A", Capacity: 12000, Name: "Tank 4"},
	"T5": {MaxLevel: 86, FuelType: "Jet A", Capacity: 12000, Name: "Tank 5"},
	"T6": {MaxLevel: 86, FuelType: "Jet A", Capacity: 12000, Name: "Tank 6"},
	"T7": {MaxLevel: 97, FuelType: "Jet A", Capacity: 18034, Name: "Tank 7"},
}

// ValidateLevel checks a reading against the catalog before it goes
// anywhere near the store.
func ValidateLevel(tankID string, level float64) error {
	tank, ok := Catalog[tankID]
	if !ok {
		return errorz.ErrUnknownTank
	}
	if level < 0 || level > tank.MaxLevel {
		return errorz.ErrLevelOutOfRange
	}
	return nil
}
