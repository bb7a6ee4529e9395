package models

// Dispatch is the subset of a portal dispatch record the relay templates
// notifications from. Field names follow the portal's JSON contract.
type Dispatch struct {
	FlightNumber     string  `json:"FlightNumber"`
	Destination      string  `json:"Destination"`
	TailNumber       string  `json:"TailNumber"`
	QuantityInWeight float64 `json:"QuantityInWeight"`
}
