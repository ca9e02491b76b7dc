// internal/domain/entity/electrician.go
package entity

// ElectricianVerified is the only directory status eligible for matching.
const ElectricianVerified = "VERIFIED"

// Electrician is the read-only directory view this engine matches against.
// Verification and location are owned by the directory service.
type Electrician struct {
	ID        string   `json:"id"`
	Status    string   `json:"status"`
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lng"`
	City      string   `json:"city,omitempty"`
}

// IsVerified reports whether the electrician may appear in a candidate set.
func (e *Electrician) IsVerified() bool {
	return e.Status == ElectricianVerified
}

// HasLocation reports whether both coordinates are present. Electricians
// without coordinates are excluded from radius queries, not treated as
// distance zero.
func (e *Electrician) HasLocation() bool {
	return e.Latitude != nil && e.Longitude != nil
}

// ElectricianProfile is the directory profile snapshotted into a request on
// acceptance.
type ElectricianProfile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	City   string `json:"city"`
	Status string `json:"status"`
}

// CustomerProfile is the directory view of a customer.
type CustomerProfile struct {
	Ref     string `json:"ref"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
}

// Candidate is an electrician inside a broadcast radius, with its computed
// great-circle distance.
type Candidate struct {
	Electrician
	DistanceKm float64 `json:"distanceKm"`
}
