// internal/domain/entity/request.go
package entity

import (
	"time"
)

// Status is the lifecycle state of a service request.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusAccepted   Status = "ACCEPTED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusSuccess    Status = "SUCCESS"
	StatusCancelled  Status = "CANCELLED"
	StatusDeclined   Status = "DECLINED"
)

// IsTerminal reports whether no further transition is allowed out of s.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusCancelled || s == StatusDeclined
}

// Action is an electrician or customer action against a request.
type Action string

const (
	ActionAccept   Action = "accept"
	ActionDecline  Action = "decline"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// ActorRole identifies which party is performing an action.
type ActorRole string

const (
	RoleElectrician ActorRole = "electrician"
	RoleCustomer    ActorRole = "customer"
)

// BroadcastWire is the legacy wire value meaning "unassigned, open to the
// candidate set". It must survive round-trips through the ledger and the API
// unchanged.
const BroadcastWire = "BROADCAST"

// Assignment holds the electrician a request is assigned to, or the broadcast
// sentinel. Callers go through IsBroadcast/ElectricianID instead of comparing
// the raw value.
type Assignment string

// Broadcast is the unassigned state of a broadcast request.
const Broadcast Assignment = Assignment(BroadcastWire)

// AssignedTo builds an assignment to a concrete electrician.
func AssignedTo(electricianID string) Assignment {
	return Assignment(electricianID)
}

// IsBroadcast reports whether the request is open to the candidate set.
func (a Assignment) IsBroadcast() bool {
	return string(a) == BroadcastWire
}

// ElectricianID returns the assigned electrician id, or "" for broadcast.
func (a Assignment) ElectricianID() string {
	if a.IsBroadcast() {
		return ""
	}
	return string(a)
}

// ServiceRequest is the single shared mutable resource of the engine. All
// mutation after creation goes through the conditional-update path.
type ServiceRequest struct {
	RequestID   string     `bson:"_id" json:"requestId"`
	CustomerRef string     `bson:"customerRef" json:"customerRef"`
	Assignment  Assignment `bson:"electricianRef" json:"electricianRef"`

	ServiceType   string `bson:"serviceType" json:"serviceType"`
	Urgency       string `bson:"urgency" json:"urgency"`
	PreferredDate string `bson:"preferredDate" json:"preferredDate"`
	PreferredSlot string `bson:"preferredSlot" json:"preferredSlot"`
	IssueDetail   string `bson:"issueDetail" json:"issueDetail"`

	Status Status `bson:"status" json:"status"`

	// Broadcast geometry, zero for directed requests. Kept on the row so
	// candidate eligibility can be re-derived at read time.
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	RadiusKm  float64  `bson:"radiusKm,omitempty" json:"radiusKm,omitempty"`

	// Customer snapshot, captured at creation.
	CustomerName  string `bson:"customerName" json:"customerName"`
	CustomerPhone string `bson:"customerPhone" json:"customerPhone"`
	Address       string `bson:"address" json:"address"`
	City          string `bson:"city" json:"city"`
	Pincode       string `bson:"pincode" json:"pincode"`

	// Electrician snapshot, captured atomically with NEW -> ACCEPTED.
	ElectricianName  string `bson:"electricianName,omitempty" json:"electricianName,omitempty"`
	ElectricianPhone string `bson:"electricianPhone,omitempty" json:"electricianPhone,omitempty"`
	ElectricianCity  string `bson:"electricianCity,omitempty" json:"electricianCity,omitempty"`

	Rating        int    `bson:"rating,omitempty" json:"rating,omitempty"`
	ReviewComment string `bson:"reviewComment,omitempty" json:"reviewComment,omitempty"`

	CreatedAt   time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updatedAt" json:"updatedAt"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// ElectricianSnapshot is the denormalized profile written into the request row
// on acceptance.
type ElectricianSnapshot struct {
	Name  string
	Phone string
	City  string
}

// StatusLogEntry is one row of the append-only transition audit trail. Entries
// are never mutated or deleted.
type StatusLogEntry struct {
	ID          string    `bson:"_id,omitempty" json:"-"`
	RequestID   string    `bson:"requestId" json:"requestId"`
	Status      Status    `bson:"status" json:"status"`
	Description string    `bson:"description" json:"description"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
