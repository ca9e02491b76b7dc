package repository

import (
	"testing"
	"time"

	"local-electrician/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRowRoundTrip(t *testing.T) {
	lat, lng := 28.61, 77.20
	completed := time.Date(2025, 4, 2, 11, 30, 0, 0, time.UTC)
	req := &entity.ServiceRequest{
		RequestID:        "r-1",
		CustomerRef:      "c-1",
		Assignment:       entity.Broadcast,
		ServiceType:      "Electrical Repair",
		Urgency:          "HIGH",
		PreferredDate:    "2025-04-02",
		PreferredSlot:    "morning",
		IssueDetail:      "power socket sparking",
		Status:           entity.StatusSuccess,
		Latitude:         &lat,
		Longitude:        &lng,
		RadiusKm:         15,
		CustomerName:     "Asha",
		CustomerPhone:    "9800000001",
		Address:          "14 MG Road",
		City:             "Delhi",
		Pincode:          "110001",
		ElectricianName:  "Ravi",
		ElectricianPhone: "9900000001",
		ElectricianCity:  "Delhi",
		Rating:           5,
		ReviewComment:    "quick and tidy",
		CreatedAt:        time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC),
		UpdatedAt:        time.Date(2025, 4, 2, 11, 30, 0, 0, time.UTC),
		CompletedAt:      &completed,
	}

	got := DecodeLedgerRow(req.RequestID, encodeLedgerRow(req))
	assert.Equal(t, req, got)

	// The broadcast sentinel survives the round trip verbatim.
	assert.Equal(t, entity.BroadcastWire, string(got.Assignment))
	assert.True(t, got.Assignment.IsBroadcast())
}

// Rows written before a column was appended are shorter than the current
// layout; missing columns decode to zero values.
func TestDecodeLedgerRowShortRow(t *testing.T) {
	cols := []string{"r-1", "c-1", "e-9", "Fan Installation"}

	got := DecodeLedgerRow("r-1", cols)
	require.NotNil(t, got)
	assert.Equal(t, "r-1", got.RequestID)
	assert.Equal(t, "c-1", got.CustomerRef)
	assert.Equal(t, "e-9", got.Assignment.ElectricianID())
	assert.Equal(t, "Fan Installation", got.ServiceType)
	assert.Empty(t, got.Status)
	assert.Nil(t, got.Latitude)
	assert.Zero(t, got.Rating)
	assert.True(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.CompletedAt)
}

func TestDecodeLedgerRowMalformedValues(t *testing.T) {
	cols := make([]string, ledgerColumnCount)
	cols[colCustomerRef] = "c-1"
	cols[colLatitude] = "not-a-number"
	cols[colRadiusKm] = "NaN-ish"
	cols[colRating] = "five"
	cols[colCreatedAt] = "yesterday"
	cols[colCompletedAt] = "soon"

	got := DecodeLedgerRow("r-1", cols)
	require.NotNil(t, got)
	assert.Equal(t, "r-1", got.RequestID)
	assert.Nil(t, got.Latitude)
	assert.Zero(t, got.RadiusKm)
	assert.Zero(t, got.Rating)
	assert.True(t, got.CreatedAt.IsZero())
	assert.Nil(t, got.CompletedAt)
}

func TestDecodeLedgerRowEmpty(t *testing.T) {
	got := DecodeLedgerRow("r-1", nil)
	require.NotNil(t, got)
	assert.Equal(t, "r-1", got.RequestID)
}
