package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"local-electrician/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Twelve electricians race to accept the same broadcast request. Exactly one
// wins; every loser gets ErrAlreadyTaken and the row ends up assigned to the
// winner.
func TestConcurrentAcceptExactlyOneWinner(t *testing.T) {
	e := newEngine()

	const racers = 12
	ids := make([]string, racers)
	for i := range ids {
		ids[i] = fmt.Sprintf("e-%02d", i)
		e.addElectrician(ids[i], 28.628, 77.20, entity.ElectricianVerified)
	}

	reqID, err := e.dispatcher.CreateBroadcast(context.Background(), baseInput("c-1"), baseLat, baseLng)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
		losers  int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(electricianID string) {
			defer wg.Done()
			status, err := e.arbiter.ApplyAction(context.Background(), reqID, electricianID, entity.ActionAccept, entity.RoleElectrician)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				assert.Equal(t, entity.StatusAccepted, status)
				winners = append(winners, electricianID)
			case errors.Is(err, entity.ErrAlreadyTaken):
				losers++
			default:
				t.Errorf("unexpected error for %s: %v", electricianID, err)
			}
		}(id)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, racers-1, losers)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	require.NotNil(t, req)
	assert.Equal(t, entity.StatusAccepted, req.Status)
	assert.Equal(t, winners[0], req.Assignment.ElectricianID())

	// Creation plus the single winning accept. Lost races never append.
	logs, err := e.store.LogsForRequest(context.Background(), reqID)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestBroadcastAcceptOutsideRadiusRejected(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-near", 28.628, 77.20, entity.ElectricianVerified) // ~2 km
	e.addElectrician("e-far", 28.97, 77.20, entity.ElectricianVerified)   // ~40 km

	reqID, err := e.dispatcher.CreateBroadcast(context.Background(), baseInput("c-1"), baseLat, baseLng)
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-far", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrNotEligible)

	// The near electrician is unaffected by the rejected attempt.
	status, err := e.arbiter.ApplyAction(context.Background(), reqID, "e-near", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, status)
}

func TestDirectedAcceptByWrongElectrician(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)
	e.addElectrician("e-2", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateDirected(context.Background(), baseInput("c-1"), "e-1")
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-2", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrNotEligible)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, req.Status)
	assert.Equal(t, "e-1", req.Assignment.ElectricianID())
}

// Old ledger rows can resurface in the primary store without geometry. The
// verification check still applies to them; only the distance comparison is
// skipped.
func TestBroadcastAcceptOnRowWithoutGeometry(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)
	e.addElectrician("e-pending", 28.628, 77.20, "PENDING")

	now := time.Now().UTC()
	require.NoError(t, e.primary.Insert(context.Background(), &entity.ServiceRequest{
		RequestID:   "r-legacy",
		CustomerRef: "c-1",
		Assignment:  entity.Broadcast,
		ServiceType: "Electrical Repair",
		Status:      entity.StatusNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}))

	// Unknown to the directory: rejected.
	_, err := e.arbiter.ApplyAction(context.Background(), "r-legacy", "e-ghost", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrNotEligible)

	// Known but not VERIFIED: rejected.
	_, err = e.arbiter.ApplyAction(context.Background(), "r-legacy", "e-pending", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrNotEligible)

	req, err := e.store.FindByID(context.Background(), "r-legacy")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, req.Status)

	// A verified electrician may take it; with no stored radius there is no
	// distance to compare against.
	status, err := e.arbiter.ApplyAction(context.Background(), "r-legacy", "e-1", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, status)
}

// An accept that lands after another electrician already owns the request is
// reported as a lost race, not a protocol violation.
func TestLateAcceptAfterWinner(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)
	e.addElectrician("e-2", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateBroadcast(context.Background(), baseInput("c-1"), baseLat, baseLng)
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-2", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrAlreadyTaken)
}

func TestAcceptSnapshotsElectricianProfile(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateDirected(context.Background(), baseInput("c-1"), "e-1")
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, "Electrician e-1", req.ElectricianName)
	assert.Equal(t, "99e-1", req.ElectricianPhone)
	assert.Equal(t, "Delhi", req.ElectricianCity)
}

func TestCompleteSetsCompletedAt(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateDirected(context.Background(), baseInput("c-1"), "e-1")
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)
	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionStart, entity.RoleElectrician)
	require.NoError(t, err)
	status, err := e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionComplete, entity.RoleElectrician)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSuccess, status)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	require.NotNil(t, req.CompletedAt)

	logs, err := e.store.LogsForRequest(context.Background(), reqID)
	require.NoError(t, err)
	assert.Len(t, logs, 4) // NEW, ACCEPTED, IN_PROGRESS, SUCCESS
}

// Declining a broadcast request leaves it NEW and acceptable by everyone else.
func TestBroadcastDeclineIsNoOp(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)
	e.addElectrician("e-2", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateBroadcast(context.Background(), baseInput("c-1"), baseLat, baseLng)
	require.NoError(t, err)

	status, err := e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionDecline, entity.RoleElectrician)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, status)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, req.Status)
	assert.True(t, req.Assignment.IsBroadcast())

	status, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-2", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAccepted, status)
}

// Declining a directed request is terminal: a later accept is rejected and the
// row does not move.
func TestDirectedDeclineIsTerminal(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateDirected(context.Background(), baseInput("c-1"), "e-1")
	require.NoError(t, err)

	status, err := e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionDecline, entity.RoleElectrician)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeclined, status)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrIllegalTransition)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeclined, req.Status)
}

func TestCustomerCancelAfterAccept(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateDirected(context.Background(), baseInput("c-1"), "e-1")
	require.NoError(t, err)

	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionAccept, entity.RoleElectrician)
	require.NoError(t, err)

	status, err := e.arbiter.ApplyAction(context.Background(), reqID, "c-1", entity.ActionCancel, entity.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, status)

	// Work cannot start on a cancelled request.
	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionStart, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrIllegalTransition)
}

func TestIllegalTransitionLeavesRowUnchanged(t *testing.T) {
	e := newEngine()
	e.addElectrician("e-1", 28.628, 77.20, entity.ElectricianVerified)

	reqID, err := e.dispatcher.CreateDirected(context.Background(), baseInput("c-1"), "e-1")
	require.NoError(t, err)

	// start before accept
	_, err = e.arbiter.ApplyAction(context.Background(), reqID, "e-1", entity.ActionStart, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrIllegalTransition)

	req, err := e.store.FindByID(context.Background(), reqID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusNew, req.Status)

	logs, err := e.store.LogsForRequest(context.Background(), reqID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestActionOnUnknownRequest(t *testing.T) {
	e := newEngine()
	_, err := e.arbiter.ApplyAction(context.Background(), "missing", "e-1", entity.ActionAccept, entity.RoleElectrician)
	assert.ErrorIs(t, err, entity.ErrNotFound)
}
