package usecase

import (
	"testing"

	"local-electrician/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatusAllowedTransitions(t *testing.T) {
	tests := []struct {
		name   string
		from   entity.Status
		action entity.Action
		role   entity.ActorRole
		want   entity.Status
	}{
		{"accept new", entity.StatusNew, entity.ActionAccept, entity.RoleElectrician, entity.StatusAccepted},
		{"decline new", entity.StatusNew, entity.ActionDecline, entity.RoleElectrician, entity.StatusDeclined},
		{"start accepted", entity.StatusAccepted, entity.ActionStart, entity.RoleElectrician, entity.StatusInProgress},
		{"complete accepted", entity.StatusAccepted, entity.ActionComplete, entity.RoleElectrician, entity.StatusSuccess},
		{"complete in progress", entity.StatusInProgress, entity.ActionComplete, entity.RoleElectrician, entity.StatusSuccess},
		{"customer cancels new", entity.StatusNew, entity.ActionCancel, entity.RoleCustomer, entity.StatusCancelled},
		{"customer cancels accepted", entity.StatusAccepted, entity.ActionCancel, entity.RoleCustomer, entity.StatusCancelled},
		{"electrician cancels accepted", entity.StatusAccepted, entity.ActionCancel, entity.RoleElectrician, entity.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, description, err := NextStatus(tt.from, tt.action, tt.role)
			require.NoError(t, err)
			assert.Equal(t, tt.want, next)
			assert.NotEmpty(t, description)
		})
	}
}

// Every (status, action, role) combination outside the allowed table must be
// rejected, in particular everything out of a terminal state.
func TestNextStatusTotality(t *testing.T) {
	allowed := map[[3]string]bool{
		{string(entity.StatusNew), string(entity.ActionAccept), string(entity.RoleElectrician)}:        true,
		{string(entity.StatusNew), string(entity.ActionDecline), string(entity.RoleElectrician)}:       true,
		{string(entity.StatusAccepted), string(entity.ActionStart), string(entity.RoleElectrician)}:    true,
		{string(entity.StatusAccepted), string(entity.ActionComplete), string(entity.RoleElectrician)}: true,
		{string(entity.StatusInProgress), string(entity.ActionComplete), string(entity.RoleElectrician)}: true,
		{string(entity.StatusNew), string(entity.ActionCancel), string(entity.RoleCustomer)}:           true,
		{string(entity.StatusAccepted), string(entity.ActionCancel), string(entity.RoleCustomer)}:      true,
		{string(entity.StatusAccepted), string(entity.ActionCancel), string(entity.RoleElectrician)}:   true,
	}

	statuses := []entity.Status{
		entity.StatusNew, entity.StatusAccepted, entity.StatusInProgress,
		entity.StatusSuccess, entity.StatusCancelled, entity.StatusDeclined,
	}
	actions := []entity.Action{
		entity.ActionAccept, entity.ActionDecline, entity.ActionStart,
		entity.ActionComplete, entity.ActionCancel,
	}
	roles := []entity.ActorRole{entity.RoleElectrician, entity.RoleCustomer}

	for _, status := range statuses {
		for _, action := range actions {
			for _, role := range roles {
				key := [3]string{string(status), string(action), string(role)}
				next, _, err := NextStatus(status, action, role)
				if allowed[key] {
					assert.NoErrorf(t, err, "(%s, %s, %s) should be allowed", status, action, role)
				} else {
					assert.ErrorIsf(t, err, entity.ErrIllegalTransition,
						"(%s, %s, %s) should be rejected", status, action, role)
					assert.Empty(t, next)
				}
			}
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, entity.StatusSuccess.IsTerminal())
	assert.True(t, entity.StatusCancelled.IsTerminal())
	assert.True(t, entity.StatusDeclined.IsTerminal())
	assert.False(t, entity.StatusNew.IsTerminal())
	assert.False(t, entity.StatusAccepted.IsTerminal())
	assert.False(t, entity.StatusInProgress.IsTerminal())
}
