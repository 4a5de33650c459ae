package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/d60-Lab/tailorshop/internal/model"
)

func TestPolicyBlanketRoles(t *testing.T) {
	p := DefaultTransitionPolicy()

	admin := Actor{ID: "a", Roles: []string{model.RoleAdmin}}
	staff := Actor{ID: "s", Roles: []string{model.RoleStaff}}

	assert.True(t, p.Allows(admin, model.StatusBooked, model.StatusFabricAllocated))
	assert.True(t, p.Allows(admin, model.StatusDelivered, model.StatusClosed))
	assert.True(t, p.Allows(staff, model.StatusTrialScheduled, model.StatusAlteration))
}

func TestPolicyWorkerEdges(t *testing.T) {
	p := DefaultTransitionPolicy()

	tailor := Actor{ID: "t", Roles: []string{model.RoleTailor}}
	assert.True(t, p.Allows(tailor, model.StatusFabricAllocated, model.StatusStitching))
	assert.True(t, p.Allows(tailor, model.StatusStitching, model.StatusReady))
	assert.True(t, p.Allows(tailor, model.StatusAlteration, model.StatusReady))
	assert.False(t, p.Allows(tailor, model.StatusReady, model.StatusDelivered))
	assert.False(t, p.Allows(tailor, model.StatusBooked, model.StatusFabricAllocated))

	designer := Actor{ID: "d", Roles: []string{model.RoleDesigner}}
	assert.True(t, p.Allows(designer, model.StatusBooked, model.StatusFabricAllocated))
	assert.False(t, p.Allows(designer, model.StatusFabricAllocated, model.StatusStitching))

	delivery := Actor{ID: "v", Roles: []string{model.RoleDelivery}}
	assert.True(t, p.Allows(delivery, model.StatusReady, model.StatusDelivered))
	assert.False(t, p.Allows(delivery, model.StatusDelivered, model.StatusClosed))
}

func TestPolicySuperuserBypass(t *testing.T) {
	p := DefaultTransitionPolicy()

	super := Actor{ID: "root", Roles: nil, IsSuperuser: true}
	assert.True(t, p.Allows(super, model.StatusBooked, model.StatusFabricAllocated))
	assert.True(t, p.Allows(super, model.StatusReady, model.StatusDelivered))

	nobody := Actor{ID: "n", Roles: []string{model.RoleCustomer}}
	assert.False(t, p.Allows(nobody, model.StatusBooked, model.StatusFabricAllocated))
}
