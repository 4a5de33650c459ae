package service

import "github.com/d60-Lab/tailorshop/internal/model"

// Actor is the authenticated principal attempting an operation.
type Actor struct {
	ID          string
	Roles       []string
	IsSuperuser bool
}

func (a Actor) hasRole(name string) bool {
	for _, r := range a.Roles {
		if r == name {
			return true
		}
	}
	return false
}

type policyEdge struct{ from, to string }

// TransitionPolicy is the in-memory role gate for status transitions:
// built once at startup, queried without touching the database.
type TransitionPolicy struct {
	blanket map[string]bool
	allowed map[string]map[policyEdge]bool
}

// DefaultTransitionPolicy encodes the shop's role allow-list. Admin and
// staff may take any edge that exists in the graph; worker roles are limited
// to the edges of their craft.
func DefaultTransitionPolicy() *TransitionPolicy {
	p := &TransitionPolicy{
		blanket: map[string]bool{model.RoleAdmin: true, model.RoleStaff: true},
		allowed: map[string]map[policyEdge]bool{},
	}
	p.permit(model.RoleTailor, model.StatusFabricAllocated, model.StatusStitching)
	p.permit(model.RoleTailor, model.StatusStitching, model.StatusTrialScheduled)
	p.permit(model.RoleTailor, model.StatusStitching, model.StatusReady)
	p.permit(model.RoleTailor, model.StatusTrialScheduled, model.StatusReady)
	p.permit(model.RoleTailor, model.StatusAlteration, model.StatusReady)
	p.permit(model.RoleDesigner, model.StatusBooked, model.StatusFabricAllocated)
	p.permit(model.RoleDelivery, model.StatusReady, model.StatusDelivered)
	return p
}

func (p *TransitionPolicy) permit(role, from, to string) {
	if p.allowed[role] == nil {
		p.allowed[role] = map[policyEdge]bool{}
	}
	p.allowed[role][policyEdge{from, to}] = true
}

// Allows reports whether the actor may take the (from, to) edge. It does not
// check that the edge exists in the graph; that is the validator's job.
func (p *TransitionPolicy) Allows(actor Actor, from, to string) bool {
	if actor.IsSuperuser {
		return true
	}
	for _, role := range actor.Roles {
		if p.blanket[role] {
			return true
		}
		if p.allowed[role][policyEdge{from, to}] {
			return true
		}
	}
	return false
}
