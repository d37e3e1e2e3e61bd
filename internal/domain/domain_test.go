package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPermissionSetGrants(t *testing.T) {
	tests := []struct {
		name     string
		set      PermissionSet
		required Permission
		want     bool
	}{
		{"read grants read", PermissionSet{PermissionRead}, PermissionRead, true},
		{"read does not grant write", PermissionSet{PermissionRead}, PermissionWrite, false},
		{"write grants write", PermissionSet{PermissionWrite}, PermissionWrite, true},
		{"write implies read", PermissionSet{PermissionWrite}, PermissionRead, true},
		{"both grant both", PermissionSet{PermissionRead, PermissionWrite}, PermissionWrite, true},
		{"empty grants nothing", PermissionSet{}, PermissionRead, false},
		{"nil grants nothing", nil, PermissionWrite, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.set.Grants(tt.required))
		})
	}
}

func TestPermissionSetValid(t *testing.T) {
	assert.True(t, PermissionSet{PermissionRead}.Valid())
	assert.True(t, PermissionSet{PermissionRead, PermissionWrite}.Valid())
	assert.False(t, PermissionSet{}.Valid())
	assert.False(t, PermissionSet(nil).Valid())
	assert.False(t, PermissionSet{"ADMIN"}.Valid())
	assert.False(t, PermissionSet{PermissionRead, "OWNER"}.Valid())
}

func TestInviteState(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := &Invite{ExpiresAt: now.Add(24 * time.Hour)}
	assert.Equal(t, InviteActive, fresh.State(now))

	expired := &Invite{ExpiresAt: now.Add(-time.Second)}
	assert.Equal(t, InviteExpired, expired.State(now))

	// Redemption wins over expiry: a used invite stays redeemed even after
	// its expiry timestamp passes.
	used := &Invite{Used: true, ExpiresAt: now.Add(-time.Hour)}
	assert.Equal(t, InviteRedeemed, used.State(now))

	// Boundary: an invite is still active at its exact expiry instant.
	boundary := &Invite{ExpiresAt: now}
	assert.Equal(t, InviteActive, boundary.State(now))
}

func TestOrderComputeTotal(t *testing.T) {
	order := &Order{
		LineItems: []LineItem{
			{ProductID: "wrap-classic", Quantity: 3, UnitPriceCents: 1200},
			{ProductID: "wrap-holiday", Quantity: 1, UnitPriceCents: 1500},
		},
	}
	assert.Equal(t, int64(5100), order.ComputeTotal())

	empty := &Order{}
	assert.Equal(t, int64(0), empty.ComputeTotal())
}

func TestIsValidation(t *testing.T) {
	err := NewValidationError("name", "required")
	assert.True(t, IsValidation(err))
	assert.False(t, IsValidation(ErrNotFound))
	assert.Contains(t, err.Error(), "name")
}
