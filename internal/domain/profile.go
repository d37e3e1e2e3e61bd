package domain

import "time"

// Permission is a single access level grantable on a profile.
type Permission string

const (
	PermissionRead  Permission = "READ"
	PermissionWrite Permission = "WRITE"
)

// PermissionSet is a non-empty subset of {READ, WRITE}.
type PermissionSet []Permission

// Contains reports whether the set literally contains p.
func (s PermissionSet) Contains(p Permission) bool {
	for _, have := range s {
		if have == p {
			return true
		}
	}
	return false
}

// Grants reports whether the set satisfies the required level. WRITE implies
// READ: a set holding WRITE grants READ even when READ is not stored.
func (s PermissionSet) Grants(required Permission) bool {
	if required == PermissionRead {
		return len(s) > 0
	}
	return s.Contains(PermissionWrite)
}

// Valid reports whether the set is non-empty and holds only known levels.
func (s PermissionSet) Valid() bool {
	if len(s) == 0 {
		return false
	}
	for _, p := range s {
		if p != PermissionRead && p != PermissionWrite {
			return false
		}
	}
	return true
}

// Profile is a seller's root resource: the unit of ownership and sharing.
// The owner implicitly holds READ+WRITE; that grant is never stored as a
// Share row.
type Profile struct {
	ID             string    `json:"id"`
	OwnerAccountID string    `json:"owner_account_id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Share is a durable grant of permissions on a profile to a specific account.
// At most one Share exists per (profile, account) pair; re-granting replaces
// the permission set rather than duplicating the row.
type Share struct {
	ProfileID          string        `json:"profile_id"`
	TargetAccountID    string        `json:"target_account_id"`
	Permissions        PermissionSet `json:"permissions"`
	CreatedByAccountID string        `json:"created_by_account_id"`
	CreatedAt          time.Time     `json:"created_at"`
}
