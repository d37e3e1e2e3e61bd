package domain

import "time"

// InviteState is the derived lifecycle state of an invite. REDEEMED and
// EXPIRED are terminal; EXPIRED is computed at read time from the expiry
// timestamp, never stored.
type InviteState string

const (
	InviteActive   InviteState = "active"
	InviteRedeemed InviteState = "redeemed"
	InviteExpired  InviteState = "expired"
)

// Invite is a single-use, time-limited code that grants a Share on
// redemption. The first successful redemption flips Used and binds the
// redeeming account; the transition is one-way.
type Invite struct {
	Code               string        `json:"code"`
	ProfileID          string        `json:"profile_id"`
	Permissions        PermissionSet `json:"permissions"`
	CreatedByAccountID string        `json:"created_by_account_id"`
	CreatedAt          time.Time     `json:"created_at"`
	ExpiresAt          time.Time     `json:"expires_at"`
	Used               bool          `json:"used"`
	RedeemedByAccount  string        `json:"redeemed_by_account,omitempty"`
}

// State derives the lifecycle state at the given instant.
func (i *Invite) State(now time.Time) InviteState {
	if i.Used {
		return InviteRedeemed
	}
	if now.After(i.ExpiresAt) {
		return InviteExpired
	}
	return InviteActive
}
