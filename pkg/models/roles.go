package models

// Role is a capability a caller holds relative to a trade.
type Role uint8

const (
	RoleBuyer Role = 1 << iota
	RoleSeller
	RoleAdmin
	RoleArbiter
)

// Roles is a set of Role bits.
type Roles uint8

// Has reports whether any of the given roles is held.
func (r Roles) Has(roles ...Role) bool {
	for _, role := range roles {
		if r&Roles(role) != 0 {
			return true
		}
	}
	return false
}

// RolesOf computes the capabilities of caller. trade may be nil when only the
// contract-wide roles matter. All principals are expected in normalised form.
func RolesOf(caller string, trade *Trade, admin, arbiter string) Roles {
	var roles Roles
	if caller == "" {
		return roles
	}
	if trade != nil {
		if caller == trade.Buyer {
			roles |= Roles(RoleBuyer)
		}
		if caller == trade.Seller {
			roles |= Roles(RoleSeller)
		}
	}
	if caller == admin {
		roles |= Roles(RoleAdmin)
	}
	if caller == arbiter {
		roles |= Roles(RoleArbiter)
	}
	return roles
}
