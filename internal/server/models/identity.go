package models

// Identity is the resolved caller context handed to the engine. It is built
// by the auth layer from a verified token plus explicit store lookups; the
// engine itself never authenticates tokens.
type Identity struct {
	UserID        int64
	Roles         []string
	OwnedAccounts []int64
}

// HasRole reports whether the identity carries the given role.
func (i Identity) HasRole(role string) bool {
	for _, r := range i.Roles {
		if r == role {
			return true
		}
	}
	return false
}
