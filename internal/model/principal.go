package model

// Principal is the authenticated caller extracted from the access token.
// A zero UserID means a system/unauthenticated caller.
type Principal struct {
	UserID string
	Role   string
}

func (p Principal) IsAdmin() bool {
	return p.Role == "admin"
}

// ResolverID returns the user reference recorded on resolution, or nil for
// system callers.
func (p Principal) ResolverID() *string {
	if p.UserID == "" {
		return nil
	}
	id := p.UserID
	return &id
}
