package authz

import "strings"

// Principal is the authenticated identity a policy decision is made about.
type Principal struct {
	UserID string
	Email  string
}

// Policy decides whether a principal may perform privileged operations
// (challenge creation, admin pages). The allow-list is injected at
// construction instead of read from the environment at call sites.
type Policy struct {
	adminEmails map[string]bool
}

// NewPolicy builds a policy from a comma-separated email allow-list.
// Entries are trimmed and lowercased; empty entries are ignored.
func NewPolicy(adminEmailList string) *Policy {
	emails := make(map[string]bool)
	for _, e := range strings.Split(adminEmailList, ",") {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			emails[e] = true
		}
	}
	return &Policy{adminEmails: emails}
}

func (p *Policy) IsPrivileged(principal Principal) bool {
	if principal.Email == "" {
		return false
	}
	return p.adminEmails[strings.ToLower(principal.Email)]
}
