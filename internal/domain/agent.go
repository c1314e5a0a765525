package domain

// CapabilitySupport marks agents eligible for support-ticket assignment.
const CapabilitySupport = "Support"

// Agent models a staff member eligible for ticket assignment. IdentityID
// references the identity record managed outside this subsystem. Agents
// form an unordered pool; assignment picks among holders of a capability.
type Agent struct {
	Base
	IdentityID   string
	Name         string
	Capabilities []string
}

// HasCapability reports whether the agent holds the named capability grant.
func (a *Agent) HasCapability(name string) bool {
	for _, c := range a.Capabilities {
		if c == name {
			return true
		}
	}
	return false
}
