package campaign

import "fmt"

// ContactRole is the outreach role a contact is selected for.
type ContactRole string

const (
	RoleRecruiter     ContactRole = "recruiter"
	RoleHiringManager ContactRole = "hiring_manager"
	RoleWarmIntro     ContactRole = "warm_intro"
)

// AllRoles lists the selectable outreach roles.
func AllRoles() []ContactRole {
	return []ContactRole{RoleRecruiter, RoleHiringManager, RoleWarmIntro}
}

// Contact is a researched person at the target company.
type Contact struct {
	Name      string   `json:"name"`
	Title     string   `json:"title,omitempty"`
	Reason    string   `json:"reason,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	SourceURL string   `json:"source_url,omitempty"`
}

// SelectedContacts maps an outreach role to the contact chosen for it.
type SelectedContacts map[ContactRole]Contact

// Select assigns a contact to a role and returns the updated mapping. A
// contact occupies at most one role at a time: selecting it for a new role
// vacates any role it previously held. The input mapping is not mutated.
func (sc SelectedContacts) Select(role ContactRole, contact Contact) SelectedContacts {
	out := make(SelectedContacts, len(sc)+1)
	for r, c := range sc {
		if c.Name == contact.Name {
			continue
		}
		out[r] = c
	}
	out[role] = contact
	return out
}

// Deselect removes the contact assigned to a role, if any.
func (sc SelectedContacts) Deselect(role ContactRole) SelectedContacts {
	out := make(SelectedContacts, len(sc))
	for r, c := range sc {
		if r == role {
			continue
		}
		out[r] = c
	}
	return out
}

// Validate checks the mapping before it is posted to the backend. At least one
// role must be populated, every role must be known, and no contact may hold
// two roles.
func (sc SelectedContacts) Validate() error {
	if len(sc) == 0 {
		return fmt.Errorf("select at least one contact before confirming")
	}

	known := map[ContactRole]bool{}
	for _, r := range AllRoles() {
		known[r] = true
	}

	seen := map[string]ContactRole{}
	for role, contact := range sc {
		if !known[role] {
			return fmt.Errorf("unknown contact role %q", role)
		}
		if contact.Name == "" {
			return fmt.Errorf("contact for role %q has no name", role)
		}
		if prev, ok := seen[contact.Name]; ok {
			return fmt.Errorf("contact %q assigned to both %q and %q", contact.Name, prev, role)
		}
		seen[contact.Name] = role
	}
	return nil
}
