package core

// Role is the part a resolved table plays in a synthesis run.
type Role int

// Table roles.
const (
	RolePrimary Role = iota
	RoleAttribution
)

// String returns a human readable role name.
func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleAttribution:
		return "attribution"
	default:
		return "unknown"
	}
}

// TableRef is a table resolved for one synthesis run.
type TableRef struct {
	// ID is the synthetic identity, assigned in resolution order starting at 1.
	ID       int
	ObjectID int64
	Schema   string
	Name     string
	Alias    string
	Role     Role
}

// QualifiedName returns schema.name.
func (t TableRef) QualifiedName() string {
	return t.Schema + "." + t.Name
}
