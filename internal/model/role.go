package model

// Role is a rank in the distribution chain. The order of roleHierarchy is the
// total order: index 0 is the lowest rank.
type Role string

const (
	RolePembeli     Role = "pembeli"
	RoleReseller    Role = "reseller"
	RoleAgen        Role = "agen"
	RoleDistributor Role = "distributor"
	RolePabrik      Role = "pabrik"
)

var roleHierarchy = []Role{RolePembeli, RoleReseller, RoleAgen, RoleDistributor, RolePabrik}

// Rank returns the position of r in the hierarchy, or -1 for an unknown role.
func (r Role) Rank() int {
	for i, role := range roleHierarchy {
		if role == r {
			return i
		}
	}
	return -1
}

func (r Role) Valid() bool { return r.Rank() >= 0 }

// IsTop reports whether r has no rank above it. Top-role accounts may exist without a creator.
func (r Role) IsTop() bool { return r == roleHierarchy[len(roleHierarchy)-1] }

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// CanCreate: a creator may only onboard accounts exactly one rank below itself.
func CanCreate(creator, target Role) bool {
	if !creator.Valid() || !target.Valid() {
		return false
	}
	return target.Rank() == creator.Rank()-1
}

// LowerRoles lists every role strictly below r, lowest first.
func LowerRoles(r Role) []Role {
	rank := r.Rank()
	if rank <= 0 {
		return []Role{}
	}
	lower := make([]Role, rank)
	copy(lower, roleHierarchy[:rank])
	return lower
}

func AllRoles() []Role {
	all := make([]Role, len(roleHierarchy))
	copy(all, roleHierarchy)
	return all
}
