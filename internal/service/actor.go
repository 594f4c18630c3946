package service

type Role string

const (
	RoleBuyer  Role = "buyer"
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
	// RoleSystem marks internally-triggered mutations such as the penalty
	// sweep; it bypasses per-role checks but is still audited.
	RoleSystem Role = "system"
)

// Actor identifies who is asking for a mutation.
type Actor struct {
	UID  string
	Role Role
}

func SystemActor() Actor {
	return Actor{UID: "system", Role: RoleSystem}
}
