package roles

// ID identifies a role. Role IDs are stable strings stored on membership rows.
type ID string

const (
	Superadmin ID = "superadmin"
	Admin      ID = "admin"
	Member     ID = "member"
)

// Rank is the ordinal privilege level of a role. Lower is more privileged.
type Rank int

const (
	RankSuperadmin Rank = 1
	RankAdmin      Rank = 2
	RankMember     Rank = 3
)

// Registry maps role IDs to ranks. It is immutable after construction and
// safe for concurrent use.
type Registry struct {
	ranks map[ID]Rank
}

// NewRegistry returns a registry with the built-in role set.
func NewRegistry() *Registry {
	return &Registry{
		ranks: map[ID]Rank{
			Superadmin: RankSuperadmin,
			Admin:      RankAdmin,
			Member:     RankMember,
		},
	}
}

// Rank returns the rank of the given role. ok is false for unknown roles.
func (r *Registry) Rank(id ID) (Rank, bool) {
	rank, ok := r.ranks[id]
	return rank, ok
}

// Known reports whether id is a registered role.
func (r *Registry) Known(id ID) bool {
	_, ok := r.ranks[id]
	return ok
}

// IsAtLeast reports whether role carries the privileges of required, i.e.
// its rank is equal to or more privileged than required's rank. Unknown
// roles never satisfy any requirement.
func (r *Registry) IsAtLeast(role, required ID) bool {
	roleRank, ok := r.ranks[role]
	if !ok {
		return false
	}
	requiredRank, ok := r.ranks[required]
	if !ok {
		return false
	}
	return roleRank <= requiredRank
}

// Top reports whether role is the highest-privilege role in the registry.
func (r *Registry) Top(role ID) bool {
	rank, ok := r.ranks[role]
	if !ok {
		return false
	}
	for _, other := range r.ranks {
		if other < rank {
			return false
		}
	}
	return true
}

// All returns the registered role IDs ordered from most to least privileged.
func (r *Registry) All() []ID {
	out := make([]ID, 0, len(r.ranks))
	for id := range r.ranks {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && r.ranks[out[j]] < r.ranks[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
