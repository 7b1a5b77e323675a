package roles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		role ID
		rank Rank
		ok   bool
	}{
		{Superadmin, RankSuperadmin, true},
		{Admin, RankAdmin, true},
		{Member, RankMember, true},
		{ID("coordinator"), 0, false},
		{ID(""), 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			rank, ok := reg.Rank(tt.role)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.rank, rank)
			}
		})
	}
}

func TestIsAtLeast(t *testing.T) {
	reg := NewRegistry()

	tests := []struct {
		name     string
		role     ID
		required ID
		want     bool
	}{
		{"superadmin meets admin", Superadmin, Admin, true},
		{"superadmin meets member", Superadmin, Member, true},
		{"superadmin meets superadmin", Superadmin, Superadmin, true},
		{"admin meets admin", Admin, Admin, true},
		{"admin meets member", Admin, Member, true},
		{"admin does not meet superadmin", Admin, Superadmin, false},
		{"member does not meet admin", Member, Admin, false},
		{"unknown role never qualifies", ID("owner"), Member, false},
		{"unknown requirement never satisfied", Superadmin, ID("owner"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reg.IsAtLeast(tt.role, tt.required))
		})
	}
}

func TestTop(t *testing.T) {
	reg := NewRegistry()

	assert.True(t, reg.Top(Superadmin))
	assert.False(t, reg.Top(Admin))
	assert.False(t, reg.Top(Member))
	assert.False(t, reg.Top(ID("owner")))
}

func TestAll(t *testing.T) {
	reg := NewRegistry()

	all := reg.All()
	require.Len(t, all, 3)
	assert.Equal(t, []ID{Superadmin, Admin, Member}, all)
}

func TestKnown(t *testing.T) {
	reg := NewRegistry()

	assert.True(t, reg.Known(Admin))
	assert.False(t, reg.Known(ID("viewer")))
}
