package members

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChildRef(t *testing.T) {
	ref, ok := ParseChildRef("@masha")
	assert.True(t, ok)
	assert.Equal(t, ChildRef{Username: "masha"}, ref)

	ref, ok = ParseChildRef(" 12345 ")
	assert.True(t, ok)
	assert.Equal(t, ChildRef{UserID: 12345}, ref)

	ref, ok = ParseChildRef("petya")
	assert.True(t, ok)
	assert.Equal(t, ChildRef{Username: "petya"}, ref)

	_, ok = ParseChildRef("@")
	assert.False(t, ok)
	_, ok = ParseChildRef("  ")
	assert.False(t, ok)
}

func TestMember_DisplayNameAndRole(t *testing.T) {
	child := RoleChild
	m := &Member{UserID: 5, FirstName: "Маша", LastName: "Иванова", Role: &child}
	assert.Equal(t, "Маша Иванова", m.DisplayName())
	assert.True(t, m.IsChild())

	m.Username = "masha"
	assert.Equal(t, "@masha", m.DisplayName())

	assert.Equal(t, "7", (&Member{UserID: 7}).DisplayName())
	assert.False(t, (&Member{}).IsChild())
}

func TestService_IsGuardian(t *testing.T) {
	s := NewService(nil, []int64{11, 22})
	assert.True(t, s.IsGuardian(11))
	assert.False(t, s.IsGuardian(33))
}

func TestFormatChildren(t *testing.T) {
	assert.Contains(t, FormatChildren(nil), "Детей пока нет")

	out := FormatChildren([]*Member{{UserID: 1, Username: "masha"}, {UserID: 2, FirstName: "Петя"}})
	assert.Contains(t, out, "1. @masha (id 1)")
	assert.Contains(t, out, "2. Петя (id 2)")
}
