package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleIsValid(t *testing.T) {
	assert.True(t, RoleDPS.IsValid())
	assert.True(t, RoleHealer.IsValid())
	assert.True(t, RoleTank.IsValid())
	assert.False(t, Role("").IsValid())
	assert.False(t, Role("dps").IsValid())
}

func TestBracketIsValid(t *testing.T) {
	for _, b := range Brackets {
		assert.True(t, b.IsValid(), string(b))
	}
	assert.False(t, Bracket("").IsValid())
	assert.False(t, Bracket("13+ (Gilded)").IsValid())
}

func TestOptions(t *testing.T) {
	assert.Equal(t, []string{"DPS", "Healer", "Tank"}, RoleOptions())

	brackets := BracketOptions()
	assert.Len(t, brackets, 6)
	assert.Equal(t, "Heroics (Weathered)", brackets[0])
	assert.Equal(t, "12+ (Gilded)", brackets[5])
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Jaina", Capitalize("jAINA"))
	assert.Equal(t, "Élise", Capitalize("élise"))
	assert.Equal(t, "", Capitalize(""))
}
