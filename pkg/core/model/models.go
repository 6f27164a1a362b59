package model

import (
	"strings"
	"unicode"
)

// NotAvailable is written in place of any character stat the API could not provide
const NotAvailable = "N/A"

// TimestampLayout is the format of submission and removal timestamps in the sheet
const TimestampLayout = "01/02/2006 15:04:05"

type Role string

const (
	RoleDPS    Role = "DPS"
	RoleHealer Role = "Healer"
	RoleTank   Role = "Tank"
)

// Roles lists the selectable roles in display order
var Roles = []Role{RoleDPS, RoleHealer, RoleTank}

func (r Role) IsValid() bool {
	return r == RoleDPS || r == RoleHealer || r == RoleTank
}

// Bracket is the key level range a player signs up for
type Bracket string

const (
	BracketHeroics     Bracket = "Heroics (Weathered)"
	BracketZeroToThree Bracket = "0-3 (Carved)"
	BracketFourToSix   Bracket = "4-6 (Runed)"
	BracketSevenToNine Bracket = "7-9 (Gilded)"
	BracketTenToEleven Bracket = "10-11 (Gilded)"
	BracketTwelvePlus  Bracket = "12+ (Gilded)"
)

// Brackets lists the selectable brackets from lowest to highest
var Brackets = []Bracket{
	BracketHeroics,
	BracketZeroToThree,
	BracketFourToSix,
	BracketSevenToNine,
	BracketTenToEleven,
	BracketTwelvePlus,
}

func (b Bracket) IsValid() bool {
	for _, known := range Brackets {
		if b == known {
			return true
		}
	}
	return false
}

// RoleOptions returns the roles as plain strings for choice prompts
func RoleOptions() []string {
	opts := make([]string, len(Roles))
	for i, r := range Roles {
		opts[i] = string(r)
	}
	return opts
}

// BracketOptions returns the brackets as plain strings for choice prompts
func BracketOptions() []string {
	opts := make([]string, len(Brackets))
	for i, b := range Brackets {
		opts[i] = string(b)
	}
	return opts
}

// CharacterStats are the API-derived values refreshed on existing sign-ups
type CharacterStats struct {
	ItemLevel  string
	Rating     string
	HighestKey string
}

// Capitalize upper-cases the first rune of s and lower-cases the rest
func Capitalize(s string) string {
	runes := []rune(strings.ToLower(s))
	if len(runes) == 0 {
		return ""
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
