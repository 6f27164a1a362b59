package db

import "github.com/dndguild/keyevent-bot/pkg/sheetssql"

// Registration is one row of the active sign-up table. Column order is fixed
// by the sheet the event organisers maintain.
type Registration struct {
	Timestamp   string `ssql_header:"Timestamp"`
	Character   string `ssql_header:"Character"`
	Class       string `ssql_header:"Class"`
	DiscordUser string `ssql_header:"Discord User"`
	Realm       string `ssql_header:"Realm"`
	Role        string `ssql_header:"Role"`
	ItemLevel   string `ssql_header:"Item Level"`
	Rating      string `ssql_header:"M+ Rating"`
	HighestKey  string `ssql_header:"Highest Key"`
	KeyRange    string `ssql_header:"Key Range"`
	Reserved    string `ssql_header:"_"`
	Notes       string `ssql_header:"Special Requests"`
}

// RemovedRegistration is the archival copy written when a sign-up is withdrawn
type RemovedRegistration struct {
	Timestamp   string `ssql_header:"Timestamp"`
	Character   string `ssql_header:"Character"`
	Class       string `ssql_header:"Class"`
	DiscordUser string `ssql_header:"Discord User"`
	Realm       string `ssql_header:"Realm"`
	Role        string `ssql_header:"Role"`
}

// RegistrationRow pairs a registration with its position in the store.
// For the sheets store Index is the 0-based data row; for postgres it is the row id.
type RegistrationRow struct {
	Index int
	Registration
}

// IsBlank reports whether the row carries no sign-up
func (r Registration) IsBlank() bool {
	return r.Character == "" && r.DiscordUser == ""
}

// Archive returns the archival copy of a registration stamped with removedAt
func (r Registration) Archive(removedAt string) RemovedRegistration {
	return RemovedRegistration{
		Timestamp:   removedAt,
		Character:   r.Character,
		Class:       r.Class,
		DiscordUser: r.DiscordUser,
		Realm:       r.Realm,
		Role:        r.Role,
	}
}

var (
	registrationSchema = sheetssql.MustTableFromModel("", Registration{})
	removedSchema      = sheetssql.MustTableFromModel("", RemovedRegistration{})
)

// RegistrationHeader returns the header row of a sign-up table
func RegistrationHeader() []interface{} {
	return registrationSchema.HeaderRow()
}

// RemovedHeader returns the header row of the archival table
func RemovedHeader() []interface{} {
	return removedSchema.HeaderRow()
}
