package memory

import "github.com/riskibarqy/contest-awards/internal/domain/member"

// SeedMembers is the demo roster loaded when the service runs without a
// database.
func SeedMembers() []member.Member {
	return []member.Member{
		{Callsign: "K1AR", FirstName: "Demo", LastName: "One", DuesExpiration: "12/31/2030", Active: true},
		{Callsign: "W1WEF", FirstName: "Demo", LastName: "Two", Aliases: "K1VR", DuesExpiration: "12/31/2030", Active: true},
		{Callsign: "KC1XX", FirstName: "Demo", LastName: "Three", DuesExpiration: "12/31/2023", Active: true},
	}
}
