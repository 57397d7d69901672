package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/contest-awards/internal/domain/member"
)

type memberTableModel struct {
	Callsign       string         `db:"callsign"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	Aliases        sql.NullString `db:"aliases"`
	DuesExpiration sql.NullString `db:"dues_expiration"`
	Active         bool           `db:"active"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type memberInsertModel struct {
	Callsign       string         `db:"callsign"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	Aliases        sql.NullString `db:"aliases"`
	DuesExpiration sql.NullString `db:"dues_expiration"`
	Active         bool           `db:"active"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (m memberTableModel) toDomain() member.Member {
	return member.Member{
		Callsign:       m.Callsign,
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		Aliases:        m.Aliases.String,
		DuesExpiration: m.DuesExpiration.String,
		Active:         m.Active,
		UpdatedAt:      m.UpdatedAt,
	}
}

func memberInsertFromDomain(item member.Member) memberInsertModel {
	return memberInsertModel{
		Callsign:       normalizeCallsign(item.Callsign),
		FirstName:      item.FirstName,
		LastName:       item.LastName,
		Aliases:        nullString(item.Aliases),
		DuesExpiration: nullString(item.DuesExpiration),
		Active:         item.Active,
		UpdatedAt:      item.UpdatedAt,
	}
}
