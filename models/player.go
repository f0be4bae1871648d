package models

import "time"

// Sex matches the ENUM used by the players table.
type Sex string

const (
	SexMale   Sex = "m"
	SexFemale Sex = "f"
)

func (s Sex) Valid() bool {
	return s == SexMale || s == SexFemale
}

type PlayerStatus string

const (
	PlayerStatusActive    PlayerStatus = "active"
	PlayerStatusSuspended PlayerStatus = "suspended"
)

type Player struct {
	ID        int          `json:"id" db:"id"`
	FirstName string       `json:"first_name" db:"first_name"`
	LastName  string       `json:"last_name" db:"last_name"`
	Sex       Sex          `json:"sex" db:"sex"`
	Country   string       `json:"country" db:"country"`
	BirthYear int          `json:"birth_year" db:"birth_year"`
	Status    PlayerStatus `json:"status" db:"status"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

func (p *Player) FullName() string {
	return p.FirstName + " " + p.LastName
}
