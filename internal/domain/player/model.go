package player

import (
	"fmt"
	"strings"
)

// Position represents the fantasy position category of a player.
type Position string

const (
	PositionGoalkeeper Position = "GK"
	PositionDefender   Position = "DEF"
	PositionMidfielder Position = "MID"
	PositionForward    Position = "FWD"
)

var validPositions = map[Position]struct{}{
	PositionGoalkeeper: {},
	PositionDefender:   {},
	PositionMidfielder: {},
	PositionForward:    {},
}

// PositionFromElementType maps the upstream element_type code.
func PositionFromElementType(elementType int) (Position, bool) {
	switch elementType {
	case 1:
		return PositionGoalkeeper, true
	case 2:
		return PositionDefender, true
	case 3:
		return PositionMidfielder, true
	case 4:
		return PositionForward, true
	default:
		return "", false
	}
}

// Club is a real-world football club.
type Club struct {
	ExternalID int64
	Name       string
	ShortName  string
}

// Player is a mirrored upstream player record. Price is in tenths of a
// million; Stats is decoded from RawPayload at sync time.
type Player struct {
	ExternalID     int64
	ClubExternalID int64
	DisplayName    string
	FullName       *string
	Position       Position
	Price          int
	Stats          Stats
	RawPayload     []byte
}

// Stats are the upstream fields the derived metrics read.
type Stats struct {
	TotalPoints         int
	Minutes             int
	PointsPerGame       string
	Status              string
	ChanceOfPlayingNext *int
	ChanceOfPlayingThis *int
}

// Validate checks the fields every mirrored player must carry.
func (p Player) Validate() error {
	if p.ExternalID <= 0 {
		return fmt.Errorf("player external id is required")
	}
	if p.ClubExternalID <= 0 {
		return fmt.Errorf("player club external id is required")
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return fmt.Errorf("player display name is required")
	}
	if _, ok := validPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if p.Price < 0 {
		return fmt.Errorf("player price must not be negative")
	}
	return nil
}

// JoinFullName joins first and second names, collapsing whitespace.
// It returns nil when nothing is left.
func JoinFullName(first, second string) *string {
	joined := strings.Join(strings.Fields(first+" "+second), " ")
	if joined == "" {
		return nil
	}
	return &joined
}
