package postgres

import (
	"database/sql"
)

type clubTableModel struct {
	ExternalID int64  `db:"external_id"`
	Name       string `db:"name"`
	ShortName  string `db:"short_name"`
}

type playerTableModel struct {
	ExternalID          int64          `db:"external_id"`
	ClubExternalID      int64          `db:"club_external_id"`
	DisplayName         string         `db:"display_name"`
	FullName            sql.NullString `db:"full_name"`
	Position            string         `db:"position"`
	Price               int            `db:"price"`
	TotalPoints         int            `db:"total_points"`
	Minutes             int            `db:"minutes"`
	PointsPerGame       string         `db:"points_per_game"`
	Status              string         `db:"status"`
	ChanceOfPlayingNext sql.NullInt32  `db:"chance_of_playing_next"`
	ChanceOfPlayingThis sql.NullInt32  `db:"chance_of_playing_this"`
	RawPayload          string         `db:"raw_payload"`
}
