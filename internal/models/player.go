package models

// PlayerRole defines the playing role of a player.
type PlayerRole string

const (
	RoleBatsman      PlayerRole = "Batsman"
	RoleBowler       PlayerRole = "Bowler"
	RoleAllRounder   PlayerRole = "All-rounder"
	RoleWicketkeeper PlayerRole = "Wicketkeeper"
)

// PlayerStatus defines the auction status of a player.
type PlayerStatus string

const (
	PlayerStatusAvailable PlayerStatus = "available"
	PlayerStatusSold      PlayerStatus = "sold"
	PlayerStatusUnsold    PlayerStatus = "unsold"
)

// Player represents a registered player in the auction catalog.
// SoldTo and SoldPrice are both nil or both set, consistently with Status.
type Player struct {
	ID           int          `json:"id"`
	Name         string       `json:"name"`
	FlatNo       string       `json:"flatNo"`
	Role         PlayerRole   `json:"role"`
	BattingStyle string       `json:"battingStyle"`
	BowlingStyle string       `json:"bowlingStyle"`
	BasePrice    int          `json:"basePrice"`
	Photo        string       `json:"photo,omitempty"`
	Status       PlayerStatus `json:"status"`
	SoldTo       *int         `json:"soldTo"`
	SoldPrice    *int         `json:"soldPrice"`
}

// Eligible reports whether the player can be put up for auction.
// Unsold players remain eligible for re-auction.
func (p *Player) Eligible() bool {
	return p.Status == PlayerStatusAvailable || p.Status == PlayerStatusUnsold
}
