package models

// RosterEntry is a single slot on a team's roster. Entries for founding
// members have no SoldPrice; auctioned players carry the price they went for.
type RosterEntry struct {
	Name      string     `json:"name"`
	FlatNo    string     `json:"flatNo"`
	Role      PlayerRole `json:"role"`
	Captain   bool       `json:"captain"`
	SoldPrice *int       `json:"soldPrice"`
}

// Team represents a franchise participating in the auction.
type Team struct {
	ID        int           `json:"id"`
	Name      string        `json:"name"`
	ShortName string        `json:"shortName"`
	Color     string        `json:"color"`
	Logo      string        `json:"logo,omitempty"`
	Budget    int           `json:"budget"`
	Players   []RosterEntry `json:"players"`
}
