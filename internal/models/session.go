package models

// AuctionSession is the ephemeral state of the live auction. It is never
// persisted; a restart begins with no player on the block.
type AuctionSession struct {
	CurrentPlayer *Player `json:"currentPlayer"`
	CurrentBid    int     `json:"currentBid"`
	// PickedInSession holds ids already surfaced by random pick this round.
	PickedInSession []int `json:"pickedInSession"`
}
