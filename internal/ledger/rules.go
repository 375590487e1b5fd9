package ledger

// Rules holds the league-wide auction parameters. The defaults mirror the
// SPL season settings; deployments can override them via the rules file.
type Rules struct {
	RosterCap        int   `yaml:"roster_cap"`
	FoundingMembers  int   `yaml:"founding_members"`
	TeamBudget       int   `yaml:"team_budget"`
	BaseReservePrice int   `yaml:"base_reserve_price"`
	BidSteps         []int `yaml:"bid_steps"`
}

// DefaultRules returns the standard SPL auction rules.
func DefaultRules() Rules {
	return Rules{
		RosterCap:        7,
		FoundingMembers:  3,
		TeamBudget:       3000,
		BaseReservePrice: 200,
		BidSteps:         []int{500, 1000},
	}
}
