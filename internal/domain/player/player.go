package player

import "time"

// Player is one registered agent at the remote service. The token is the
// opaque API credential issued at registration; it never changes and must
// not leak into logs or protocol replies.
type Player struct {
	ID          int
	AgentSymbol string
	Token       string
	Credits     int64
	CreatedAt   time.Time
	LastActive  time.Time
	Metadata    map[string]interface{}
}

// NewPlayer creates a player record for a freshly registered agent
func NewPlayer(agentSymbol, token string, credits int64) *Player {
	return &Player{
		AgentSymbol: agentSymbol,
		Token:       token,
		Credits:     credits,
		Metadata:    make(map[string]interface{}),
	}
}

// UpdateCredits records the latest credits figure from the API
func (p *Player) UpdateCredits(credits int64) {
	p.Credits = credits
}

// Touch records activity for the last-active column
func (p *Player) Touch(now time.Time) {
	p.LastActive = now
}
