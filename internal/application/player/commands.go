package player

import "github.com/andrescamacho/fleetd/internal/domain/player"

// RegisterPlayerCommand registers a new agent. When Token is empty the
// agent is created at the remote API with the given faction; otherwise the
// provided token is verified and stored as-is.
type RegisterPlayerCommand struct {
	AgentSymbol string
	Faction     string
	Token       string
}

// RegisterPlayerResponse carries the persisted player record
type RegisterPlayerResponse struct {
	Player *player.Player
}

// SyncPlayerCommand refreshes a player's credits and metadata from the API
type SyncPlayerCommand struct {
	PlayerID int
}

// SyncPlayerResponse reports the refreshed record
type SyncPlayerResponse struct {
	Player  *player.Player
	Updated bool
}
