package player

import "context"

// PlayerRepository persists registered agents
type PlayerRepository interface {
	FindByID(ctx context.Context, playerID int) (*Player, error)
	FindByAgentSymbol(ctx context.Context, agentSymbol string) (*Player, error)
	ListAll(ctx context.Context) ([]*Player, error)
	Add(ctx context.Context, player *Player) error
	UpdateCredits(ctx context.Context, playerID int, credits int64) error
	TouchLastActive(ctx context.Context, playerID int) error
}

// AgentData is the registration reply from the remote API
type AgentData struct {
	AccountID       string
	Symbol          string
	Headquarters    string
	Credits         int64
	StartingFaction string
	Token           string
}
