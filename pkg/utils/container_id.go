package utils

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateContainerID builds a readable container ID of the form
// {operation}-{ship}-{8-char hex}, e.g. "navigate-SCOUT-1-a3f8e2b1".
// The agent prefix is stripped from the ship symbol to keep IDs short.
func GenerateContainerID(operation, shipSymbol string) string {
	return operation + "-" + stripAgentPrefix(shipSymbol) + "-" + shortUUID()
}

// stripAgentPrefix keeps the last two hyphen-separated segments of a ship
// symbol. Ship symbols look like {AGENT}-{TYPE}-{NUMBER} where the agent
// part may itself contain hyphens.
func stripAgentPrefix(shipSymbol string) string {
	parts := strings.Split(shipSymbol, "-")
	if len(parts) <= 2 {
		return shipSymbol
	}
	return strings.Join(parts[len(parts)-2:], "-")
}

func shortUUID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")[:8]
}
