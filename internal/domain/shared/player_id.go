package shared

import "fmt"

// PlayerID is the value object for a player's stable integer identifier
type PlayerID struct {
	value int
}

// NewPlayerID creates a PlayerID, rejecting non-positive values
func NewPlayerID(id int) (PlayerID, error) {
	if id <= 0 {
		return PlayerID{}, fmt.Errorf("player_id must be positive")
	}
	return PlayerID{value: id}, nil
}

// MustNewPlayerID creates a PlayerID and panics on invalid input. Use only for
// values already validated, e.g. read back from the database.
func MustNewPlayerID(id int) PlayerID {
	playerID, err := NewPlayerID(id)
	if err != nil {
		panic(err)
	}
	return playerID
}

func (p PlayerID) Value() int { return p.value }

func (p PlayerID) String() string {
	return fmt.Sprintf("%d", p.value)
}

func (p PlayerID) Equals(other PlayerID) bool {
	return p.value == other.value
}

func (p PlayerID) IsZero() bool {
	return p.value == 0
}
