// internal/game/player.go
package game

import (
	"github.com/google/uuid"
)

// Player is a seat in the game.
type Player struct {
	ID   uuid.UUID
	Name string
	Hand *Hand

	// UnoCalled is set by calling uno with one card left and cleared whenever the hand changes.
	UnoCalled bool
}

// NewPlayer creates a player with a fresh id around an already dealt hand.
func NewPlayer(name string, hand *Hand) *Player {
	return &Player{
		ID:   uuid.New(),
		Name: name,
		Hand: hand,
	}
}
