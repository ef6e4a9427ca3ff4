// internal/game/snapshot.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// PlayerState is one seat in a GameState.
type PlayerState struct {
	PlayerID      uuid.UUID `json:"player_id"`
	Name          string    `json:"name"`
	HandSize      int       `json:"hand_size"`
	UnoCalled     bool      `json:"uno_called"`
	IsCurrentTurn bool      `json:"is_current_turn"`
}

// GameState is an operator view of the game. Hands are reduced to their sizes.
type GameState struct {
	GameID      uuid.UUID           `json:"game_id"`
	Ongoing     bool                `json:"ongoing"`
	GameOver    bool                `json:"game_over"`
	Winner      *uuid.UUID          `json:"winner,omitempty"`
	PlayerIndex int                 `json:"player_index"`
	Direction   int                 `json:"direction"`
	DeckSize    int                 `json:"deck_size"`
	PileSize    int                 `json:"pile_size"`
	TopCard     *models.TopCardView `json:"top_card,omitempty"`
	Players     []PlayerState       `json:"players"`
}

// Snapshot returns the current GameState.
func (g *UnoGame) Snapshot() GameState {
	g.Mu.RLock()
	defer g.Mu.RUnlock()

	state := GameState{
		GameID:      g.ID,
		Ongoing:     g.Ongoing,
		GameOver:    g.GameOver,
		PlayerIndex: g.PlayerIndex,
		Direction:   g.Direction,
		DeckSize:    g.Deck.Len(),
		PileSize:    g.Pile.Len(),
		Players:     make([]PlayerState, 0, len(g.Players)),
	}
	if g.Winner != nil {
		id := g.Winner.ID
		state.Winner = &id
	}
	if top, ok := g.Pile.Top(); ok {
		view := top.TopView()
		state.TopCard = &view
	}
	for i, p := range g.Players {
		state.Players = append(state.Players, PlayerState{
			PlayerID:      p.ID,
			Name:          p.Name,
			HandSize:      p.Hand.Len(),
			UnoCalled:     p.UnoCalled,
			IsCurrentTurn: g.Ongoing && i == g.PlayerIndex,
		})
	}
	return state
}
