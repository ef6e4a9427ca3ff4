// internal/game/events.go
package game

import (
	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// GameEventType is the wire "type" of a server-push message.
type GameEventType string

const (
	EventGameStart GameEventType = "game_start" // full snapshot sent once on start
	EventBroadcast GameEventType = "broadcast"  // partial update; clients apply the fields present
)

// EventPlayer identifies a seat in an event.
type EventPlayer struct {
	Index int       `json:"index"`
	ID    uuid.UUID `json:"uuid"`
	Name  string    `json:"name,omitempty"`
}

// StartPlayer is one entry of the game_start snapshot.
type StartPlayer struct {
	Hand  []models.CardView `json:"hand"`
	Index int               `json:"index"`
	Name  string            `json:"name"`
}

// GameOverInfo announces the winner.
type GameOverInfo struct {
	Winner EventPlayer `json:"winner"`
}

// GameEvent is a message the engine wants delivered to every connected client.
// Only the fields relevant to the event are set.
type GameEvent struct {
	Type GameEventType `json:"type"`

	Players       map[uuid.UUID]StartPlayer `json:"players,omitempty"`
	CurrentPlayer *EventPlayer              `json:"current_player,omitempty"`
	TopCard       *models.TopCardView       `json:"top_card,omitempty"`

	// PlayerID and Cards form a hand update for one player.
	PlayerID *uuid.UUID         `json:"uuid,omitempty"`
	Cards    *[]models.CardView `json:"cards,omitempty"`

	CardCounts map[uuid.UUID]int `json:"card_counts,omitempty"`
	GameOver   *GameOverInfo     `json:"game_over,omitempty"`
}

// currentPlayerEvent announces whose turn it is. Assumes lock is held.
func (g *UnoGame) currentPlayerEvent() GameEvent {
	cur := g.Players[g.PlayerIndex]
	return GameEvent{
		Type:          EventBroadcast,
		CurrentPlayer: &EventPlayer{Index: g.PlayerIndex, ID: cur.ID},
	}
}

// topCardEvent announces the new top of the pile.
func topCardEvent(card models.Card) GameEvent {
	view := card.TopView()
	return GameEvent{Type: EventBroadcast, TopCard: &view}
}

// handEvent carries one player's full hand. Assumes lock is held.
func handEvent(p *Player) GameEvent {
	id := p.ID
	cards := models.Views(p.Hand.Cards())
	return GameEvent{Type: EventBroadcast, PlayerID: &id, Cards: &cards}
}

// cardCountsEvent carries every player's hand size. Assumes lock is held.
func (g *UnoGame) cardCountsEvent() GameEvent {
	counts := make(map[uuid.UUID]int, len(g.Players))
	for _, p := range g.Players {
		counts[p.ID] = p.Hand.Len()
	}
	return GameEvent{Type: EventBroadcast, CardCounts: counts}
}

// gameStartEvent is the full snapshot sent on start. Assumes lock is held.
func (g *UnoGame) gameStartEvent() GameEvent {
	players := make(map[uuid.UUID]StartPlayer, len(g.Players))
	for i, p := range g.Players {
		players[p.ID] = StartPlayer{
			Hand:  models.Views(p.Hand.Cards()),
			Index: i,
			Name:  p.Name,
		}
	}
	ev := g.currentPlayerEvent()
	ev.Type = EventGameStart
	ev.Players = players
	if top, ok := g.Pile.Top(); ok {
		view := top.TopView()
		ev.TopCard = &view
	}
	return ev
}
