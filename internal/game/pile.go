// internal/game/pile.go
package game

import (
	"github.com/jason-s-yu/uno/internal/models"
)

// Pile is the discard stack. Only the top card matters for legality.
type Pile struct {
	cards []models.Card
}

func NewPile(cards ...models.Card) *Pile {
	p := &Pile{cards: make([]models.Card, 0, DeckSize)}
	p.cards = append(p.cards, cards...)
	return p
}

// Top returns the last played card, or false when the pile is empty.
func (p *Pile) Top() (models.Card, bool) {
	if len(p.cards) == 0 {
		return models.Card{}, false
	}
	return p.cards[len(p.cards)-1], true
}

// IsValid reports whether card may be played on the current top card.
func (p *Pile) IsValid(card models.Card) bool {
	top, ok := p.Top()
	if !ok {
		return true
	}
	if card.IsWild() {
		return true
	}
	if card.Colour == top.EffectiveColour() {
		return true
	}
	if top.IsWild() {
		return false
	}
	return card.Value == top.Value
}

// Play appends card if it is legal and returns ErrInvalidPlay otherwise.
func (p *Pile) Play(card models.Card) error {
	if !p.IsValid(card) {
		return ErrInvalidPlay
	}
	p.cards = append(p.cards, card)
	return nil
}

func (p *Pile) Len() int {
	return len(p.cards)
}

// Cards returns a copy of the pile, bottom first.
func (p *Pile) Cards() []models.Card {
	out := make([]models.Card, len(p.cards))
	copy(out, p.cards)
	return out
}
