// internal/game/hand.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/uno/internal/models"
)

// Hand is the ordered set of cards held by one player. Cards are addressed by index.
type Hand struct {
	cards []models.Card
}

func NewHand(cards ...models.Card) *Hand {
	h := &Hand{cards: make([]models.Card, 0, 7)}
	h.cards = append(h.cards, cards...)
	return h
}

// Add appends cards without any validation.
func (h *Hand) Add(cards ...models.Card) {
	h.cards = append(h.cards, cards...)
}

// Play moves the card at index onto pile. The pile is asked first so that a rejected play
// leaves the hand untouched.
func (h *Hand) Play(index int, pile *Pile) (models.Card, error) {
	card, err := h.At(index)
	if err != nil {
		return models.Card{}, err
	}
	if err := pile.Play(card); err != nil {
		return models.Card{}, err
	}
	h.cards = append(h.cards[:index], h.cards[index+1:]...)
	return card, nil
}

// At returns the card at index.
func (h *Hand) At(index int) (models.Card, error) {
	if index < 0 || index >= len(h.cards) {
		return models.Card{}, fmt.Errorf("%w %d", ErrIndexOutOfRange, index)
	}
	return h.cards[index], nil
}

// SetWildColour records the colour chosen for the wild card at index.
func (h *Hand) SetWildColour(index int, colour models.Colour) error {
	card, err := h.At(index)
	if err != nil {
		return err
	}
	if !card.IsWild() {
		return ErrNotWildCard
	}
	h.cards[index].WildColour = colour
	return nil
}

func (h *Hand) Len() int {
	return len(h.cards)
}

func (h *Hand) Empty() bool {
	return len(h.cards) == 0
}

// Cards returns a copy of the hand.
func (h *Hand) Cards() []models.Card {
	out := make([]models.Card, len(h.cards))
	copy(out, h.cards)
	return out
}
