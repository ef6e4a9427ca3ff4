// internal/game/deck.go
package game

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jason-s-yu/uno/internal/models"
)

// DeckSize is the number of cards in a fresh deck.
const DeckSize = 108

// Deck is the draw pile. Cards are drawn from the end of the slice.
type Deck struct {
	cards []models.Card
}

// NewDeck returns a full, shuffled 108-card deck.
func NewDeck() *Deck {
	return NewDeckWithRand(rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewDeckWithRand builds a full deck shuffled with r, so tests can fix the order.
func NewDeckWithRand(r *rand.Rand) *Deck {
	d := &Deck{cards: standardCards()}
	r.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// NewDeckFromCards builds an unshuffled deck; the last card is drawn first.
func NewDeckFromCards(cards []models.Card) *Deck {
	d := &Deck{cards: make([]models.Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// standardCards lists one 0 and two of every other colour value per colour, then four of
// each wild value.
func standardCards() []models.Card {
	cards := make([]models.Card, 0, DeckSize)
	for _, c := range models.Colours {
		for _, v := range models.ColourValues {
			cards = append(cards, models.MustCard(c, v))
			if v != models.ValueZero {
				cards = append(cards, models.MustCard(c, v))
			}
		}
	}
	for _, v := range models.WildValues {
		for i := 0; i < 4; i++ {
			cards = append(cards, models.MustCard(models.ColourWild, v))
		}
	}
	return cards
}

// Len is the number of cards left.
func (d *Deck) Len() int {
	return len(d.cards)
}

// Draw removes n cards from the end of the deck. It fails without touching the deck
// when fewer than n cards remain.
func (d *Deck) Draw(n int) ([]models.Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("cannot draw %d cards", n)
	}
	if n > len(d.cards) {
		return nil, fmt.Errorf("%w: want %d, have %d", ErrDeckEmpty, n, len(d.cards))
	}
	drawn := make([]models.Card, n)
	for i := 0; i < n; i++ {
		drawn[i] = d.cards[len(d.cards)-1-i]
	}
	d.cards = d.cards[:len(d.cards)-n]
	return drawn, nil
}

// Cards returns a copy of the remaining cards.
func (d *Deck) Cards() []models.Card {
	out := make([]models.Card, len(d.cards))
	copy(out, d.cards)
	return out
}
