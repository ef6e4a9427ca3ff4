// internal/models/card.go
package models

import (
	"fmt"

	"github.com/fatih/color"
)

// Colour is the colour of a card. Wild cards carry ColourWild until a player picks a colour for them.
type Colour string

const (
	ColourRed    Colour = "red"
	ColourGreen  Colour = "green"
	ColourBlue   Colour = "blue"
	ColourYellow Colour = "yellow"
	ColourWild   Colour = "wild"
)

// Colours lists the four playable colours in deck order.
var Colours = []Colour{ColourRed, ColourGreen, ColourBlue, ColourYellow}

// Value is the face of a card. Colour values and wild values share one type; Card enforces
// that they are only paired with the right colour.
type Value string

const (
	ValueZero    Value = "0"
	ValueOne     Value = "1"
	ValueTwo     Value = "2"
	ValueThree   Value = "3"
	ValueFour    Value = "4"
	ValueFive    Value = "5"
	ValueSix     Value = "6"
	ValueSeven   Value = "7"
	ValueEight   Value = "8"
	ValueNine    Value = "9"
	ValueDrawTwo Value = "Draw 2"
	ValueSkip    Value = "Skip"
	ValueReverse Value = "Reverse"

	ValueWild     Value = "Wild"
	ValueDrawFour Value = "Draw 4"
)

// ColourValues are the values printed on red, green, blue and yellow cards.
var ColourValues = []Value{
	ValueZero, ValueOne, ValueTwo, ValueThree, ValueFour,
	ValueFive, ValueSix, ValueSeven, ValueEight, ValueNine,
	ValueDrawTwo, ValueSkip, ValueReverse,
}

// WildValues are the values printed on wild cards.
var WildValues = []Value{ValueWild, ValueDrawFour}

// ParseColour validates a wire colour string.
func ParseColour(s string) (Colour, error) {
	c := Colour(s)
	switch c {
	case ColourRed, ColourGreen, ColourBlue, ColourYellow, ColourWild:
		return c, nil
	}
	return "", fmt.Errorf("unknown colour %q", s)
}

// IsWild reports whether v belongs to the wild value set.
func (v Value) IsWild() bool {
	return v == ValueWild || v == ValueDrawFour
}

func (v Value) valid() bool {
	if v.IsWild() {
		return true
	}
	for _, cv := range ColourValues {
		if cv == v {
			return true
		}
	}
	return false
}

// Card is an immutable colour/value pair. Two cards with the same colour and value are
// interchangeable. WildColour is only ever set on a wild card, and only to a non-wild colour.
type Card struct {
	Colour     Colour
	Value      Value
	WildColour Colour
}

// NewCard builds a card, rejecting a colour value on a wild card or a wild value on a coloured one.
func NewCard(c Colour, v Value) (Card, error) {
	if !v.valid() {
		return Card{}, fmt.Errorf("unknown value %q", v)
	}
	if _, err := ParseColour(string(c)); err != nil {
		return Card{}, err
	}
	if (c == ColourWild) != v.IsWild() {
		return Card{}, fmt.Errorf("value %q cannot be paired with colour %q", v, c)
	}
	return Card{Colour: c, Value: v}, nil
}

// MustCard is NewCard for static card literals.
func MustCard(c Colour, v Value) Card {
	card, err := NewCard(c, v)
	if err != nil {
		panic(err)
	}
	return card
}

// IsWild reports whether the card is one of the wild cards.
func (c Card) IsWild() bool {
	return c.Colour == ColourWild
}

// EffectiveColour is the colour the next card has to match: the chosen colour for a
// wild card (empty if none was chosen), the printed colour otherwise.
func (c Card) EffectiveColour() Colour {
	if c.IsWild() {
		return c.WildColour
	}
	return c.Colour
}

// Same compares colour and value, ignoring any chosen wild colour.
func (c Card) Same(other Card) bool {
	return c.Colour == other.Colour && c.Value == other.Value
}

func (c Card) String() string {
	if c.IsWild() {
		if c.WildColour != "" {
			return fmt.Sprintf("%s (%s)", c.Value, c.WildColour)
		}
		return string(c.Value)
	}
	return fmt.Sprintf("%s %s", c.Colour, c.Value)
}

var painters = map[Colour]*color.Color{
	ColourRed:    color.New(color.FgHiRed),
	ColourGreen:  color.New(color.FgHiGreen),
	ColourBlue:   color.New(color.FgHiCyan),
	ColourYellow: color.New(color.FgHiYellow),
	ColourWild:   color.New(color.FgHiMagenta),
}

// Pretty renders the card with terminal colours for the server console.
func (c Card) Pretty() string {
	p, ok := painters[c.EffectiveColour()]
	if !ok {
		p = painters[ColourWild]
	}
	return p.Sprint(c.String())
}

// CardView is the wire form of a card: {"value": ..., "colour": ...}.
type CardView struct {
	Value  Value  `json:"value"`
	Colour Colour `json:"colour"`
}

// TopCardView is the wire form of the top of the pile, which also reports the chosen wild colour.
type TopCardView struct {
	Value      Value   `json:"value"`
	Colour     Colour  `json:"colour"`
	WildColour *Colour `json:"wild_colour"`
}

// View converts a card to its wire form.
func (c Card) View() CardView {
	return CardView{Value: c.Value, Colour: c.Colour}
}

// TopView converts a card to its top-of-pile wire form.
func (c Card) TopView() TopCardView {
	v := TopCardView{Value: c.Value, Colour: c.Colour}
	if c.WildColour != "" {
		wc := c.WildColour
		v.WildColour = &wc
	}
	return v
}

// Views converts a slice of cards to wire form.
func Views(cards []Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		out[i] = c.View()
	}
	return out
}
