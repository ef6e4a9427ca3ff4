package game_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckMultiplicities(t *testing.T) {
	deck := game.NewDeck()
	require.Equal(t, game.DeckSize, deck.Len())

	counts := make(map[models.Card]int)
	for _, c := range deck.Cards() {
		counts[c]++
	}
	for _, colour := range models.Colours {
		for _, v := range models.ColourValues {
			want := 2
			if v == models.ValueZero {
				want = 1
			}
			assert.Equal(t, want, counts[models.MustCard(colour, v)], "%s %s", colour, v)
		}
	}
	assert.Equal(t, 4, counts[models.MustCard(models.ColourWild, models.ValueWild)])
	assert.Equal(t, 4, counts[models.MustCard(models.ColourWild, models.ValueDrawFour)])
}

func TestDeckDraw(t *testing.T) {
	t.Run("draws_from_the_end", func(t *testing.T) {
		a := models.MustCard(models.ColourRed, models.ValueOne)
		b := models.MustCard(models.ColourBlue, models.ValueTwo)
		c := models.MustCard(models.ColourGreen, models.ValueSkip)
		deck := game.NewDeckFromCards([]models.Card{a, b, c})

		cards, err := deck.Draw(2)
		require.NoError(t, err)
		assert.Equal(t, []models.Card{c, b}, cards)
		assert.Equal(t, 1, deck.Len())
	})

	t.Run("drawing_everything_exhausts_the_deck", func(t *testing.T) {
		deck := game.NewDeckWithRand(rand.New(rand.NewSource(7)))
		cards, err := deck.Draw(game.DeckSize)
		require.NoError(t, err)
		assert.Len(t, cards, game.DeckSize)
		assert.Equal(t, 0, deck.Len())

		_, err = deck.Draw(1)
		assert.True(t, errors.Is(err, game.ErrDeckEmpty))
	})

	t.Run("short_deck_is_left_untouched", func(t *testing.T) {
		deck := game.NewDeckFromCards([]models.Card{models.MustCard(models.ColourRed, models.ValueOne)})
		_, err := deck.Draw(2)
		assert.ErrorIs(t, err, game.ErrDeckEmpty)
		assert.Equal(t, 1, deck.Len())
	})

	t.Run("zero_draws_nothing", func(t *testing.T) {
		deck := game.NewDeck()
		cards, err := deck.Draw(0)
		require.NoError(t, err)
		assert.Empty(t, cards)
	})
}

func TestEveryCardKindMatches(t *testing.T) {
	for _, c := range game.NewDeck().Cards() {
		assert.Equal(t, c.Colour == models.ColourWild, c.Value.IsWild(), c.String())
	}
}
