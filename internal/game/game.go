// internal/game/game.go
package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// ActionPublisher receives a record of every accepted action, e.g. the Redis historian queue.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, record cache.GameActionRecord) error
}

// OnGameEndFunc is invoked once, with the lock held, when a player empties their hand.
// finalCounts maps every seated player to the cards left in their hand.
type OnGameEndFunc func(gameID uuid.UUID, winner *Player, finalCounts map[uuid.UUID]int)

// UnoGame holds the entire state for the single game served by the process.
//
// Every mutating method takes the write lock and returns the events the change produced;
// delivering them is the caller's job. Queries take the read lock.
type UnoGame struct {
	ID         uuid.UUID
	HouseRules HouseRules

	Deck    *Deck
	Pile    *Pile
	Players []*Player

	// Turn logic
	PlayerIndex int
	Direction   int

	Ongoing  bool
	GameOver bool
	Winner   *Player

	Mu sync.RWMutex

	Logger    logrus.FieldLogger
	Actions   ActionPublisher
	OnGameEnd OnGameEndFunc

	actionIndex int
}

// NewUnoGame builds a lobby with a freshly shuffled deck and the default rules.
func NewUnoGame() *UnoGame {
	return NewUnoGameWithDeck(DefaultHouseRules(), NewDeck())
}

// NewUnoGameWithDeck builds a lobby around deck. The first card of the pile is drawn from it.
func NewUnoGameWithDeck(rules HouseRules, deck *Deck) *UnoGame {
	g := &UnoGame{
		ID:         uuid.New(),
		HouseRules: rules,
		Deck:       deck,
		Pile:       NewPile(),
		Direction:  1,
		Logger:     logrus.StandardLogger(),
	}
	if first, err := deck.Draw(1); err == nil {
		g.Pile = NewPile(first...)
	}
	return g
}

func (g *UnoGame) log() logrus.FieldLogger {
	return g.Logger.WithField("game", g.ID)
}

// Join seats a new player with a freshly dealt hand and returns their id.
func (g *UnoGame) Join(name string) (uuid.UUID, []GameEvent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, nil, ErrInvalidName
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Ongoing || g.GameOver {
		return uuid.Nil, nil, ErrGameAlreadyStarted
	}
	if len(g.Players) >= g.HouseRules.MaxPlayers {
		return uuid.Nil, nil, ErrGameFull
	}
	cards, err := g.Deck.Draw(g.HouseRules.HandSize)
	if err != nil {
		return uuid.Nil, nil, err
	}
	p := NewPlayer(name, NewHand(cards...))
	g.Players = append(g.Players, p)

	g.log().WithFields(logrus.Fields{"player": p.ID, "name": name, "seat": len(g.Players) - 1}).Info("player joined")
	g.logAction(p.ID, "player_join", map[string]interface{}{"name": name})
	return p.ID, nil, nil
}

// Leave removes a player. While a game is running the turn pointer keeps pointing at the
// same player, or at the next one in the current direction if the current player left.
func (g *UnoGame) Leave(id uuid.UUID) ([]GameEvent, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	idx := g.indexOf(id)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	g.Players = append(g.Players[:idx], g.Players[idx+1:]...)

	if len(g.Players) == 0 {
		g.PlayerIndex = 0
	} else {
		if idx < g.PlayerIndex || (idx == g.PlayerIndex && g.Direction < 0) {
			g.PlayerIndex--
		}
		g.PlayerIndex = mod(g.PlayerIndex, len(g.Players))
	}

	g.log().WithFields(logrus.Fields{"player": id, "seat": idx}).Info("player left")
	g.logAction(id, "player_leave", map[string]interface{}{"seat": idx})

	if !g.Ongoing || len(g.Players) == 0 {
		return nil, nil
	}
	return []GameEvent{g.currentPlayerEvent(), g.cardCountsEvent()}, nil
}

// Start moves the lobby into play and emits the game_start snapshot. A second call fails
// with ErrAlreadyStarted and changes nothing.
func (g *UnoGame) Start() ([]GameEvent, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if g.Ongoing || g.GameOver {
		return nil, ErrAlreadyStarted
	}
	if len(g.Players) < g.HouseRules.MinPlayers {
		return nil, ErrNotEnoughPlayers
	}
	g.Ongoing = true

	top, _ := g.Pile.Top()
	g.log().WithFields(logrus.Fields{"players": len(g.Players), "top": top.Pretty()}).Info("game started")
	g.logAction(uuid.Nil, "game_start", map[string]interface{}{"players": len(g.Players)})
	return []GameEvent{g.gameStartEvent()}, nil
}

// Play plays the card at index for player id. A nil index draws one card instead.
func (g *UnoGame) Play(id uuid.UUID, index *int) ([]GameEvent, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	_, events, err := g.play(id, index)
	return events, err
}

// Draw gives the current player one card and passes the turn. The drawn card is returned.
func (g *UnoGame) Draw(id uuid.UUID) (models.Card, []GameEvent, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	drawn, events, err := g.play(id, nil)
	if err != nil {
		return models.Card{}, nil, err
	}
	return *drawn, events, nil
}

// play is the rules state machine for one turn. Assumes lock is held.
func (g *UnoGame) play(id uuid.UUID, index *int) (*models.Card, []GameEvent, error) {
	p, err := g.turnHolder(id)
	if err != nil {
		return nil, nil, err
	}

	if index == nil {
		drawn, events, err := g.givePlayer(p, 1)
		if err != nil {
			return nil, nil, err
		}
		events = append(events, g.increment())
		g.log().WithFields(logrus.Fields{"player": p.ID}).Debug("player drew")
		g.logAction(p.ID, "action_draw", nil)
		return &drawn[0], events, nil
	}

	card, err := p.Hand.At(*index)
	if err != nil {
		return nil, nil, err
	}
	if card.IsWild() && card.WildColour == "" {
		return nil, nil, ErrWildColourNotSet
	}
	if !g.Pile.IsValid(card) {
		return nil, nil, ErrInvalidPlay
	}
	// The penalty draw must not fail halfway through the turn.
	if n := penaltyFor(card.Value); n > 0 && p.Hand.Len() > 1 && g.Deck.Len() < n {
		return nil, nil, ErrDeckEmpty
	}

	played, err := p.Hand.Play(*index, g.Pile)
	if err != nil {
		return nil, nil, err
	}
	p.UnoCalled = false

	events := []GameEvent{topCardEvent(played), handEvent(p), g.cardCountsEvent()}
	g.log().WithFields(logrus.Fields{"player": p.ID, "card": played.Pretty(), "left": p.Hand.Len()}).Info("card played")
	g.logAction(p.ID, "action_play", map[string]interface{}{
		"index":       *index,
		"colour":      played.Colour,
		"value":       played.Value,
		"wild_colour": played.WildColour,
	})

	if p.Hand.Empty() {
		return nil, append(events, g.finish(p)), nil
	}

	switch played.Value {
	case models.ValueDrawTwo, models.ValueDrawFour:
		events = append(events, g.increment())
		victim := g.Players[g.PlayerIndex]
		_, drawEvents, err := g.givePlayer(victim, penaltyFor(played.Value))
		if err != nil {
			// unreachable: the deck was checked above
			g.log().WithError(err).Error("penalty draw failed")
		}
		events = append(events, drawEvents...)
		events = append(events, g.increment())
	case models.ValueReverse:
		g.Direction = -g.Direction
		events = append(events, g.increment())
	case models.ValueSkip:
		events = append(events, g.increment(), g.increment())
	default:
		events = append(events, g.increment())
	}
	return nil, events, nil
}

// SayUno handles a call of "uno" by caller. The current player calling it protects
// themselves; anyone else catching an unprotected current player makes them draw.
func (g *UnoGame) SayUno(caller uuid.UUID) ([]GameEvent, error) {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.checkOngoing(); err != nil {
		return nil, err
	}
	if g.indexOf(caller) < 0 {
		return nil, ErrPlayerNotFound
	}
	cur := g.Players[g.PlayerIndex]
	if cur.Hand.Len() != 1 {
		return nil, ErrUnoNotApplicable
	}

	if cur.ID == caller {
		cur.UnoCalled = true
		g.log().WithField("player", caller).Info("uno called")
		g.logAction(caller, "action_call_uno", nil)
		return nil, nil
	}
	if cur.UnoCalled {
		return nil, nil
	}

	_, events, err := g.givePlayer(cur, g.HouseRules.UnoPenalty)
	if err != nil {
		return nil, err
	}
	g.log().WithFields(logrus.Fields{"caller": caller, "penalized": cur.ID}).Info("uno penalty")
	g.logAction(caller, "action_uno_penalty", map[string]interface{}{"penalized": cur.ID})
	return events, nil
}

// SetWildColour chooses the colour for a wild card in the player's hand. It has to be
// called before that card can be played.
func (g *UnoGame) SetWildColour(id uuid.UUID, index int, colour models.Colour) ([]GameEvent, error) {
	if c, err := models.ParseColour(string(colour)); err != nil || c == models.ColourWild {
		return nil, ErrInvalidColour
	}

	g.Mu.Lock()
	defer g.Mu.Unlock()

	p := g.getPlayerByID(id)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if err := p.Hand.SetWildColour(index, colour); err != nil {
		return nil, err
	}
	g.logAction(id, "action_set_wild_colour", map[string]interface{}{"index": index, "colour": colour})
	return nil, nil
}

// TopCard returns the top of the pile, or false if the pile is empty.
func (g *UnoGame) TopCard() (models.Card, bool) {
	g.Mu.RLock()
	defer g.Mu.RUnlock()
	return g.Pile.Top()
}

// Hand returns a copy of the player's hand.
func (g *UnoGame) Hand(id uuid.UUID) ([]models.Card, error) {
	g.Mu.RLock()
	defer g.Mu.RUnlock()
	p := g.getPlayerByID(id)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	return p.Hand.Cards(), nil
}

// OtherNames lists the names of everyone but id, in seat order.
func (g *UnoGame) OtherNames(id uuid.UUID) ([]string, error) {
	g.Mu.RLock()
	defer g.Mu.RUnlock()
	if g.indexOf(id) < 0 {
		return nil, ErrPlayerNotFound
	}
	names := make([]string, 0, len(g.Players)-1)
	for _, p := range g.Players {
		if p.ID != id {
			names = append(names, p.Name)
		}
	}
	return names, nil
}

// OtherCardCounts lists the hand sizes of everyone but id, in seat order.
func (g *UnoGame) OtherCardCounts(id uuid.UUID) ([]int, error) {
	g.Mu.RLock()
	defer g.Mu.RUnlock()
	if g.indexOf(id) < 0 {
		return nil, ErrPlayerNotFound
	}
	counts := make([]int, 0, len(g.Players)-1)
	for _, p := range g.Players {
		if p.ID != id {
			counts = append(counts, p.Hand.Len())
		}
	}
	return counts, nil
}

// increment passes the turn one seat in the current direction. Assumes lock is held.
func (g *UnoGame) increment() GameEvent {
	g.PlayerIndex = mod(g.PlayerIndex+g.Direction, len(g.Players))
	return g.currentPlayerEvent()
}

// givePlayer draws n cards into p's hand. Assumes lock is held.
func (g *UnoGame) givePlayer(p *Player, n int) ([]models.Card, []GameEvent, error) {
	cards, err := g.Deck.Draw(n)
	if err != nil {
		return nil, nil, err
	}
	p.Hand.Add(cards...)
	p.UnoCalled = false
	return cards, []GameEvent{handEvent(p), g.cardCountsEvent()}, nil
}

// finish ends the game with p as the winner. Assumes lock is held.
func (g *UnoGame) finish(p *Player) GameEvent {
	g.Ongoing = false
	g.GameOver = true
	g.Winner = p

	counts := make(map[uuid.UUID]int, len(g.Players))
	for _, pl := range g.Players {
		counts[pl.ID] = pl.Hand.Len()
	}
	winner := EventPlayer{Index: g.indexOf(p.ID), ID: p.ID, Name: p.Name}

	g.log().WithFields(logrus.Fields{"winner": p.ID, "name": p.Name}).Info("game over")
	g.logAction(p.ID, cache.ActionGameEnd, map[string]interface{}{"card_counts": counts})
	if g.OnGameEnd != nil {
		g.OnGameEnd(g.ID, p, counts)
	}
	return GameEvent{Type: EventBroadcast, GameOver: &GameOverInfo{Winner: winner}}
}

// turnHolder returns the player for id if the game is running and it is their turn.
// Assumes lock is held.
func (g *UnoGame) turnHolder(id uuid.UUID) (*Player, error) {
	if err := g.checkOngoing(); err != nil {
		return nil, err
	}
	idx := g.indexOf(id)
	if idx < 0 {
		return nil, ErrPlayerNotFound
	}
	if idx != g.PlayerIndex {
		return nil, ErrNotYourTurn
	}
	return g.Players[idx], nil
}

// checkOngoing assumes lock is held.
func (g *UnoGame) checkOngoing() error {
	if g.GameOver {
		return ErrGameOver
	}
	if !g.Ongoing || len(g.Players) == 0 {
		return ErrGameNotStarted
	}
	return nil
}

// getPlayerByID assumes lock is held.
func (g *UnoGame) getPlayerByID(id uuid.UUID) *Player {
	if idx := g.indexOf(id); idx >= 0 {
		return g.Players[idx]
	}
	return nil
}

// indexOf assumes lock is held.
func (g *UnoGame) indexOf(id uuid.UUID) int {
	for i, p := range g.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// logAction sends the action details to the historian queue, if one is configured.
// Assumes lock is held by caller.
func (g *UnoGame) logAction(actorID uuid.UUID, actionType string, payload map[string]interface{}) {
	g.actionIndex++
	if g.Actions == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        g.ID,
		ActionIndex:   g.actionIndex,
		ActorUserID:   actorID,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}
	publisher := g.Actions
	logger := g.log()
	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := publisher.PublishGameAction(ctx, rec); err != nil {
			logger.WithError(err).Warnf("failed to publish action %d", rec.ActionIndex)
		}
	}(record)
}

// penaltyFor is the number of cards the next player draws for a played value.
func penaltyFor(v models.Value) int {
	switch v {
	case models.ValueDrawTwo:
		return 2
	case models.ValueDrawFour:
		return 4
	}
	return 0
}

func mod(a, n int) int {
	return ((a % n) + n) % n
}
