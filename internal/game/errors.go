// internal/game/errors.go
package game

import "errors"

// Rule violations. The engine never mutates state when it returns one of these.
var (
	ErrInvalidPlay        = errors.New("card cannot be played")
	ErrIndexOutOfRange    = errors.New("card does not exist at index")
	ErrGameAlreadyStarted = errors.New("cannot join an ongoing game")
	ErrAlreadyStarted     = errors.New("game already running")
	ErrGameNotStarted     = errors.New("game has not started")
	ErrGameOver           = errors.New("game is over")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrGameFull           = errors.New("game is full")
	ErrNotYourTurn        = errors.New("it is not your turn")
	ErrWildColourNotSet   = errors.New("wild colour must be set before playing a wild card")
	ErrNotWildCard        = errors.New("card is not a wild card")
	ErrInvalidColour      = errors.New("invalid wild colour")
	ErrUnoNotApplicable   = errors.New("current player does not have exactly one card")
	ErrInvalidName        = errors.New("name must not be empty")
)

// ErrPlayerNotFound is returned for ids that are not seated in the game.
var ErrPlayerNotFound = errors.New("player not found")

// ErrDeckEmpty is returned when a draw asks for more cards than the deck holds.
// There is no reshuffle of the discard pile.
var ErrDeckEmpty = errors.New("deck is empty")
