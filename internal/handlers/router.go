// internal/handlers/router.go
package handlers

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// ruleErrors are reported to the client verbatim. Anything else is an internal error.
var ruleErrors = []error{
	game.ErrInvalidPlay,
	game.ErrIndexOutOfRange,
	game.ErrGameAlreadyStarted,
	game.ErrGameNotStarted,
	game.ErrGameOver,
	game.ErrNotEnoughPlayers,
	game.ErrGameFull,
	game.ErrNotYourTurn,
	game.ErrWildColourNotSet,
	game.ErrNotWildCard,
	game.ErrInvalidColour,
	game.ErrUnoNotApplicable,
	game.ErrInvalidName,
	game.ErrPlayerNotFound,
	game.ErrDeckEmpty,
}

type handlerFunc func(req *Request) (*Response, []game.GameEvent, error)

// Router decodes client frames, runs them against the game and delivers the results.
//
// Dispatch is serialized: the engine call, the broadcast of its events and the queueing
// of the response happen under one lock, so every connection sees events in engine order.
type Router struct {
	Game   *game.UnoGame
	Hub    *Hub
	Logger logrus.FieldLogger

	mu       sync.Mutex
	handlers map[RequestType]handlerFunc
}

func NewRouter(g *game.UnoGame, hub *Hub, logger logrus.FieldLogger) *Router {
	r := &Router{Game: g, Hub: hub, Logger: logger}
	r.handlers = map[RequestType]handlerFunc{
		TypeJoin:            r.join,
		TypeLeave:           r.leave,
		TypeStartGame:       r.startGame,
		TypeCallUno:         r.callUno,
		TypePlay:            r.play,
		TypeDraw:            r.draw,
		TypeSetWildColour:   r.setWildColour,
		TypeQueryTopCard:    r.queryTopCard,
		TypeQueryHand:       r.queryHand,
		TypeQueryCardCounts: r.queryCardCounts,
		TypeQueryNames:      r.queryNames,
	}
	return r
}

// Handle processes one frame received on conn. Frames that are not JSON objects are
// dropped without a response.
func (r *Router) Handle(conn *Conn, frame []byte) {
	req, err := DecodeRequest(frame)
	if err != nil {
		r.Logger.WithFields(logrus.Fields{"conn": conn.ID, "error": err}).Debug("dropping undecodable frame")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	resp, events := r.dispatch(req)
	r.publish(events)

	resp.RespondingTo = req.MessageUUID
	r.Logger.WithFields(logrus.Fields{
		"conn":   conn.ID,
		"type":   req.Type,
		"status": resp.Status,
	}).Debug("request handled")

	if !conn.Send(encodeFrame(r.Logger, resp)) {
		r.Logger.WithField("conn", conn.ID).Warn("response dropped, closing connection")
		r.Hub.Unregister(conn)
	}
}

// Apply runs a mutation that did not come from a client, e.g. an operator kick, and
// broadcasts its events.
func (r *Router) Apply(fn func(g *game.UnoGame) ([]game.GameEvent, error)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := fn(r.Game)
	if err != nil {
		return err
	}
	r.publish(events)
	return nil
}

// publish assumes r.mu is held.
func (r *Router) publish(events []game.GameEvent) {
	for _, ev := range events {
		r.Hub.Broadcast(game.EncodeEvent(ev))
	}
}

func (r *Router) dispatch(req *Request) (*Response, []game.GameEvent) {
	if !req.HasType {
		return errorResponse("type not specified."), nil
	}
	h, ok := r.handlers[req.Type]
	if !ok {
		return errorResponse("invalid type."), nil
	}
	resp, events, err := h(req)
	if err != nil {
		return r.failure(req, err), nil
	}
	return resp, events
}

// failure turns an error into the response the client sees.
func (r *Router) failure(req *Request, err error) *Response {
	if errors.Is(err, game.ErrAlreadyStarted) {
		return noActionResponse()
	}
	var m *malformedError
	if errors.As(err, &m) {
		return errorResponse(m.msg + ".")
	}
	for _, rule := range ruleErrors {
		if errors.Is(err, rule) {
			return errorResponse(rule.Error() + ".")
		}
	}
	r.Logger.WithError(err).WithField("type", req.Type).Error("unexpected error handling request")
	return errorResponse("internal error.")
}

func (r *Router) join(req *Request) (*Response, []game.GameEvent, error) {
	name, err := req.name()
	if err != nil {
		return nil, nil, err
	}
	id, events, err := r.Game.Join(name)
	if err != nil {
		return nil, nil, err
	}
	resp := doneResponse()
	resp.UUID = &id
	return resp, events, nil
}

func (r *Router) leave(req *Request) (*Response, []game.GameEvent, error) {
	id, err := req.playerID()
	if err != nil {
		return nil, nil, err
	}
	events, err := r.Game.Leave(id)
	if err != nil {
		return nil, nil, err
	}
	return doneResponse(), events, nil
}

func (r *Router) startGame(_ *Request) (*Response, []game.GameEvent, error) {
	events, err := r.Game.Start()
	if err != nil {
		return nil, nil, err
	}
	return doneResponse(), events, nil
}

func (r *Router) callUno(req *Request) (*Response, []game.GameEvent, error) {
	id, err := req.playerID()
	if err != nil {
		return nil, nil, err
	}
	events, err := r.Game.SayUno(id)
	if err != nil {
		return nil, nil, err
	}
	return doneResponse(), events, nil
}

func (r *Router) play(req *Request) (*Response, []game.GameEvent, error) {
	id, index, err := req.play()
	if err != nil {
		return nil, nil, err
	}
	events, err := r.Game.Play(id, &index)
	if err != nil {
		return nil, nil, err
	}
	return doneResponse(), events, nil
}

func (r *Router) draw(req *Request) (*Response, []game.GameEvent, error) {
	id, err := req.playerID()
	if err != nil {
		return nil, nil, err
	}
	card, events, err := r.Game.Draw(id)
	if err != nil {
		return nil, nil, err
	}
	resp := doneResponse()
	resp.Card = card.View()
	return resp, events, nil
}

func (r *Router) setWildColour(req *Request) (*Response, []game.GameEvent, error) {
	id, index, colour, err := req.setWildColour()
	if err != nil {
		return nil, nil, err
	}
	events, err := r.Game.SetWildColour(id, index, colour)
	if err != nil {
		return nil, nil, err
	}
	return doneResponse(), events, nil
}

func (r *Router) queryTopCard(_ *Request) (*Response, []game.GameEvent, error) {
	resp := doneResponse()
	if top, ok := r.Game.TopCard(); ok {
		resp.Card = top.TopView()
	} else {
		resp.Card = struct{}{}
	}
	return resp, nil, nil
}

func (r *Router) queryHand(req *Request) (*Response, []game.GameEvent, error) {
	id, err := req.playerID()
	if err != nil {
		return nil, nil, err
	}
	cards, err := r.Game.Hand(id)
	if err != nil {
		return nil, nil, err
	}
	hand := models.Views(cards)
	resp := doneResponse()
	resp.Hand = &hand
	return resp, nil, nil
}

func (r *Router) queryCardCounts(req *Request) (*Response, []game.GameEvent, error) {
	return r.queryOthers(req, func(id uuid.UUID) (interface{}, error) {
		return r.Game.OtherCardCounts(id)
	})
}

func (r *Router) queryNames(req *Request) (*Response, []game.GameEvent, error) {
	return r.queryOthers(req, func(id uuid.UUID) (interface{}, error) {
		return r.Game.OtherNames(id)
	})
}

func (r *Router) queryOthers(req *Request, query func(id uuid.UUID) (interface{}, error)) (*Response, []game.GameEvent, error) {
	id, err := req.playerID()
	if err != nil {
		return nil, nil, err
	}
	players, err := query(id)
	if err != nil {
		return nil, nil, err
	}
	resp := doneResponse()
	resp.Players = players
	return resp, nil, nil
}

// encodeFrame marshals a server message, falling back to "{}" if that fails.
func encodeFrame(logger logrus.FieldLogger, v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		logger.WithError(err).Warn("failed to marshal frame")
		return []byte("{}")
	}
	return data
}
