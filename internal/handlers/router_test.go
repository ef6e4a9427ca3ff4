// internal/handlers/router_test.go
package handlers

import (
	"encoding/json"
	"io"
	"math/rand"
	"testing"

	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	g := game.NewUnoGameWithDeck(game.DefaultHouseRules(), game.NewDeckWithRand(rand.New(rand.NewSource(1))))
	g.Logger = quietLogger()
	return NewRouter(g, NewHub(quietLogger()), quietLogger())
}

func newTestConn(r *Router) *Conn {
	c := NewConn("test", "pipe")
	r.Hub.Register(c)
	return c
}

// drain returns every frame queued on c, decoded.
func drain(t *testing.T, c *Conn) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for {
		select {
		case data := <-c.out:
			var m map[string]interface{}
			require.NoError(t, json.Unmarshal(data, &m), string(data))
			frames = append(frames, m)
		default:
			return frames
		}
	}
}

// request sends msg on c and returns the response together with the broadcasts c saw
// before it.
func request(t *testing.T, r *Router, c *Conn, msg map[string]interface{}) (map[string]interface{}, []map[string]interface{}) {
	t.Helper()
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	r.Handle(c, data)

	frames := drain(t, c)
	require.NotEmpty(t, frames, "no response to %v", msg)
	resp := frames[len(frames)-1]
	require.Equal(t, "response", resp["type"])
	return resp, frames[:len(frames)-1]
}

func join(t *testing.T, r *Router, c *Conn, name string) string {
	t.Helper()
	resp, _ := request(t, r, c, map[string]interface{}{"type": "join", "name": name})
	require.Equal(t, StatusDone, resp["status"], resp)
	return resp["uuid"].(string)
}

// startedTable seats three players on three connections, starts the game and rigs the
// pile and hands.
func startedTable(t *testing.T, r *Router, top models.Card, hands ...[]models.Card) ([]*Conn, []string) {
	t.Helper()
	names := []string{"alice", "bob", "carol"}
	conns := make([]*Conn, 3)
	ids := make([]string, 3)
	for i, name := range names {
		conns[i] = newTestConn(r)
		ids[i] = join(t, r, conns[i], name)
	}
	resp, _ := request(t, r, conns[0], map[string]interface{}{"type": "start_game"})
	require.Equal(t, StatusDone, resp["status"])
	for _, c := range conns {
		drain(t, c)
	}

	r.Game.Pile = game.NewPile(top)
	for i, h := range hands {
		r.Game.Players[i].Hand = game.NewHand(h...)
	}
	return conns, ids
}

func card(c models.Colour, v models.Value) models.Card {
	return models.MustCard(c, v)
}

func TestJoinEchoesMessageUUID(t *testing.T) {
	r := newTestRouter(t)
	c := newTestConn(r)

	resp, broadcasts := request(t, r, c, map[string]interface{}{
		"type":         "join",
		"name":         "alice",
		"message_uuid": "abc-123",
	})
	assert.Empty(t, broadcasts)
	assert.Equal(t, StatusDone, resp["status"])
	assert.Equal(t, "abc-123", resp["responding_to"])
	assert.NotEmpty(t, resp["uuid"])
}

func TestStartGameBroadcastsSnapshot(t *testing.T) {
	r := newTestRouter(t)
	conns := []*Conn{newTestConn(r), newTestConn(r), newTestConn(r)}
	ids := []string{join(t, r, conns[0], "alice"), join(t, r, conns[1], "bob"), join(t, r, conns[2], "carol")}

	resp, broadcasts := request(t, r, conns[1], map[string]interface{}{"type": "start_game"})
	assert.Equal(t, StatusDone, resp["status"])
	require.Len(t, broadcasts, 1)

	for _, c := range []*Conn{conns[0], conns[2]} {
		frames := drain(t, c)
		require.Len(t, frames, 1)
		assert.Equal(t, "game_start", frames[0]["type"])
	}

	start := broadcasts[0]
	assert.Equal(t, "game_start", start["type"])
	players := start["players"].(map[string]interface{})
	require.Len(t, players, 3)
	for i, id := range ids {
		p := players[id].(map[string]interface{})
		assert.Equal(t, float64(i), p["index"])
		assert.Len(t, p["hand"], 7)
	}
	current := start["current_player"].(map[string]interface{})
	assert.Equal(t, ids[0], current["uuid"])
	assert.Contains(t, start, "top_card")

	resp, broadcasts = request(t, r, conns[1], map[string]interface{}{"type": "start_game"})
	assert.Equal(t, StatusNoAction, resp["status"])
	assert.Empty(t, broadcasts)
}

func TestMalformedRequests(t *testing.T) {
	r := newTestRouter(t)
	c := newTestConn(r)
	id := join(t, r, c, "alice")

	tests := []struct {
		name string
		msg  map[string]interface{}
		want string
	}{
		{"no_type", map[string]interface{}{"name": "x"}, "type not specified."},
		{"unknown_type", map[string]interface{}{"type": "fly"}, "invalid type."},
		{"non_string_type", map[string]interface{}{"type": 3}, "invalid type."},
		{"join_without_name", map[string]interface{}{"type": "join"}, "name not specified."},
		{"join_blank_name", map[string]interface{}{"type": "join", "name": " "}, "name must not be empty."},
		{"play_without_uuid", map[string]interface{}{"type": "play", "index": 0}, "uuid not specified."},
		{"play_without_index", map[string]interface{}{"type": "play", "uuid": id}, "index not specified."},
		{"play_string_index", map[string]interface{}{"type": "play", "uuid": id, "index": "0"}, "index must be int."},
		{"bad_uuid", map[string]interface{}{"type": "draw", "uuid": "nope"}, "invalid uuid."},
		{"wild_without_colour", map[string]interface{}{"type": "set_wild_colour", "uuid": id, "index": 0}, "wild_colour not specified."},
		{"before_start", map[string]interface{}{"type": "draw", "uuid": id}, "game has not started."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := request(t, r, c, tt.msg)
			assert.Equal(t, StatusError, resp["status"])
			assert.Equal(t, tt.want, resp["message"])
		})
	}
}

func TestInvalidJSONIsDropped(t *testing.T) {
	r := newTestRouter(t)
	c := newTestConn(r)

	r.Handle(c, []byte(`{"type": "join", "name": `))
	r.Handle(c, []byte(`[1, 2, 3]`))
	assert.Empty(t, drain(t, c))
}

func TestPlayBroadcastsToEveryone(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive),
		append([]models.Card{card(models.ColourRed, models.ValueSkip)}, filler...), filler, filler)

	resp, broadcasts := request(t, r, conns[0], map[string]interface{}{"type": "play", "uuid": ids[0], "index": 0})
	require.Equal(t, StatusDone, resp["status"], resp)
	require.NotEmpty(t, broadcasts)

	for _, c := range conns[1:] {
		assert.Equal(t, broadcasts, drain(t, c))
	}

	var sawTop, sawCounts bool
	var current map[string]interface{}
	for _, b := range broadcasts {
		assert.Equal(t, "broadcast", b["type"])
		if top, ok := b["top_card"].(map[string]interface{}); ok {
			sawTop = true
			assert.Equal(t, "Skip", top["value"])
			assert.Equal(t, "red", top["colour"])
		}
		if counts, ok := b["card_counts"].(map[string]interface{}); ok {
			sawCounts = true
			assert.Equal(t, float64(2), counts[ids[0]])
		}
		if cp, ok := b["current_player"].(map[string]interface{}); ok {
			current = cp
		}
	}
	assert.True(t, sawTop)
	assert.True(t, sawCounts)
	require.NotNil(t, current)
	assert.Equal(t, ids[2], current["uuid"])
	assert.Equal(t, float64(2), current["index"])
}

func TestRuleViolationsDoNotBroadcast(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive), filler, filler, filler)

	resp, broadcasts := request(t, r, conns[1], map[string]interface{}{"type": "play", "uuid": ids[1], "index": 0})
	assert.Equal(t, StatusError, resp["status"])
	assert.Equal(t, "it is not your turn.", resp["message"])
	assert.Empty(t, broadcasts)

	resp, _ = request(t, r, conns[0], map[string]interface{}{"type": "play", "uuid": ids[0], "index": 0})
	assert.Equal(t, "card cannot be played.", resp["message"])

	resp, _ = request(t, r, conns[0], map[string]interface{}{"type": "play", "uuid": ids[0], "index": 7})
	assert.Equal(t, "card does not exist at index.", resp["message"])

	for _, c := range conns {
		assert.Empty(t, drain(t, c))
	}
}

func TestDrawRespondsWithCard(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive), filler, filler, filler)

	resp, broadcasts := request(t, r, conns[0], map[string]interface{}{"type": "draw", "uuid": ids[0]})
	require.Equal(t, StatusDone, resp["status"])
	drawn := resp["card"].(map[string]interface{})
	assert.Contains(t, drawn, "value")
	assert.Contains(t, drawn, "colour")
	assert.NotEmpty(t, broadcasts)

	hand := r.Game.Players[0].Hand.Cards()
	require.Len(t, hand, 3)
	assert.Equal(t, string(hand[2].Value), drawn["value"])
}

func TestEmptyDeckIsReported(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive), filler, filler, filler)
	r.Game.Deck = game.NewDeckFromCards(nil)

	resp, broadcasts := request(t, r, conns[0], map[string]interface{}{"type": "draw", "uuid": ids[0]})
	assert.Equal(t, StatusError, resp["status"])
	assert.Equal(t, "deck is empty.", resp["message"])
	assert.Empty(t, broadcasts)
}

func TestWildColourFlow(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive),
		append([]models.Card{card(models.ColourWild, models.ValueWild)}, filler...), filler, filler)

	resp, _ := request(t, r, conns[0], map[string]interface{}{"type": "play", "uuid": ids[0], "index": 0})
	assert.Equal(t, "wild colour must be set before playing a wild card.", resp["message"])

	resp, _ = request(t, r, conns[0], map[string]interface{}{"type": "set_wild_colour", "uuid": ids[0], "index": 0, "wild_colour": "green"})
	require.Equal(t, StatusDone, resp["status"])

	resp, _ = request(t, r, conns[0], map[string]interface{}{"type": "play", "uuid": ids[0], "index": 0})
	require.Equal(t, StatusDone, resp["status"])

	resp, _ = request(t, r, conns[1], map[string]interface{}{"type": "query_top_card"})
	top := resp["card"].(map[string]interface{})
	assert.Equal(t, "Wild", top["value"])
	assert.Equal(t, "wild", top["colour"])
	assert.Equal(t, "green", top["wild_colour"])
}

func TestQueries(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive),
		filler, []models.Card{card(models.ColourBlue, models.ValueOne)}, append(filler, filler...))

	resp, _ := request(t, r, conns[1], map[string]interface{}{"type": "query_names", "uuid": ids[1]})
	assert.Equal(t, []interface{}{"alice", "carol"}, resp["players"])

	resp, _ = request(t, r, conns[0], map[string]interface{}{"type": "query_card_counts", "uuid": ids[0]})
	assert.Equal(t, []interface{}{float64(1), float64(4)}, resp["players"])

	resp, _ = request(t, r, conns[1], map[string]interface{}{"type": "query_hand", "uuid": ids[1]})
	assert.Equal(t, []interface{}{map[string]interface{}{"value": "1", "colour": "blue"}}, resp["hand"])

	resp, _ = request(t, r, conns[1], map[string]interface{}{"type": "query_top_card"})
	assert.Equal(t, map[string]interface{}{"value": "5", "colour": "red", "wild_colour": nil}, resp["card"])
}

func TestQueryTopCardOnEmptyPile(t *testing.T) {
	r := newTestRouter(t)
	r.Game.Pile = game.NewPile()
	c := newTestConn(r)

	resp, _ := request(t, r, c, map[string]interface{}{"type": "query_top_card"})
	assert.Equal(t, StatusDone, resp["status"])
	assert.Equal(t, map[string]interface{}{}, resp["card"])
}

func TestCallUnoPenalty(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive),
		[]models.Card{card(models.ColourBlue, models.ValueOne)}, filler, filler)

	resp, broadcasts := request(t, r, conns[2], map[string]interface{}{"type": "call_uno", "uuid": ids[2]})
	require.Equal(t, StatusDone, resp["status"])
	require.NotEmpty(t, broadcasts)
	assert.Equal(t, 3, r.Game.Players[0].Hand.Len())

	var sawHand bool
	for _, b := range broadcasts {
		if b["uuid"] == ids[0] {
			sawHand = true
			assert.Len(t, b["cards"], 3)
		}
	}
	assert.True(t, sawHand)
}

func TestLeaveMidGame(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive), filler, filler, filler)

	resp, broadcasts := request(t, r, conns[0], map[string]interface{}{"type": "leave", "uuid": ids[0]})
	require.Equal(t, StatusDone, resp["status"])
	require.Len(t, broadcasts, 2)
	current := broadcasts[0]["current_player"].(map[string]interface{})
	assert.Equal(t, ids[1], current["uuid"])
	assert.NotContains(t, broadcasts[1]["card_counts"], ids[0])

	resp, _ = request(t, r, conns[0], map[string]interface{}{"type": "leave", "uuid": ids[0]})
	assert.Equal(t, "player not found.", resp["message"])
}

func TestWinnerIsAnnounced(t *testing.T) {
	r := newTestRouter(t)
	filler := []models.Card{card(models.ColourYellow, models.ValueNine), card(models.ColourYellow, models.ValueEight)}
	conns, ids := startedTable(t, r, card(models.ColourRed, models.ValueFive),
		[]models.Card{card(models.ColourRed, models.ValueOne)}, filler, filler)

	_, broadcasts := request(t, r, conns[0], map[string]interface{}{"type": "play", "uuid": ids[0], "index": 0})
	over := broadcasts[len(broadcasts)-1]["game_over"].(map[string]interface{})
	winner := over["winner"].(map[string]interface{})
	assert.Equal(t, ids[0], winner["uuid"])
	assert.Equal(t, "alice", winner["name"])

	resp, _ := request(t, r, conns[1], map[string]interface{}{"type": "draw", "uuid": ids[1]})
	assert.Equal(t, "game is over.", resp["message"])
}

func TestSlowConnectionIsDropped(t *testing.T) {
	r := newTestRouter(t)
	fast := newTestConn(r)
	slow := newTestConn(r)
	require.Equal(t, 2, r.Hub.Len())

	for i := 0; i < outboundBuffer+1; i++ {
		r.Hub.Broadcast([]byte(`{"type":"broadcast"}`))
		drain(t, fast)
	}
	assert.Equal(t, 1, r.Hub.Len())
	select {
	case <-slow.Done():
	default:
		t.Fatal("slow connection was not closed")
	}
	assert.False(t, slow.Send([]byte("{}")))
}
