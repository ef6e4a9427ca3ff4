// internal/handlers/protocol.go
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
)

// RequestType is the "type" field of a client request.
type RequestType string

const (
	TypeJoin            RequestType = "join"
	TypeLeave           RequestType = "leave"
	TypeStartGame       RequestType = "start_game"
	TypeCallUno         RequestType = "call_uno"
	TypePlay            RequestType = "play"
	TypeDraw            RequestType = "draw"
	TypeSetWildColour   RequestType = "set_wild_colour"
	TypeQueryTopCard    RequestType = "query_top_card"
	TypeQueryHand       RequestType = "query_hand"
	TypeQueryCardCounts RequestType = "query_card_counts"
	TypeQueryNames      RequestType = "query_names"
)

// Response statuses.
const (
	StatusDone     = "done"
	StatusError    = "error"
	StatusNoAction = "no action"
)

const responseType = "response"

// malformedError marks a request that is missing a field or has one of the wrong type.
type malformedError struct {
	msg string
}

func (e *malformedError) Error() string {
	return e.msg
}

func malformed(format string, args ...interface{}) error {
	return &malformedError{msg: fmt.Sprintf(format, args...)}
}

// Request is the envelope every client frame is decoded into first. The per-type payload
// is decoded from Raw once the type is known.
type Request struct {
	Type        RequestType
	HasType     bool
	MessageUUID json.RawMessage

	Raw []byte
}

type envelope struct {
	Type        json.RawMessage `json:"type"`
	MessageUUID json.RawMessage `json:"message_uuid"`
}

// DecodeRequest parses the envelope. It fails only when data is not a JSON object.
func DecodeRequest(data []byte) (*Request, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	req := &Request{MessageUUID: env.MessageUUID, Raw: data}
	if len(env.Type) > 0 && string(env.Type) != "null" {
		req.HasType = true
		var t string
		if err := json.Unmarshal(env.Type, &t); err == nil {
			req.Type = RequestType(t)
		}
	}
	return req, nil
}

type joinRequest struct {
	Name *string `json:"name"`
}

type playerRequest struct {
	UUID *string `json:"uuid"`
}

type playRequest struct {
	UUID  *string `json:"uuid"`
	Index *int    `json:"index"`
}

type setWildColourRequest struct {
	UUID       *string `json:"uuid"`
	Index      *int    `json:"index"`
	WildColour *string `json:"wild_colour"`
}

// decodeAs unmarshals the raw frame into the per-type struct v.
func (r *Request) decodeAs(v interface{}) error {
	if err := json.Unmarshal(r.Raw, v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return malformed("%s must be %s", typeErr.Field, typeErr.Type)
		}
		return malformed("invalid request")
	}
	return nil
}

func missing(field string) error {
	return malformed("%s not specified", field)
}

func parsePlayerID(raw *string) (uuid.UUID, error) {
	if raw == nil {
		return uuid.Nil, missing("uuid")
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return uuid.Nil, malformed("invalid uuid")
	}
	return id, nil
}

func (r *Request) name() (string, error) {
	var req joinRequest
	if err := r.decodeAs(&req); err != nil {
		return "", err
	}
	if req.Name == nil {
		return "", missing("name")
	}
	return *req.Name, nil
}

func (r *Request) playerID() (uuid.UUID, error) {
	var req playerRequest
	if err := r.decodeAs(&req); err != nil {
		return uuid.Nil, err
	}
	return parsePlayerID(req.UUID)
}

func (r *Request) play() (uuid.UUID, int, error) {
	var req playRequest
	if err := r.decodeAs(&req); err != nil {
		return uuid.Nil, 0, err
	}
	id, err := parsePlayerID(req.UUID)
	if err != nil {
		return uuid.Nil, 0, err
	}
	if req.Index == nil {
		return uuid.Nil, 0, missing("index")
	}
	return id, *req.Index, nil
}

func (r *Request) setWildColour() (uuid.UUID, int, models.Colour, error) {
	var req setWildColourRequest
	if err := r.decodeAs(&req); err != nil {
		return uuid.Nil, 0, "", err
	}
	id, err := parsePlayerID(req.UUID)
	if err != nil {
		return uuid.Nil, 0, "", err
	}
	if req.Index == nil {
		return uuid.Nil, 0, "", missing("index")
	}
	if req.WildColour == nil {
		return uuid.Nil, 0, "", missing("wild_colour")
	}
	return id, *req.Index, models.Colour(*req.WildColour), nil
}

// Response is the reply to exactly one request. Only the fields relevant to the request
// type are set.
type Response struct {
	Type         string          `json:"type"`
	RespondingTo json.RawMessage `json:"responding_to,omitempty"`
	Status       string          `json:"status"`
	Message      string          `json:"message,omitempty"`

	UUID    *uuid.UUID         `json:"uuid,omitempty"`
	Card    interface{}        `json:"card,omitempty"`
	Hand    *[]models.CardView `json:"hand,omitempty"`
	Players interface{}        `json:"players,omitempty"`
}

func doneResponse() *Response {
	return &Response{Type: responseType, Status: StatusDone}
}

func errorResponse(msg string) *Response {
	return &Response{Type: responseType, Status: StatusError, Message: msg}
}

func noActionResponse() *Response {
	return &Response{Type: responseType, Status: StatusNoAction}
}
