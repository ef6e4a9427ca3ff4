// internal/game/rules.go
package game

import (
	"encoding/json"
	"fmt"
)

// HouseRules holds the tunable numbers of a game.
type HouseRules struct {
	HandSize   int `json:"handSize"`   // cards dealt to a player on join
	MinPlayers int `json:"minPlayers"` // players required before start_game succeeds
	MaxPlayers int `json:"maxPlayers"` // seats available in the lobby
	UnoPenalty int `json:"unoPenalty"` // cards drawn when caught without calling uno
}

// DefaultHouseRules are the standard rules.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		HandSize:   7,
		MinPlayers: 2,
		MaxPlayers: 10,
		UnoPenalty: 2,
	}
}

// Update will update the house rules with the new rules provided.
// If a rule is not set or defined, it will be ignored, and the old value will persist.
func (rules *HouseRules) Update(newRules map[string]interface{}) error {
	assignInt := func(field *int, key string, minVal int) error {
		val, exists := newRules[key]
		if !exists || val == nil {
			return nil
		}
		var n int
		switch v := val.(type) {
		case float64:
			n = int(v)
			if float64(n) != v {
				return fmt.Errorf("%s must be an integer", key)
			}
		case int:
			n = v
		default:
			return fmt.Errorf("invalid type for %s", key)
		}
		if n < minVal {
			return fmt.Errorf("%s must be at least %d", key, minVal)
		}
		*field = n
		return nil
	}

	updated := *rules
	if err := assignInt(&updated.HandSize, "handSize", 1); err != nil {
		return err
	}
	if err := assignInt(&updated.MinPlayers, "minPlayers", 1); err != nil {
		return err
	}
	if err := assignInt(&updated.MaxPlayers, "maxPlayers", 1); err != nil {
		return err
	}
	if err := assignInt(&updated.UnoPenalty, "unoPenalty", 0); err != nil {
		return err
	}
	if updated.MaxPlayers < updated.MinPlayers {
		return fmt.Errorf("maxPlayers (%d) must not be below minPlayers (%d)", updated.MaxPlayers, updated.MinPlayers)
	}
	if updated.HandSize*updated.MaxPlayers >= DeckSize {
		return fmt.Errorf("handSize %d for %d players leaves no deck", updated.HandSize, updated.MaxPlayers)
	}
	*rules = updated
	return nil
}

// ParseRules decodes a JSON object of overrides on top of current.
func ParseRules(raw string, current HouseRules) (HouseRules, error) {
	if raw == "" {
		return current, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return current, fmt.Errorf("house rules are not a JSON object: %w", err)
	}
	houseRules := current
	err := houseRules.Update(m)
	return houseRules, err
}
