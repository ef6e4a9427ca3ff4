// internal/game/utils.go
package game

import (
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// EncodeEvent marshals a GameEvent into JSON bytes.
// Logs a warning and returns empty JSON "{}" on marshalling error.
func EncodeEvent(ev GameEvent) []byte {
	data, err := json.Marshal(ev)
	if err != nil {
		logrus.WithError(err).Warnf("failed to marshal GameEvent type %s", ev.Type)
		return []byte("{}")
	}
	return data
}
