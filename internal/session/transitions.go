// internal/session/transitions.go
package session

import "github.com/xkilldash9x/uipilot/api/schemas"

var working = []schemas.Status{
	schemas.StatusContinue,
	schemas.StatusPending,
	schemas.StatusScreenshot,
	schemas.StatusFinish,
	schemas.StatusError,
}

// transitions lists the statuses each status may move to. ALLFINISH is terminal.
var transitions = map[schemas.Status][]schemas.Status{
	schemas.StatusAppSelection: working,
	schemas.StatusContinue:     working,
	schemas.StatusPending:      working,
	schemas.StatusScreenshot:   working,
	schemas.StatusFinish:       {schemas.StatusAppSelection, schemas.StatusAllFinish},
	schemas.StatusError:        {schemas.StatusContinue, schemas.StatusAppSelection, schemas.StatusFinish, schemas.StatusAllFinish},
	schemas.StatusAllFinish:    nil,
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to schemas.Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
