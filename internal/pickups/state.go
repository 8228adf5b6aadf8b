package pickups

import "github.com/rs/zerolog"

// parseEventState maps a raw state string to an EventState. Unrecognised
// strings become StateUnknown and are logged; this never fails.
func parseEventState(logger zerolog.Logger, raw string) EventState {
	switch s := EventState(raw); s {
	case StateInitialized, StateNotified, StateScheduled, StateSkipped:
		return s
	default:
		logger.Warn().Str("state", raw).Msg("unknown pickup event state")
		return StateUnknown
	}
}
