package events

// Event payload types shared by the session app, the publishers and the gateway

// NamesAddedPayload is the payload for a NamesAdded event
type NamesAddedPayload struct {
	Added     []string `json:"added"`
	PoolSize  int      `json:"pool_size"`
	InputText string   `json:"input_text,omitempty"`
}

// PoolResetPayload is the payload for a PoolReset event
type PoolResetPayload struct {
	ClearedNames   int `json:"cleared_names"`
	ClearedWinners int `json:"cleared_winners"`
}

// SpinStartedPayload is the payload for a SpinStarted event
type SpinStartedPayload struct {
	PoolSize int `json:"pool_size"`
}

// WinnerRevealedPayload is the payload for a WinnerRevealed event. Winner is
// nil when the pool was empty.
type WinnerRevealedPayload struct {
	Winner   *string `json:"winner"`
	PoolSize int     `json:"pool_size"`
}

// WinnerRemovedPayload is the payload for a WinnerRemoved event
type WinnerRemovedPayload struct {
	Winner      string `json:"winner"`
	Remaining   int    `json:"remaining"`
	WinnerCount int    `json:"winner_count"`
}
