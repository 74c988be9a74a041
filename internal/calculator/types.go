package calculator

import "calc-history/internal/history"

// InputRequest is the JSON body for digit, operator and command input.
type InputRequest struct {
	Token string `json:"token"` // "7", ".", "add", "+", "equals", ...
}

// KeyRequest is the JSON body for POST /calculator/key.
type KeyRequest struct {
	Key string `json:"key"` // keyboard key name, e.g. "Enter", "Backspace", "*"
}

// HistoryResponse is the JSON response for GET /calculator/history.
type HistoryResponse struct {
	Records []history.Record `json:"records"`
}

// KeysRequest is the JSON body for POST /calculator/keys.
type KeysRequest struct {
	Keys []string `json:"keys"`
}

// KeysResponse is the JSON response for POST /calculator/keys.
type KeysResponse struct {
	Steps []KeyStep `json:"steps"`
	View  View      `json:"view"`
}

// KeyStep records the display after one applied key.
type KeyStep struct {
	Key     string `json:"key"`
	Input   string `json:"input"`
	Display string `json:"display"`
}
