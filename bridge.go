package webterm

// Bridge request types.
const (
	BridgeInput  = "input"
	BridgeTab    = "tab"
	BridgeSubmit = "submit"
)

// BridgeRequest is one JSON line sent by a presentation layer over the
// serve socket.
type BridgeRequest struct {
	RequestID int    `json:"request_id"`
	Type      string `json:"type"`
	Line      string `json:"line"`
	Cursor    int    `json:"cursor,omitempty"`
}

// BridgeResponse answers a BridgeRequest. Intents produced outside any
// request (a captcha that arrived late, the initial display setup) are
// pushed with RequestID 0.
type BridgeResponse struct {
	RequestID int           `json:"request_id"`
	Intents   []Intent      `json:"intents"`
	Result    *BridgeResult `json:"result,omitempty"`
	Error     *Error        `json:"error,omitempty"`
}

// BridgeResult summarises a submitted command.
type BridgeResult struct {
	Success     bool     `json:"success"`
	Message     string   `json:"message"`
	Path        string   `json:"path"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Error describes a malformed bridge request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
