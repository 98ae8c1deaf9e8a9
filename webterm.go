// Package webterm defines the wire types exchanged with the remote command
// service and the display intents the interpreter emits to a presentation layer.
package webterm

// CommandRequest is the JSON body of POST /api/command.
type CommandRequest struct {
	// Command is the submitted line, verbatim or rewritten by a local pseudo-command.
	Command string `json:"command"`
	// SessionID is the captcha session the command answers, if any.
	SessionID string `json:"session_id"`
	// Cwd is the interpreter's current virtual path.
	Cwd string `json:"cwd,omitempty"`
}

// CommandResponse is the result returned by the remote command service.
type CommandResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Data    *ResponseData `json:"data,omitempty"`
}

// ResponseData is the optional structured payload of a CommandResponse.
// Only the fields the interpreter consumes are modelled.
type ResponseData struct {
	Path     string  `json:"path,omitempty"`
	Contents []Entry `json:"contents,omitempty"`
	Token    string  `json:"token,omitempty"`
	Username string  `json:"username,omitempty"`
	// User is set by login responses, which nest the account instead of
	// returning a flat username.
	User    *User `json:"user,omitempty"`
	IsGuest *bool `json:"is_guest,omitempty"`
}

// User is the account object nested in login responses.
type User struct {
	ID       any    `json:"id,omitempty"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
}

// AccountName returns the username carried by the payload, preferring the
// flat field over the nested user object.
func (d *ResponseData) AccountName() string {
	if d == nil {
		return ""
	}
	if d.Username != "" {
		return d.Username
	}
	if d.User != nil {
		return d.User.Username
	}
	return ""
}

// Entry is one item of an ls listing.
type Entry struct {
	Name        string `json:"name"`
	IsDirectory bool   `json:"is_directory"`
	Owner       any    `json:"owner,omitempty"`
	Permissions string `json:"permissions"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// CaptchaResponse is the body of GET /api/captcha.
type CaptchaResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Data    *Captcha `json:"data,omitempty"`
}

// Captcha is an issued challenge and the session it belongs to.
type Captcha struct {
	Challenge string `json:"captcha"`
	SessionID string `json:"session_id"`
}

// IntentKind identifies what a presentation layer should do with an Intent.
type IntentKind string

const (
	IntentShowHint    IntentKind = "show_hint"
	IntentHideHint    IntentKind = "hide_hint"
	IntentShowCaptcha IntentKind = "show_captcha"
	IntentHideCaptcha IntentKind = "hide_captcha"
	IntentOutput      IntentKind = "output"
	IntentCandidates  IntentKind = "candidates"
	IntentRewrite     IntentKind = "rewrite"
	IntentPath        IntentKind = "path"
	IntentClear       IntentKind = "clear"
	IntentTheme       IntentKind = "theme"
)

// Intent is a rendering instruction. The interpreter never touches a UI
// directly; it emits intents and a thin adapter renders them.
type Intent struct {
	Kind IntentKind `json:"kind"`
	// Text carries hint text, output text, the new path or the theme name.
	Text string `json:"text,omitempty"`
	// Error marks output produced by a failed command.
	Error      bool     `json:"error,omitempty"`
	Captcha    *Captcha `json:"captcha,omitempty"`
	Candidates []string `json:"candidates,omitempty"`
	// Line and Cursor describe a rewritten input line.
	Line   string `json:"line,omitempty"`
	Cursor int    `json:"cursor,omitempty"`
}
