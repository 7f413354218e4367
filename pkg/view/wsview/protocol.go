package wsview

// Message types exchanged on the /fetch socket.
const (
	// client -> server
	TypeFetch  = "fetch"
	TypeCancel = "cancel"

	// server -> client
	TypeStart    = "start"
	TypeProgress = "progress"
	TypeImage    = "image"
	TypeDone     = "done"
)

// Message is the single JSON envelope used in both directions.
type Message struct {
	Type    string `json:"type"`
	URL     string `json:"url,omitempty"`
	Title   string `json:"title,omitempty"`
	Percent int    `json:"percent,omitempty"`

	Width    int  `json:"width,omitempty"`
	Height   int  `json:"height,omitempty"`
	Fallback bool `json:"fallback,omitempty"`
	// PNG is the encoded image; base64 on the wire.
	PNG []byte `json:"png,omitempty"`

	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}
