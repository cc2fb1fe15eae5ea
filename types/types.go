package types

// ------------------------
// Bus reply shapes
// ------------------------

type OKReply struct {
	OK bool `json:"ok"`
}

type ErrorReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// ------------------------
// Service state (retained on <service>/state)
// ------------------------

type ServiceState struct {
	Level  string `json:"level"` // "idle","ready","error","stopped"
	Status string `json:"status,omitempty"`
	TSms   int64  `json:"ts_ms"`
}
