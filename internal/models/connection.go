package models

// Connection states as seen by the frontend
const (
	ConnectionDisconnected = "disconnected"
	ConnectionConnecting   = "connecting"
	ConnectionConnected    = "connected"
	ConnectionSubmitting   = "submitting"
)

// Valid state transitions: from -> []to
var ValidConnectionTransitions = map[string][]string{
	ConnectionDisconnected: {ConnectionConnecting},
	ConnectionConnecting:   {ConnectionConnected, ConnectionDisconnected},
	ConnectionConnected:    {ConnectionSubmitting, ConnectionDisconnected},
	ConnectionSubmitting:   {ConnectionConnected, ConnectionDisconnected},
}

func IsValidConnectionTransition(from, to string) bool {
	allowed, ok := ValidConnectionTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}
