package domain

import (
	"bytes"
	"encoding/json"
)

// SessionID is the opaque provider-issued session identifier.
type SessionID string

// FallbackSTUN is used when the provider hands out no ICE servers.
const FallbackSTUN = "stun:stun.l.google.com:19302"

// URLList accepts either a single URL string or an array of them.
type URLList []string

func (u *URLList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = URLList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*u = list
	return nil
}

// ICEServer mirrors one provider ICE server descriptor.
type ICEServer struct {
	URLs       URLList `json:"urls"`
	Username   string  `json:"username,omitempty"`
	Credential string  `json:"credential,omitempty"`
}

// NewSessionData is the `data` object of a create-session response.
//
// The provider has been observed to send the list as either `ice_servers2`
// or `ice_servers`; both are decoded and ICE() prefers the former when it is
// non-empty.
type NewSessionData struct {
	SessionID   SessionID   `json:"session_id"`
	ICEServers2 []ICEServer `json:"ice_servers2,omitempty"`
	ICEServers  []ICEServer `json:"ice_servers,omitempty"`
}

func (d NewSessionData) ICE() []ICEServer {
	if len(d.ICEServers2) > 0 {
		return d.ICEServers2
	}
	return d.ICEServers
}

// ICEOrFallback returns the provider ICE servers or the public STUN fallback.
func (d NewSessionData) ICEOrFallback() []ICEServer {
	if servers := d.ICE(); len(servers) > 0 {
		return servers
	}
	return []ICEServer{{URLs: URLList{FallbackSTUN}}}
}

// Envelope is the provider's `{data: ...}` wrapper.
type Envelope[T any] struct {
	Data *T `json:"data"`
}
