package panos

import "strings"

// DeviceSession identifies one firewall endpoint together with the
// credentials used against its XML API. Username and password are only
// needed for key generation; every other operation authenticates with the
// API key alone.
type DeviceSession struct {
	Host     string `json:"host"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
}

// WithAPIKey returns a copy of the session carrying the given API key.
func (s DeviceSession) WithAPIKey(key string) DeviceSession {
	s.APIKey = key
	return s
}

// Validate reports whether the session has enough information to reach a
// device at all.
func (s DeviceSession) Validate() error {
	if strings.TrimSpace(s.Host) == "" {
		return errEmptyHost
	}
	return nil
}
