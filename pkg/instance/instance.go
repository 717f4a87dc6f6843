package instance

import (
	"os"
	"strings"
)

const fallbackID = "local"

// GetID returns the identifier of this process for log correlation. It prefers an explicit
// LICENSER_INSTANCE_ID, then the platform dyno name, then the hostname.
func GetID() string {
	for _, key := range []string{"LICENSER_INSTANCE_ID", "DYNO"} {
		if id := strings.TrimSpace(os.Getenv(key)); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
