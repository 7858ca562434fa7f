// Package instance names the running process in logs and metrics.
package instance

import "os"

// GetID returns the configured instance id, then the platform dyno name, then
// the hostname, falling back to "local".
func GetID() string {
	for _, key := range []string{"LEATHERWORKS_INSTANCE_ID", "DYNO"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
