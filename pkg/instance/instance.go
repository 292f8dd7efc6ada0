package instance

import (
	"os"

	"github.com/angelmondragon/shipping-service/pkg/env"
)

// GetID identifies this process in logs: SHIPPING_INSTANCE_ID, then the hostname, then "shipping-0".
func GetID() string {
	if id := env.Get("SHIPPING_INSTANCE_ID", ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "shipping-0"
}
