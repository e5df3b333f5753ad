package config

// Network server port constants
// These ports are selected to avoid conflicts with popular databases,
// data warehouses, and development tools commonly used alongside a
// sharing server.
const (
	// HTTP Server Port - REST sharing API
	// Selected to avoid common development ports like 8080, 3000, 5000
	HTTP_SERVER_PORT = 2861

	// Health Check Port - Dedicated health monitoring endpoint
	// Selected to avoid common monitoring ports like 8080, 9090, 9100
	HEALTH_CHECK_PORT = 2862
)

// Network server address constants
const (
	// Default bind address
	DEFAULT_SERVER_ADDRESS = "0.0.0.0"

	// Localhost address for development
	LOCALHOST_ADDRESS = "127.0.0.1"
)

// Server enabled state constants
const (
	HTTP_SERVER_ENABLED = true
)

// Port validation constants
const (
	MIN_PORT = 1
	MAX_PORT = 65535
)

// IsValidPort checks if a port number is within valid range
func IsValidPort(port int) bool {
	return port >= MIN_PORT && port <= MAX_PORT
}

// GetDefaultPorts returns a map of all default server ports
func GetDefaultPorts() map[string]int {
	return map[string]int{
		"http":   HTTP_SERVER_PORT,
		"health": HEALTH_CHECK_PORT,
	}
}
