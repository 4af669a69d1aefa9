package ratelimit

import (
	"strings"
)

// unlimitedPaths are the health endpoints, never rate limited.
var unlimitedPaths = map[string]bool{
	"/health":       true,
	"/crud-agent":   true,
	"/market-agent": true,
	"/code-agent":   true,
	"/chat-agent":   true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/get-project/" matches "/get-project/{id}").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Special case: health check endpoints are unlimited
	if unlimitedPaths[path] && method == "GET" {
		return &EndpointConfig{Path: path, Method: method}
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Try prefix match (for paths ending with "/")
	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") {
			if strings.HasPrefix(path, config.Path) {
				return config
			}
		}
	}

	// No match found
	return nil
}
