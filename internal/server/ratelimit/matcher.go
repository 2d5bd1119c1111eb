package ratelimit

import (
	"strings"
)

// unlimited marks endpoints that are never rate limited
var unlimited = &EndpointConfig{Path: "unlimited"}

// MatchEndpoint returns the configuration for a request, or nil when only the
// default limit applies. Exact paths win over prefixes; the longest prefix wins.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if method == "GET" && (path == "/health" || path == "/metrics") {
		return unlimited
	}

	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	var best *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method || !strings.HasSuffix(config.Path, "/") {
			continue
		}
		if strings.HasPrefix(path, config.Path) && (best == nil || len(config.Path) > len(best.Path)) {
			best = config
		}
	}
	return best
}
