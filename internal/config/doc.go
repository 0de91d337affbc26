// Package config provides configuration management for the relay
// client and the relay-fetch command.
//
// Configuration is loaded from a YAML file with environment variable
// substitution. The relay routing settings live under the fixed
// top-level "proxy" key:
//
//	proxy:
//	  endpoint: https://relay.example.com/
//	  authorization: ${RELAY_TOKEN}
//	logging:
//	  level: info
//	  format: json
//	metrics:
//	  enabled: true
//	  address: :9090
//
// Both proxy fields default to empty when absent; an empty or partial
// proxy section disables relay routing without failing startup. The
// Watcher type supports hot reload of the configuration file via
// fsnotify.
package config
