package rpc

import (
	"net/http"
	"time"
)

// Config holds the configuration of a ledger json-rpc client.
type Config struct {
	// URL of the json-rpc endpoint
	// Example: http://127.0.0.1:8899
	Url string
	// Custom headers to send
	CustomHeaders map[string]string
	// HTTP Client to use. When set Username, Password, Socks5 and Timeout are ignored
	Client *http.Client
	// HTTP digest credentials. Both must be set
	Username string
	Password string
	// SOCKS5 proxy address. Example: 127.0.0.1:9050
	Socks5 string
	// Timeout of every request. Zero means no timeout
	Timeout time.Duration
}
