package rpc

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gabstv/httpdigest"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"golang.org/x/net/proxy"
)

var (
	ErrInvalidUrl          = errors.New("invalid rpc url")
	ErrIncompleteAuth      = errors.New("username and password must be set together")
	ErrConflictingSettings = errors.New("digest authentication can't be combined with a socks5 proxy")
)

// Validates the endpoint is an absolute http(s) url
func validateUrl(raw string) (err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidUrl, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", ErrInvalidUrl, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidUrl)
	}
	return nil
}

// HTTPClient builds the http client described by config
func HTTPClient(config Config) (client *http.Client, err error) {
	if config.Client != nil {
		return config.Client, nil
	}

	if (config.Username == "") != (config.Password == "") {
		return nil, ErrIncompleteAuth
	}
	digest := config.Username != ""
	if digest && config.Socks5 != "" {
		return nil, ErrConflictingSettings
	}

	client = &http.Client{Timeout: config.Timeout}
	switch {
	case digest:
		client.Transport = httpdigest.New(config.Username, config.Password)
	case config.Socks5 != "":
		dialer, err := proxy.SOCKS5("tcp", config.Socks5, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare socks5 dialer: %w", err)
		}
		contextDialer, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks5 dialer does not support contexts")
		}

		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.Proxy = nil
		transport.DialContext = contextDialer.DialContext
		client.Transport = transport
	}
	return client, nil
}

// New validates the configuration and returns a solana json-rpc client
func New(config Config) (client *solanarpc.Client, err error) {
	err = validateUrl(config.Url)
	if err != nil {
		return nil, err
	}

	httpClient, err := HTTPClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare http client: %w", err)
	}

	rpcClient := jsonrpc.NewClientWithOpts(config.Url, &jsonrpc.RPCClientOpts{
		HTTPClient:    httpClient,
		CustomHeaders: config.CustomHeaders,
	})
	return solanarpc.NewWithCustomRPCClient(rpcClient), nil
}
