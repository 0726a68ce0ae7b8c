package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Default configuration values.
const (
	DefaultListenAddr = ":3443"
	DefaultSTUN       = "stun:stun.l.google.com:19302"
)

// Environment variable names.
const (
	envListenAddr = "PORT" // bare port or host:port, matching the deployed server
	envLogLevel   = "LOG_LEVEL"
	envLogFile    = "LOG_FILE"

	envServerURL = "LIVECODING_SERVER"
	envRoom      = "LIVECODING_ROOM"
	envClientID  = "LIVECODING_CLIENT_ID"
	envSTUN      = "STUN_SERVER"
	envTURN      = "TURN_SERVER"
	envTURNUser  = "TURN_USERNAME"
	envTURNPass  = "TURN_PASSWORD"
)

// LookupFunc reads one environment variable. Injectable for tests.
type LookupFunc func(key string) (string, bool)

// Server holds the signaling server configuration.
type Server struct {
	ListenAddr string
	LogLevel   string
	LogFile    string
}

// LoadServer reads server configuration from the environment.
func LoadServer(lookup LookupFunc) (*Server, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	addr := DefaultListenAddr
	if v, ok := lookup(envListenAddr); ok && v != "" {
		addr = v
	}
	// A bare port number is accepted for compatibility with PORT-style
	// deployment environments.
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	cfg := &Server{ListenAddr: addr, LogLevel: "info"}
	if v, ok := lookup(envLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(envLogFile); ok {
		cfg.LogFile = v
	}
	return cfg, nil
}

// Client holds the configuration for one mesh participant.
type Client struct {
	// ServerURL is the websocket address of the signaling hub.
	ServerURL string

	// Room partitions clients; empty selects the legacy global room.
	Room string

	// ClientID identifies this participant for the lifetime of one
	// connection. Generated when not supplied.
	ClientID string

	STUNServer string
	TURNServer string
	TURNUser   string
	TURNPass   string

	LogLevel string
}

// ClientOptions carries CLI flag overrides for LoadClient.
type ClientOptions struct {
	ServerURL string
	Room      string
	ClientID  string
	STUN      string
	TURN      string
	TURNUser  string
	TURNPass  string
}

// LoadClient resolves client configuration with priority
// CLI flag > environment > default. The server URL has no default: the hub
// address must be supplied explicitly, and loading fails loudly without it.
func LoadClient(opts ClientOptions, lookup LookupFunc) (*Client, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	resolve := func(flag, env, fallback string) string {
		if flag != "" {
			return flag
		}
		if v, ok := lookup(env); ok && v != "" {
			return v
		}
		return fallback
	}

	cfg := &Client{
		ServerURL:  resolve(opts.ServerURL, envServerURL, ""),
		Room:       resolve(opts.Room, envRoom, ""),
		ClientID:   resolve(opts.ClientID, envClientID, ""),
		STUNServer: resolve(opts.STUN, envSTUN, DefaultSTUN),
		TURNServer: resolve(opts.TURN, envTURN, ""),
		TURNUser:   resolve(opts.TURNUser, envTURNUser, ""),
		TURNPass:   resolve(opts.TURNPass, envTURNPass, ""),
		LogLevel:   "warn",
	}
	if v, ok := lookup(envLogLevel); ok && v != "" {
		cfg.LogLevel = v
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("signaling server URL is not set (--server or %s)", envServerURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "ws://") && !strings.HasPrefix(cfg.ServerURL, "wss://") {
		return nil, fmt.Errorf("signaling server URL %q must use ws:// or wss://", cfg.ServerURL)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = uuid.NewString()
	}
	return cfg, nil
}

// STUNServers returns the STUN URLs to hand to the peer connection.
func (c *Client) STUNServers() []string {
	return []string{c.STUNServer}
}

// TURNServers returns TURN URLs when a TURN server is configured.
func (c *Client) TURNServers() []string {
	if c.TURNServer == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%s:3478?transport=udp", c.TURNServer),
		fmt.Sprintf("%s:3478?transport=tcp", c.TURNServer),
	}
}

// TURNCredentials returns the TURN username and password.
func (c *Client) TURNCredentials() (string, string) {
	return c.TURNUser, c.TURNPass
}
