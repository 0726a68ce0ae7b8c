package config

import (
	"strings"
	"testing"
)

func lookupMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer(lookupMap(nil))
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Fatalf("ListenAddr=%q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("LogLevel=%q, want info", cfg.LogLevel)
	}
}

func TestLoadServerBarePort(t *testing.T) {
	cfg, err := LoadServer(lookupMap(map[string]string{"PORT": "9000"}))
	if err != nil {
		t.Fatalf("LoadServer: %v", err)
	}
	if cfg.ListenAddr != ":9000" {
		t.Fatalf("ListenAddr=%q, want :9000", cfg.ListenAddr)
	}
}

func TestLoadClientRequiresServerURL(t *testing.T) {
	_, err := LoadClient(ClientOptions{}, lookupMap(nil))
	if err == nil {
		t.Fatal("expected error for unset server URL")
	}
	if !strings.Contains(err.Error(), "not set") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadClientRejectsNonWebsocketURL(t *testing.T) {
	_, err := LoadClient(ClientOptions{ServerURL: "http://hub:3443"}, lookupMap(nil))
	if err == nil {
		t.Fatal("expected error for http URL")
	}
}

func TestLoadClientPriority(t *testing.T) {
	env := map[string]string{
		"LIVECODING_SERVER": "ws://env:3443/ws",
		"LIVECODING_ROOM":   "env-room",
		"STUN_SERVER":       "stun:env:3478",
	}

	// Flags win over env.
	cfg, err := LoadClient(ClientOptions{ServerURL: "ws://flag:3443/ws", Room: "flag-room"}, lookupMap(env))
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if cfg.ServerURL != "ws://flag:3443/ws" {
		t.Fatalf("ServerURL=%q", cfg.ServerURL)
	}
	if cfg.Room != "flag-room" {
		t.Fatalf("Room=%q", cfg.Room)
	}
	// Env wins over defaults.
	if cfg.STUNServer != "stun:env:3478" {
		t.Fatalf("STUNServer=%q", cfg.STUNServer)
	}
}

func TestLoadClientGeneratesClientID(t *testing.T) {
	env := map[string]string{"LIVECODING_SERVER": "ws://hub:3443/ws"}
	a, err := LoadClient(ClientOptions{}, lookupMap(env))
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	b, err := LoadClient(ClientOptions{}, lookupMap(env))
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if a.ClientID == "" || a.ClientID == b.ClientID {
		t.Fatalf("ids not unique: %q %q", a.ClientID, b.ClientID)
	}
}

func TestTURNServersEmptyWhenUnconfigured(t *testing.T) {
	cfg, err := LoadClient(ClientOptions{ServerURL: "ws://hub:3443/ws"}, lookupMap(nil))
	if err != nil {
		t.Fatalf("LoadClient: %v", err)
	}
	if got := cfg.TURNServers(); got != nil {
		t.Fatalf("TURNServers=%v, want nil", got)
	}
	cfg.TURNServer = "turn:relay.example.com"
	if got := cfg.TURNServers(); len(got) != 2 {
		t.Fatalf("TURNServers=%v, want 2 entries", got)
	}
}
