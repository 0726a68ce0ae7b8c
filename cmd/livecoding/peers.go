package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/artofey/livecoding/internal/config"
	"github.com/artofey/livecoding/internal/logging"
	"github.com/artofey/livecoding/internal/signaling"
	"github.com/artofey/livecoding/internal/ui"
)

var (
	flagPeersServer string
	flagPeersRoom   string
	flagPeersID     string
)

const snapshotTimeout = 5 * time.Second

var peersCmd = &cobra.Command{
	Use:     "peers",
	Aliases: []string{"p"},
	Short:   "List the clients currently in a room",
	Long: `Connect, ask the server who is in the room, print the answer and leave.

Examples:
  livecoding peers --server wss://example.com/ws --room standup`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient(config.ClientOptions{
			ServerURL: flagPeersServer,
			Room:      flagPeersRoom,
			ClientID:  flagPeersID,
		}, nil)
		if err != nil {
			return err
		}
		return listPeers(cfg)
	},
}

func listPeers(cfg *config.Client) error {
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Console = true
	logging.Setup(logCfg)

	conn, err := signaling.Dial(cfg.ServerURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	handler := signaling.NewHandler(conn)
	go handler.Start()

	// Joining triggers a snapshot broadcast, so the explicit request only
	// covers servers that are slow to register us.
	conn.JoinRoom(cfg.ClientID, cfg.Room)
	conn.RequestClients(cfg.Room)

	select {
	case snapshot, ok := <-handler.Snapshots:
		if !ok {
			return fmt.Errorf("connection to %s lost", cfg.ServerURL)
		}
		fmt.Println(ui.MemberListView(cfg.ClientID, snapshot))
		return nil
	case <-time.After(snapshotTimeout):
		return fmt.Errorf("no response from %s within %s", cfg.ServerURL, snapshotTimeout)
	}
}

func init() {
	rootCmd.AddCommand(peersCmd)

	peersCmd.Flags().StringVar(&flagPeersServer, "server", "", "Signaling server websocket URL (ws:// or wss://)")
	peersCmd.Flags().StringVarP(&flagPeersRoom, "room", "r", "", "Room to inspect (empty selects the global room)")
	peersCmd.Flags().StringVar(&flagPeersID, "id", "", "Client ID (generated when omitted)")
}
