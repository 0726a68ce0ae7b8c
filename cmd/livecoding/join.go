package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artofey/livecoding/internal/config"
	"github.com/artofey/livecoding/internal/docsync"
	"github.com/artofey/livecoding/internal/logging"
	"github.com/artofey/livecoding/internal/mesh"
	"github.com/artofey/livecoding/internal/signaling"
	"github.com/artofey/livecoding/internal/ui"
)

var (
	flagServer   string
	flagRoom     string
	flagClientID string
	flagSTUN     string
	flagTURN     string
	flagTURNUser string
	flagTURNPass string
)

var joinCmd = &cobra.Command{
	Use:     "join",
	Aliases: []string{"j"},
	Short:   "Join a collaborative session",
	Long: `Join a room and hold a data channel to every other participant.

Lines typed on stdin are broadcast as the new document content. Slash
commands inspect the session:

  /peers            show the state of every peer link
  /cursor <row> <col>  announce your cursor position
  /quit             leave the session

Examples:
  livecoding join --server wss://example.com/ws --room standup
  livecoding join --server ws://localhost:3443/ws --id alice`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadClient(config.ClientOptions{
			ServerURL: flagServer,
			Room:      flagRoom,
			ClientID:  flagClientID,
			STUN:      flagSTUN,
			TURN:      flagTURN,
			TURNUser:  flagTURNUser,
			TURNPass:  flagTURNPass,
		}, nil)
		if err != nil {
			return err
		}
		return runSession(cmd.Context(), cfg)
	},
}

// peerUpdate carries one remote document message off the coordinator loop.
type peerUpdate struct {
	remote string
	msg    docsync.Message
}

func runSession(parent context.Context, cfg *config.Client) error {
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

	conn.JoinRoom(cfg.ClientID, cfg.Room)
	conn.RequestClients(cfg.Room)

	doc := docsync.NewDocument()
	ice := mesh.ICEServers(cfg.STUNServers(), cfg.TURNServers(), cfg.TURNUser, cfg.TURNPass)

	// The coordinator calls back on its own loop; hand updates to the
	// session loop through a channel so printing never blocks negotiation.
	updates := make(chan peerUpdate, 16)
	coord := mesh.New(cfg.ClientID, conn, doc, ice, func(remote string, msg docsync.Message) {
		select {
		case updates <- peerUpdate{remote: remote, msg: msg}:
		default:
		}
	})

	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()
	go coord.Run(ctx)

	info := ui.SessionInfo{Room: cfg.Room, ClientID: cfg.ClientID, Server: cfg.ServerURL}
	fmt.Println(info.View())
	fmt.Println(ui.MutedStyle.Render("Type to broadcast content, /peers to inspect links, /quit to leave."))
	fmt.Println()

	lines := readLines()

	for {
		select {
		case <-ctx.Done():
			fmt.Printf("%s Leaving session\n", ui.IconLeave)
			return nil

		case snapshot, ok := <-handler.Snapshots:
			if !ok {
				return fmt.Errorf("connection to %s lost", cfg.ServerURL)
			}
			coord.HandleSnapshot(snapshot)
			fmt.Println(ui.MemberListView(cfg.ClientID, snapshot))

		case env, ok := <-handler.Signals:
			if !ok {
				return fmt.Errorf("connection to %s lost", cfg.ServerURL)
			}
			coord.HandleSignal(env)

		case u := <-updates:
			printUpdate(u)

		case line, ok := <-lines:
			if !ok {
				fmt.Printf("%s Leaving session\n", ui.IconLeave)
				return nil
			}
			if done := handleLine(coord, line); done {
				fmt.Printf("%s Leaving session\n", ui.IconLeave)
				return nil
			}
		}
	}
}

// handleLine interprets one stdin line. Returns true when the session
// should end.
func handleLine(coord *mesh.Coordinator, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	switch {
	case line == "/quit":
		return true

	case line == "/peers":
		peers := coord.Peers()
		items := make([]ui.PeerTableItem, 0, len(peers))
		for i, p := range peers {
			items = append(items, ui.PeerTableItem{
				Index: i + 1,
				ID:    p.ID,
				Role:  p.Role.String(),
				State: p.Phase.String(),
			})
		}
		ui.RenderPeerTable(items)

	case strings.HasPrefix(line, "/cursor"):
		fields := strings.Fields(line)
		if len(fields) != 3 {
			ui.PrintWarning("usage: /cursor <row> <col>")
			return false
		}
		row, err1 := strconv.Atoi(fields[1])
		col, err2 := strconv.Atoi(fields[2])
		if err1 != nil || err2 != nil {
			ui.PrintWarning("usage: /cursor <row> <col>")
			return false
		}
		coord.BroadcastCursor(docsync.Cursor{Row: row, Col: col})

	case strings.HasPrefix(line, "/"):
		ui.PrintWarning(fmt.Sprintf("unknown command %s", line))

	default:
		coord.BroadcastContent(line)
	}
	return false
}

func printUpdate(u peerUpdate) {
	switch u.msg.Type {
	case docsync.KindContentSync:
		var payload docsync.ContentPayload
		if err := u.msg.DecodePayload(&payload); err != nil {
			return
		}
		fmt.Printf("%s %s %s\n", ui.IconEdit, ui.PeerStyle.Render(u.remote), payload.Content)

	case docsync.KindCursor:
		var payload docsync.CursorPayload
		if err := u.msg.DecodePayload(&payload); err != nil {
			return
		}
		fmt.Printf("%s %s moved to %d:%d\n", ui.IconPeer, ui.PeerStyle.Render(u.remote), payload.Row, payload.Col)
	}
}

// readLines streams stdin line by line. The channel closes on EOF.
func readLines() <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			out <- scanner.Text()
		}
	}()
	return out
}

func init() {
	rootCmd.AddCommand(joinCmd)

	joinCmd.Flags().StringVar(&flagServer, "server", "", "Signaling server websocket URL (ws:// or wss://)")
	joinCmd.Flags().StringVarP(&flagRoom, "room", "r", "", "Room to join (empty selects the global room)")
	joinCmd.Flags().StringVar(&flagClientID, "id", "", "Client ID (generated when omitted)")
	joinCmd.Flags().StringVarP(&flagSTUN, "stun", "s", "", "Custom STUN server")
	joinCmd.Flags().StringVarP(&flagTURN, "turn", "t", "", "Custom TURN server")
	joinCmd.Flags().StringVar(&flagTURNUser, "turn-user", "", "TURN username")
	joinCmd.Flags().StringVar(&flagTURNPass, "turn-pass", "", "TURN password")
}
