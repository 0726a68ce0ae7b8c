package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// PeerTableItem is one row in the peer table.
type PeerTableItem struct {
	Index int
	ID    string
	Role  string
	State string
}

// PeerTableView renders the current peer links as a table.
func PeerTableView(items []PeerTableItem) string {
	if len(items) == 0 {
		return MutedStyle.Render("No peers")
	}

	headers := []string{"#", "Peer", "Role", "State"}

	var rows [][]string
	for _, item := range items {
		row := []string{fmt.Sprintf("%d", item.Index), item.ID, item.Role, item.State}
		rows = append(rows, row)
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// RenderPeerTable outputs the peer table directly to stdout.
func RenderPeerTable(items []PeerTableItem) {
	fmt.Println(PeerTableView(items))
}

// MemberListView renders a plain membership snapshot as a table.
func MemberListView(self string, members []string) string {
	if len(members) == 0 {
		return MutedStyle.Render("Room is empty")
	}

	var rows [][]string
	for i, id := range members {
		marker := ""
		if id == self {
			marker = "(you)"
		}
		rows = append(rows, []string{fmt.Sprintf("%d", i+1), id, marker})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("#", "Client ID", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// SessionInfo is the banner shown when a session starts.
type SessionInfo struct {
	Room     string
	ClientID string
	Server   string
}

func (s *SessionInfo) View() string {
	room := s.Room
	if room == "" {
		room = "(global)"
	}

	content := fmt.Sprintf("%s Session Joined!\n\n%s Room:       %s\n%s Client ID:  %s\n%s Server:     %s",
		IconSuccess,
		IconRoom, BoldStyle.Foreground(Primary).Render(room),
		IconPeer, BoldStyle.Render(s.ClientID),
		IconConnect, MutedStyle.Render(s.Server),
	)

	return SessionBoxStyle.Render(content)
}
