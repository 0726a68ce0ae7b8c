package mesh

import "github.com/pion/webrtc/v4"

// Role is the negotiation role for one peer link.
type Role int

const (
	// Initiator proposes the offer and opens the data channel.
	Initiator Role = iota

	// Responder answers an incoming offer and receives the channel.
	Responder
)

func (r Role) String() string {
	if r == Initiator {
		return "initiator"
	}
	return "responder"
}

// Phase is the lifecycle state of one peer link.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNegotiating
	PhaseOpen
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNegotiating:
		return "negotiating"
	case PhaseOpen:
		return "open"
	default:
		return "closed"
	}
}

// peerConn is the slice of *webrtc.PeerConnection the coordinator drives.
type peerConn interface {
	CreateOffer(*webrtc.OfferOptions) (webrtc.SessionDescription, error)
	CreateAnswer(*webrtc.AnswerOptions) (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error
	Close() error
}

// dataChannel is the slice of *webrtc.DataChannel the coordinator drives.
type dataChannel interface {
	Send([]byte) error
	Close() error
}

// Link is the negotiation record for one remote peer. At most one Link
// exists per remote id; all fields are owned by the coordinator loop and
// never touched from other goroutines.
type Link struct {
	remote string
	role   Role
	phase  Phase

	pc      peerConn
	channel dataChannel

	// synced marks that the initial content resync has been sent, so a
	// late joiner receives the current document exactly once.
	synced bool
}

// Remote returns the remote client id this link connects to.
func (l *Link) Remote() string { return l.remote }

// Role returns the negotiation role of the local side.
func (l *Link) Role() Role { return l.role }

// Phase returns the current lifecycle phase.
func (l *Link) Phase() Phase { return l.phase }
