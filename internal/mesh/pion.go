package mesh

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"

	"github.com/artofey/livecoding/internal/protocol"
)

// channelLabel is the data channel carrying document sync traffic.
const channelLabel = "textSync"

// dialLink builds the production peer link on pion. All transport callbacks
// re-enter the coordinator through the task queue, so the state machine only
// ever runs on the coordinator loop.
func (c *Coordinator) dialLink(remote string, role Role) (*Link, error) {
	pc, err := webrtc.NewPeerConnection(c.cfg)
	if err != nil {
		return nil, err
	}

	l := &Link{remote: remote, role: role, phase: PhaseIdle, pc: pc}

	// Trickle ICE: each discovered candidate goes to the hub addressed to
	// the remote id. A nil candidate marks the end of gathering.
	pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		if cand == nil {
			return
		}
		body, err := json.Marshal(cand.ToJSON())
		if err != nil {
			return
		}
		c.signaler.Send(&protocol.Envelope{
			Type:      protocol.TypeCandidate,
			ClientId:  remote,
			Candidate: body,
		})
	})

	// Callbacks carry the link itself, not just the remote id: after an
	// offer-glare yield a new link exists for the same remote, and events
	// from the abandoned transport must not reach it.
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		switch state {
		case webrtc.PeerConnectionStateFailed,
			webrtc.PeerConnectionStateClosed,
			webrtc.PeerConnectionStateDisconnected:
			c.do(func() { c.transportClosed(l, "connection "+state.String()) })
		}
	})

	if role == Initiator {
		ordered := true
		dc, err := pc.CreateDataChannel(channelLabel, &webrtc.DataChannelInit{Ordered: &ordered})
		if err != nil {
			pc.Close()
			return nil, err
		}
		l.channel = dc
		c.wireChannel(l, dc)
	} else {
		pc.OnDataChannel(func(dc *webrtc.DataChannel) {
			if dc.Label() != channelLabel {
				return
			}
			c.wireChannel(l, dc)
		})
	}

	return l, nil
}

func (c *Coordinator) wireChannel(l *Link, dc *webrtc.DataChannel) {
	dc.OnOpen(func() {
		c.do(func() { c.channelOpen(l, dc) })
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		c.do(func() { c.channelMessage(l, msg.Data) })
	})
}

// ICEServers assembles the pion ICE server list from STUN/TURN settings.
func ICEServers(stun []string, turn []string, turnUser, turnPass string) []webrtc.ICEServer {
	servers := []webrtc.ICEServer{{URLs: stun}}
	if turn != nil {
		servers = append(servers, webrtc.ICEServer{
			URLs:       turn,
			Username:   turnUser,
			Credential: turnPass,
		})
	}
	return servers
}
