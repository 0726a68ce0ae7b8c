// Package mesh owns the set of peer links and the negotiation state machine
// that builds a full mesh of data channels, one per remote room member.
package mesh

import (
	"context"
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"

	"github.com/artofey/livecoding/internal/docsync"
	"github.com/artofey/livecoding/internal/logging"
	"github.com/artofey/livecoding/internal/membership"
	"github.com/artofey/livecoding/internal/protocol"
)

// Signaler sends envelopes toward the hub. Satisfied by *signaling.Conn.
type Signaler interface {
	Send(env *protocol.Envelope)
}

// UpdateFunc is invoked on the coordinator loop whenever a remote peer
// delivers a document message. The editing surface hangs off this.
type UpdateFunc func(remote string, msg docsync.Message)

// PeerStatus is a point-in-time view of one link, for status displays.
type PeerStatus struct {
	ID    string
	Role  Role
	Phase Phase
}

// Coordinator drives all peer links from a single cooperative loop: every
// entry point posts a closure onto the task queue, so negotiation steps for
// one remote id never interleave with each other, while links for different
// ids progress independently (pion does the blocking work on its own
// goroutines).
type Coordinator struct {
	self     string
	signaler Signaler
	doc      *docsync.Document
	tracker  *membership.Tracker
	onUpdate UpdateFunc

	cfg   webrtc.Configuration
	links map[string]*Link

	// newLink is swappable so the state machine is testable without ICE.
	newLink func(remote string, role Role) (*Link, error)

	tasks chan func()
	done  chan struct{}

	log zerolog.Logger
}

// New creates a coordinator for the local client id.
func New(self string, signaler Signaler, doc *docsync.Document, iceServers []webrtc.ICEServer, onUpdate UpdateFunc) *Coordinator {
	c := &Coordinator{
		self:     self,
		signaler: signaler,
		doc:      doc,
		tracker:  membership.NewTracker(self),
		onUpdate: onUpdate,
		cfg:      webrtc.Configuration{ICEServers: iceServers},
		links:    make(map[string]*Link),
		tasks:    make(chan func(), 64),
		done:     make(chan struct{}),
		log:      logging.Component("mesh").With().Str("self", self).Logger(),
	}
	c.newLink = c.dialLink
	return c
}

// Run executes the coordinator loop until the context is canceled, then
// tears down every remaining link.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			for remote := range c.links {
				c.teardown(remote, "shutting down")
			}
			return
		case task := <-c.tasks:
			task()
		}
	}
}

// do posts a closure onto the coordinator loop. Safe from any goroutine;
// a coordinator that has already stopped discards the work.
func (c *Coordinator) do(fn func()) {
	select {
	case c.tasks <- fn:
	case <-c.done:
	}
}

// HandleSnapshot feeds a membership snapshot through the tracker: links are
// created toward newly seen peers with self as initiator and torn down for
// departed ones.
func (c *Coordinator) HandleSnapshot(snapshot []string) {
	c.do(func() {
		joined, left := c.tracker.Apply(snapshot)
		for _, remote := range left {
			c.teardown(remote, "peer left room")
		}
		for _, remote := range joined {
			c.create(remote, Initiator)
		}
	})
}

// HandleSignal dispatches a routed negotiation envelope. The sender id is
// hub-stamped; an envelope without one is dropped.
func (c *Coordinator) HandleSignal(env *protocol.Envelope) {
	if env.SenderId == "" {
		c.log.Warn().Str("type", string(env.Type)).Msg("signal without sender id dropped")
		return
	}
	c.do(func() {
		switch env.Type {
		case protocol.TypeOffer:
			c.handleOffer(env.SenderId, env.Offer)
		case protocol.TypeAnswer:
			c.handleAnswer(env.SenderId, env.Answer)
		case protocol.TypeCandidate:
			c.handleCandidate(env.SenderId, env.Candidate)
		}
	})
}

// BroadcastContent records content as the latest local write and sends it to
// every open link. A failed write tears that one link down without aborting
// delivery to the rest.
func (c *Coordinator) BroadcastContent(content string) {
	c.doc.SetContent(content)
	c.do(func() {
		msg, err := docsync.NewMessage(docsync.KindContentSync, docsync.ContentPayload{Content: content})
		if err != nil {
			c.log.Error().Err(err).Msg("encode content")
			return
		}
		c.sendAll(msg)
	})
}

// BroadcastCursor announces the local cursor position to every open link.
func (c *Coordinator) BroadcastCursor(cur docsync.Cursor) {
	c.do(func() {
		msg, err := docsync.NewMessage(docsync.KindCursor, docsync.CursorPayload{
			ClientId: c.self,
			Row:      cur.Row,
			Col:      cur.Col,
		})
		if err != nil {
			c.log.Error().Err(err).Msg("encode cursor")
			return
		}
		c.sendAll(msg)
	})
}

// Peers returns a snapshot of the current links. Returns nil after the
// coordinator has stopped.
func (c *Coordinator) Peers() []PeerStatus {
	reply := make(chan []PeerStatus, 1)
	c.do(func() {
		out := make([]PeerStatus, 0, len(c.links))
		for _, l := range c.links {
			out = append(out, PeerStatus{ID: l.remote, Role: l.role, Phase: l.phase})
		}
		reply <- out
	})
	select {
	case out := <-reply:
		return out
	case <-c.done:
		return nil
	}
}

// create is idempotent: a request for an id that already has a live record
// returns the existing record and sends nothing.
func (c *Coordinator) create(remote string, role Role) *Link {
	if l, ok := c.links[remote]; ok {
		return l
	}

	l, err := c.newLink(remote, role)
	if err != nil {
		c.log.Error().Err(err).Str("remote", remote).Msg("create peer link")
		return nil
	}
	c.links[remote] = l
	c.log.Info().Str("remote", remote).Str("role", role.String()).Msg("peer link created")

	if role == Initiator {
		c.negotiate(l)
	}
	return l
}

// negotiate runs the initiator's side: local offer, then hand it to the hub
// addressed to the remote id. Candidates trickle separately.
func (c *Coordinator) negotiate(l *Link) {
	l.phase = PhaseNegotiating

	offer, err := l.pc.CreateOffer(nil)
	if err != nil {
		c.log.Error().Err(err).Str("remote", l.remote).Msg("create offer")
		c.teardown(l.remote, "offer creation failed")
		return
	}
	if err := l.pc.SetLocalDescription(offer); err != nil {
		c.log.Error().Err(err).Str("remote", l.remote).Msg("set local offer")
		c.teardown(l.remote, "local description failed")
		return
	}

	body, err := json.Marshal(offer)
	if err != nil {
		c.teardown(l.remote, "offer marshal failed")
		return
	}
	c.signaler.Send(&protocol.Envelope{Type: protocol.TypeOffer, ClientId: l.remote, Offer: body})
}

func (c *Coordinator) handleOffer(remote string, raw json.RawMessage) {
	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		c.log.Warn().Err(err).Str("remote", remote).Msg("malformed offer dropped")
		return
	}

	l := c.links[remote]
	if l != nil && l.role == Initiator && l.phase == PhaseNegotiating {
		// Offer glare: both sides initiated toward each other off the
		// same snapshot. The lexicographically smaller id yields and
		// answers; the greater id keeps its own offer outstanding.
		if c.self < remote {
			c.teardown(remote, "offer glare, yielding to remote")
			l = nil
		} else {
			c.log.Debug().Str("remote", remote).Msg("offer glare, keeping local offer")
			return
		}
	}
	if l != nil && l.phase != PhaseIdle {
		c.log.Warn().Str("remote", remote).Str("phase", l.phase.String()).Msg("offer in unexpected phase dropped")
		return
	}

	if l == nil {
		// A responder record is created reactively: the offer may
		// arrive before the snapshot that announces the peer.
		if l = c.create(remote, Responder); l == nil {
			return
		}
	}

	l.phase = PhaseNegotiating
	if err := l.pc.SetRemoteDescription(desc); err != nil {
		c.log.Error().Err(err).Str("remote", remote).Msg("apply offer")
		c.teardown(remote, "remote offer rejected")
		return
	}
	answer, err := l.pc.CreateAnswer(nil)
	if err != nil {
		c.teardown(remote, "answer creation failed")
		return
	}
	if err := l.pc.SetLocalDescription(answer); err != nil {
		c.teardown(remote, "local answer failed")
		return
	}

	body, err := json.Marshal(answer)
	if err != nil {
		c.teardown(remote, "answer marshal failed")
		return
	}
	c.signaler.Send(&protocol.Envelope{Type: protocol.TypeAnswer, ClientId: remote, Answer: body})
}

func (c *Coordinator) handleAnswer(remote string, raw json.RawMessage) {
	l := c.links[remote]
	if l == nil || l.role != Initiator || l.phase != PhaseNegotiating {
		c.log.Warn().Str("remote", remote).Msg("answer without matching offer dropped")
		return
	}

	var desc webrtc.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		c.log.Warn().Err(err).Str("remote", remote).Msg("malformed answer dropped")
		return
	}
	if err := l.pc.SetRemoteDescription(desc); err != nil {
		c.log.Error().Err(err).Str("remote", remote).Msg("apply answer")
		c.teardown(remote, "remote answer rejected")
		return
	}
	// The link leaves Negotiating when the transport reports the channel
	// open, not here.
}

func (c *Coordinator) handleCandidate(remote string, raw json.RawMessage) {
	l := c.links[remote]
	if l == nil {
		// Acceptable loss: the mesh re-establishes off the next
		// snapshot if negotiation stalls.
		c.log.Debug().Str("remote", remote).Msg("candidate for unknown peer dropped")
		return
	}

	var cand webrtc.ICECandidateInit
	if err := json.Unmarshal(raw, &cand); err != nil {
		c.log.Warn().Err(err).Str("remote", remote).Msg("malformed candidate dropped")
		return
	}
	if err := l.pc.AddICECandidate(cand); err != nil {
		c.log.Warn().Err(err).Str("remote", remote).Msg("candidate not incorporated")
	}
}

// transportClosed handles a terminal connection state reported by the
// transport for one specific link. The identity check matters on offer
// glare: the yielded attempt's Closed event arrives after a responder link
// has already replaced it for the same remote, and must not touch it.
func (c *Coordinator) transportClosed(l *Link, reason string) {
	if c.links[l.remote] != l {
		return
	}
	c.teardown(l.remote, reason)
}

// channelOpen marks a link Open. A side that already holds document state
// pushes it exactly once so a late joiner starts from the authoritative
// content without a request round-trip; a side that has seen no writes yet
// stays quiet and waits to receive.
func (c *Coordinator) channelOpen(l *Link, ch dataChannel) {
	if c.links[l.remote] != l {
		return
	}
	l.channel = ch
	l.phase = PhaseOpen
	c.log.Info().Str("remote", l.remote).Msg("data channel open")

	if !l.synced && c.doc.Revision() > 0 {
		l.synced = true
		msg, err := docsync.NewMessage(docsync.KindContentSync, docsync.ContentPayload{Content: c.doc.Content()})
		if err != nil {
			return
		}
		frame, err := msg.Encode()
		if err != nil {
			return
		}
		if err := ch.Send(frame); err != nil {
			c.teardown(l.remote, "resync send failed")
		}
	}
}

// channelMessage applies one inbound data channel frame to the document and
// hands it to the editing surface.
func (c *Coordinator) channelMessage(l *Link, data []byte) {
	if c.links[l.remote] != l {
		return
	}
	remote := l.remote

	msg, err := docsync.Decode(data)
	if err != nil {
		c.log.Warn().Err(err).Str("remote", remote).Msg("malformed channel frame dropped")
		return
	}

	switch msg.Type {
	case docsync.KindContentSync:
		var payload docsync.ContentPayload
		if err := msg.DecodePayload(&payload); err != nil {
			c.log.Warn().Err(err).Str("remote", remote).Msg("bad content payload dropped")
			return
		}
		c.doc.SetContent(payload.Content)

	case docsync.KindCursor:
		var payload docsync.CursorPayload
		if err := msg.DecodePayload(&payload); err != nil {
			c.log.Warn().Err(err).Str("remote", remote).Msg("bad cursor payload dropped")
			return
		}
		// The delivering link, not the payload, names the peer.
		c.doc.SetCursor(remote, docsync.Cursor{Row: payload.Row, Col: payload.Col})

	default:
		c.log.Warn().Str("remote", remote).Str("kind", msg.Type).Msg("unknown channel message dropped")
		return
	}

	if c.onUpdate != nil {
		c.onUpdate(remote, msg)
	}
}

// teardown closes and forgets the link for a remote id. Triggered by a
// membership left event, a terminal transport state, or a send failure.
func (c *Coordinator) teardown(remote, reason string) {
	l := c.links[remote]
	if l == nil {
		return
	}
	delete(c.links, remote)
	l.phase = PhaseClosed

	if l.channel != nil {
		l.channel.Close()
	}
	l.pc.Close()
	c.doc.DropCursor(remote)

	c.log.Info().Str("remote", remote).Str("reason", reason).Msg("peer link closed")
}

// sendAll writes one message to every open link independently. Links whose
// write fails are torn down after the sweep; the rest still get the message.
func (c *Coordinator) sendAll(msg docsync.Message) {
	frame, err := msg.Encode()
	if err != nil {
		c.log.Error().Err(err).Msg("encode channel message")
		return
	}

	var failed []string
	for remote, l := range c.links {
		if l.phase != PhaseOpen {
			continue
		}
		if err := l.channel.Send(frame); err != nil {
			c.log.Warn().Err(err).Str("remote", remote).Msg("channel send failed")
			failed = append(failed, remote)
		}
	}
	for _, remote := range failed {
		c.teardown(remote, "send failure")
	}
}
