package protocol

import (
	"encoding/json"
	"testing"
)

func TestMessageTypeKnown(t *testing.T) {
	cases := []struct {
		typ  MessageType
		want bool
	}{
		{TypeNewClient, true},
		{TypeCreateRoom, true},
		{TypeJoinRoom, true},
		{TypeGetClients, true},
		{TypeClients, true},
		{TypeOffer, true},
		{TypeAnswer, true},
		{TypeCandidate, true},
		{MessageType("ping"), false},
		{MessageType(""), false},
	}
	for _, tc := range cases {
		if got := tc.typ.Known(); got != tc.want {
			t.Errorf("Known(%q)=%v, want %v", tc.typ, got, tc.want)
		}
	}
}

func TestMessageTypeRouted(t *testing.T) {
	for _, typ := range []MessageType{TypeOffer, TypeAnswer, TypeCandidate} {
		if !typ.Routed() {
			t.Errorf("Routed(%q)=false, want true", typ)
		}
	}
	for _, typ := range []MessageType{TypeNewClient, TypeJoinRoom, TypeClients, TypeGetClients} {
		if typ.Routed() {
			t.Errorf("Routed(%q)=true, want false", typ)
		}
	}
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	b, err := json.Marshal(&Envelope{Type: TypeJoinRoom, ClientId: "a", RoomId: "room7"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(b)
	want := `{"type":"joinRoom","clientId":"a","roomId":"room7"}`
	if got != want {
		t.Fatalf("marshal=%s, want %s", got, want)
	}
}

func TestEnvelopeOfferPayloadOpaque(t *testing.T) {
	// The hub must route offers without touching the payload, so the raw
	// bytes have to survive a decode/encode round through the envelope.
	frame := []byte(`{"type":"offer","clientId":"b","offer":{"type":"offer","sdp":"v=0"}}`)

	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Type != TypeOffer || env.ClientId != "b" {
		t.Fatalf("decoded envelope %+v", env)
	}
	if string(env.Offer) != `{"type":"offer","sdp":"v=0"}` {
		t.Fatalf("offer payload = %s", env.Offer)
	}
	if env.SenderId != "" {
		t.Fatalf("senderId should be unset until the hub stamps it, got %q", env.SenderId)
	}
}

func TestSnapshot(t *testing.T) {
	env := Snapshot([]string{"a", "b"})
	if env.Type != TypeClients {
		t.Fatalf("type=%q, want %q", env.Type, TypeClients)
	}
	if len(env.Clients) != 2 {
		t.Fatalf("clients=%v", env.Clients)
	}
}
