package channel

import (
	"testing"

	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/danmuck/xhrcomm/internal/testutil/testlog"
)

func names(events []protocol.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.Name
	}
	return out
}

func TestConnTrackerFirstConnect(t *testing.T) {
	testlog.Start(t)
	var tr connTracker
	out := tr.observe(protocol.NewEvent("connect", "s1"))
	if len(out) != 1 || out[0].Name != "connect" {
		t.Fatalf("unexpected deliveries: %v", names(out))
	}
	if s, _ := out[0].Args.String(0); s != "s1" {
		t.Fatalf("unexpected args: %v", out[0].Args)
	}
	if tr.state != StateConnected {
		t.Fatalf("state got=%v", tr.state)
	}
}

func TestConnTrackerReconnect(t *testing.T) {
	testlog.Start(t)
	tr := connTracker{state: StateConnected}
	out := tr.observe(protocol.NewEvent("connect", "s2"))
	if got := names(out); len(got) != 2 || got[0] != "disconnect" || got[1] != "reconnect" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
	for _, ev := range out {
		if s, _ := ev.Args.String(0); s != "s2" || ev.Args.Len() != 1 {
			t.Fatalf("%s should carry connect params, got %v", ev.Name, ev.Args)
		}
	}
	if tr.state != StateConnected {
		t.Fatalf("state got=%v", tr.state)
	}
	if s, _ := tr.last.String(0); s != "s2" {
		t.Fatalf("last connect params not updated: %v", tr.last)
	}
}

func TestConnTrackerPassesOtherEvents(t *testing.T) {
	testlog.Start(t)
	var tr connTracker
	out := tr.observe(protocol.NewEvent("disconnect"))
	if len(out) != 1 || out[0].Name != "disconnect" || tr.state != StateDisconnected {
		t.Fatalf("non-connect events must pass through without a transition: %v state=%v", names(out), tr.state)
	}
	if StateConnected.String() != "connected" || StateDisconnected.String() != "disconnected" {
		t.Fatalf("unexpected state names")
	}
}
