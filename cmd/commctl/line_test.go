package main

import (
	"testing"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

func TestParseLine(t *testing.T) {
	name, args, ok := parseLine(`  echo hello 42 true {"k":1}  `)
	if !ok || name != "echo" || len(args) != 4 {
		t.Fatalf("unexpected parse: %q %v %v", name, args, ok)
	}
	if args[0] != "hello" || args[1] != float64(42) || args[2] != true {
		t.Fatalf("unexpected arg types: %#v", args)
	}
	if m, ok := args[3].(map[string]any); !ok || m["k"] != float64(1) {
		t.Fatalf("unexpected object arg: %#v", args[3])
	}

	for _, line := range []string{"", "   ", "# comment"} {
		if _, _, ok := parseLine(line); ok {
			t.Fatalf("line %q should be skipped", line)
		}
	}
}

func TestFormatEvent(t *testing.T) {
	if got := formatEvent("", protocol.NewEvent("connect")); got != "/ connect []" {
		t.Fatalf("unexpected format: %q", got)
	}
	if got := formatEvent("/io", protocol.NewEvent("echo", "hi", 2)); got != `/io echo ["hi",2]` {
		t.Fatalf("unexpected format: %q", got)
	}
}
