package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danmuck/xhrcomm/internal/protocol"
)

// parseLine splits "name arg..." into an event. Args that parse as JSON keep
// their JSON type; anything else is sent as a string.
func parseLine(line string) (string, []any, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return "", nil, false
	}
	args := make([]any, 0, len(fields)-1)
	for _, raw := range fields[1:] {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		args = append(args, v)
	}
	return fields[0], args, true
}

func formatEvent(namespace string, ev protocol.Event) string {
	ns := namespace
	if ns == "" {
		ns = "/"
	}
	args, err := json.Marshal([]any(ev.Args))
	if err != nil {
		args = []byte(fmt.Sprintf("%v", []any(ev.Args)))
	}
	if ev.Args == nil {
		args = []byte("[]")
	}
	return fmt.Sprintf("%s %s %s", ns, ev.Name, args)
}
