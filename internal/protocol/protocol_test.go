package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestEncodeRequestShape(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeRequest(&buf, Request{
		ID: "a8826aec-2bdf-4d2d-9a65-0441c806b163",
		Tasks: []Event{
			NewEvent("open", "all:52823376"),
			NewEvent("settings", map[string]any{"port": 8080}),
			NewEvent("heartbeat"),
		},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"id":"a8826aec-2bdf-4d2d-9a65-0441c806b163","tasks":[["open","all:52823376"],["settings",{"port":8080}],["heartbeat"]]}`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Fatalf("unexpected body\n got=%s\nwant=%s", got, want)
	}
}

func TestEncodeRequestEmptyTasksIsArray(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeRequest(&buf, Request{ID: "x", Namespace: "/io"}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `{"id":"x","ns":"/io","tasks":[]}`
	if got := strings.TrimSpace(buf.String()); got != want {
		t.Fatalf("got=%s want=%s", got, want)
	}
	if err := EncodeRequest(&buf, Request{}); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
}

func TestDecodeEvents(t *testing.T) {
	events, err := DecodeEvents(strings.NewReader(`[["connect","s1"],["update",{"cards":[1,2]}],["remove"]]`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("unexpected event count=%d", len(events))
	}
	if events[0].Name != EventConnect {
		t.Fatalf("unexpected first event: %v", events[0])
	}
	if s, ok := events[0].Args.String(0); !ok || s != "s1" {
		t.Fatalf("unexpected connect arg: %v", events[0].Args)
	}
	m, ok := events[1].Args.Map(0)
	if !ok || len(m["cards"].([]any)) != 2 {
		t.Fatalf("unexpected update arg: %v", events[1].Args)
	}
	if events[2].Name != "remove" || events[2].Args.Len() != 0 {
		t.Fatalf("unexpected remove event: %v", events[2])
	}
}

func TestDecodeEventsEmpty(t *testing.T) {
	for _, body := range []string{"", "  \n", "[]"} {
		events, err := DecodeEvents(strings.NewReader(body))
		if err != nil {
			t.Fatalf("body=%q err=%v", body, err)
		}
		if len(events) != 0 {
			t.Fatalf("body=%q events=%v", body, events)
		}
	}
}

func TestDecodeEventsMalformed(t *testing.T) {
	cases := map[string]error{
		`{"not":"a list"}`:  ErrMalformedPayload,
		`[[]]`:              ErrEmptyTuple,
		`[[42,"x"]]`:        ErrNameNotString,
		`[[""]]`:            ErrEmptyName,
		`<html>oops</html>`: ErrMalformedPayload,
	}
	for body, want := range cases {
		_, err := DecodeEvents(strings.NewReader(body))
		if !errors.Is(err, want) {
			t.Fatalf("body=%q expected %v, got %v", body, want, err)
		}
		if !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("body=%q should also match ErrMalformedPayload, got %v", body, err)
		}
	}
}

func TestDecodeRequest(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"id":"abc","ns":"/io","tasks":[["open","all:"],["error","boom"]]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.ID != "abc" || req.Namespace != "/io" || len(req.Tasks) != 2 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Tasks[1].Name != EventError {
		t.Fatalf("unexpected second task: %v", req.Tasks[1])
	}
	if _, err := DecodeRequest(strings.NewReader("")); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
	if _, err := DecodeRequest(strings.NewReader(`{"tasks":[]}`)); !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if _, err := DecodeRequest(strings.NewReader(`{"id":`)); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestEventMarshalRejectsEmptyName(t *testing.T) {
	if _, err := json.Marshal(Event{}); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestArgsAccessors(t *testing.T) {
	args := Args{"s", float64(3), json.Number("7"), 2.5, map[string]any{"k": "v"}}
	if v, ok := args.Int(1); !ok || v != 3 {
		t.Fatalf("Int(1) got=%d ok=%v", v, ok)
	}
	if v, ok := args.Int(2); !ok || v != 7 {
		t.Fatalf("Int(2) got=%d ok=%v", v, ok)
	}
	if _, ok := args.Int(3); ok {
		t.Fatalf("Int(3) should reject fractional value")
	}
	if _, ok := args.String(9); ok {
		t.Fatalf("String out of range should fail")
	}
	if _, ok := args.Map(0); ok {
		t.Fatalf("Map(0) should fail for string")
	}
	if !IsReserved(EventReconnect) || IsReserved("update") {
		t.Fatalf("unexpected reserved classification")
	}
}

func TestCheckEncodable(t *testing.T) {
	if err := CheckEncodable(NewEvent("settings", 1, "x", map[string]any{"a": true})); err != nil {
		t.Fatalf("plain args should encode: %v", err)
	}
	for _, bad := range []Event{
		NewEvent("progress", math.NaN()),
		NewEvent("hook", func() {}),
		NewEvent("pipe", make(chan int)),
		NewEvent(""),
	} {
		if err := CheckEncodable(bad); !errors.Is(err, ErrUnencodable) {
			t.Fatalf("%v: expected ErrUnencodable, got %v", bad, err)
		}
	}
}
