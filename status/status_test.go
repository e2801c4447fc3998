package status

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func waitLast(t *testing.T, message string) status {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if data := Last(); data != nil {
			var s status
			if err := json.Unmarshal(data, &s); err != nil {
				t.Fatal(err)
			}
			if s.Message == message {
				return s
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("status %q was not broadcasted", message)
	return status{}
}

func TestProgressSanitized(t *testing.T) {
	Progress(float32(math.NaN()), "decoding %s", "w01.hsf")
	s := waitLast(t, "decoding w01.hsf")
	if s.Type != PROGRESS || s.Progress != 0 {
		t.Errorf("status %+v; expected progress 0", s)
	}
}

func TestWebsocketFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(HandlerWebsocket))
	defer srv.Close()

	Info("hello")
	waitLast(t, "hello")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	// new client receives last message first
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	var s status
	if err := json.Unmarshal(data, &s); err != nil || s.Message != "hello" {
		t.Errorf("first message %q, %v; expected hello", data, err)
	}

	Error("broken %d", 7)
	_, data, err = conn.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &s); err != nil || s.Message != "broken 7" || s.Type != ERROR {
		t.Errorf("second message %q, %v; expected error broken 7", data, err)
	}
}
