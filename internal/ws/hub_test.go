package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"

	"careline-service/internal/domain"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub()

	hub.AddClient(1, nil, ConnInfo{ConnID: "a"})
	if len(hub.rooms) != 1 {
		t.Fatalf("expected chat room to be created")
	}

	hub.RemoveClient(1, nil)
	if len(hub.rooms) != 0 {
		t.Fatalf("expected chat room to be removed")
	}
}

func TestHubRemoveClientClearsConnInfo(t *testing.T) {
	hub := NewHub()

	hub.AddClient(2, nil, ConnInfo{ConnID: "b", UserID: 7})
	if _, ok := hub.getConnInfo(2, nil); !ok {
		t.Fatalf("expected conn info to be tracked")
	}

	hub.RemoveClient(2, nil)
	if _, ok := hub.getConnInfo(2, nil); ok {
		t.Fatalf("expected conn info to be dropped")
	}
}

// Broadcast must never iterate a room map while connects and disconnects
// mutate it; run with -race.
func TestHubBroadcastConcurrentWithConnectDisconnect(t *testing.T) {
	hub := NewHub()

	echo := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := echo.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conns := make([]*websocket.Conn, 4)
	for i := range conns {
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		conns[i] = conn
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			for _, conn := range conns {
				hub.AddClient(9, conn, ConnInfo{ConnID: "c"})
			}
			for _, conn := range conns {
				hub.RemoveClient(9, conn)
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			hub.Broadcast(9, domain.ChatEvent{Type: domain.EventMessageCreated, Message: &domain.Message{ID: i}})
		}
	}()
	wg.Wait()
}
