package events

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens map[string]int64

func (f fakeTokens) ParseToken(token string) (int64, error) {
	id, ok := f[token]
	if !ok {
		return 0, errors.New("invalid token")
	}
	return id, nil
}

func TestWSHandler_StreamsOwnEvents(t *testing.T) {
	bus := NewBus()
	srv := httptest.NewServer(NewWSHandler(bus, fakeTokens{"t1": 7}, "*", nil))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=t1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		bus.mu.RLock()
		defer bus.mu.RUnlock()
		return len(bus.subs) == 1
	}, time.Second, 10*time.Millisecond)

	bus.Publish(Event{Type: "other", UserID: 8})
	bus.Publish(Event{Type: "trade_order.created", UserID: 7, Data: map[string]int{"id": 1}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "trade_order.created", got.Type)
	assert.Equal(t, 1, got.Data["id"])
}

func TestWSHandler_RejectsBadToken(t *testing.T) {
	h := NewWSHandler(NewBus(), fakeTokens{}, "*", nil)
	for _, target := range []string{"/ws", "/ws?token=nope"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}
}
