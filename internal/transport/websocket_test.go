package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uefbridge/internal/uef"
)

var upgrader = websocket.Upgrader{}

// gatewayServer is a minimal shell gateway for exercising the websocket
// surface: it exposes the server side of one connection.
type gatewayServer struct {
	*httptest.Server
	conns chan *websocket.Conn
}

func newGatewayServer(t *testing.T) *gatewayServer {
	t.Helper()
	gs := &gatewayServer{conns: make(chan *websocket.Conn, 1)}
	gs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		gs.conns <- conn
	}))
	t.Cleanup(gs.Close)
	return gs
}

func (gs *gatewayServer) url() string {
	return "ws" + strings.TrimPrefix(gs.URL, "http")
}

func (gs *gatewayServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-gs.conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no connection arrived")
		return nil
	}
}

func sendFrame(t *testing.T, conn *websocket.Conn, origin, portID string, msg uef.Message) {
	t.Helper()
	data, err := uef.Encode(msg)
	require.NoError(t, err)
	payload, err := json.Marshal(wsFrame{Origin: origin, PortID: portID, Message: data})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func readFrame(t *testing.T, conn *websocket.Conn) (wsFrame, uef.Message) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame wsFrame
	require.NoError(t, json.Unmarshal(payload, &frame))
	msg, err := uef.Decode(frame.Message)
	require.NoError(t, err)
	return frame, msg
}

func TestWebsocketHandshakeAndPortTraffic(t *testing.T) {
	gs := newGatewayServer(t)

	surface, err := DialWebsocket(context.Background(), gs.url())
	require.NoError(t, err)
	defer surface.Close()

	conn := gs.accept(t)
	defer conn.Close()

	// Hello goes out on the public surface: no port id.
	require.NoError(t, surface.Post(uef.NewHello("test")))
	frame, msg := readFrame(t, conn)
	assert.Empty(t, frame.PortID)
	hello, ok := msg.(*uef.Hello)
	require.True(t, ok)
	assert.Equal(t, "test", hello.ClientVersion)

	// The grant materializes a port.
	sendFrame(t, conn, "https://host.example.edu", "", uef.NewHelloResponse("port-7"))
	var grant Grant
	select {
	case grant = <-surface.Grants():
	case <-time.After(2 * time.Second):
		t.Fatal("no grant delivered")
	}
	assert.Equal(t, "https://host.example.edu", grant.Origin)
	assert.Equal(t, "port-7", grant.PortID)

	// Port traffic carries the port id both ways.
	require.NoError(t, grant.Port.Send(uef.NewAuthorize("bearer-abc")))
	frame, msg = readFrame(t, conn)
	assert.Equal(t, "port-7", frame.PortID)
	_, ok = msg.(*uef.Authorize)
	require.True(t, ok)

	sendFrame(t, conn, "", "port-7", uef.NewAuthorizeResponse(uef.StatusSuccess, ""))
	select {
	case in := <-grant.Port.Recv():
		_, ok = in.(*uef.AuthorizeResponse)
		require.True(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("no record delivered on the port")
	}
}

func TestWebsocketUnknownPortDropped(t *testing.T) {
	gs := newGatewayServer(t)

	surface, err := DialWebsocket(context.Background(), gs.url())
	require.NoError(t, err)
	defer surface.Close()

	conn := gs.accept(t)
	defer conn.Close()

	// Traffic for a port never granted is dropped, not fatal.
	sendFrame(t, conn, "", "port-unknown", uef.NewAuthorizeResponse(uef.StatusSuccess, ""))
	sendFrame(t, conn, "https://host.example.edu", "", uef.NewHelloResponse("port-1"))

	select {
	case grant := <-surface.Grants():
		assert.Equal(t, "port-1", grant.PortID)
	case <-time.After(2 * time.Second):
		t.Fatal("grant lost after unknown-port frame")
	}
}

func TestWebsocketServerCloseEndsDelivery(t *testing.T) {
	gs := newGatewayServer(t)

	surface, err := DialWebsocket(context.Background(), gs.url())
	require.NoError(t, err)

	conn := gs.accept(t)
	sendFrame(t, conn, "https://host.example.edu", "", uef.NewHelloResponse("port-1"))
	grant := <-surface.Grants()

	require.NoError(t, conn.Close())

	select {
	case _, ok := <-grant.Port.Recv():
		assert.False(t, ok, "port channel must close on disconnect")
	case <-time.After(2 * time.Second):
		t.Fatal("port channel never closed")
	}

	assert.ErrorIs(t, surface.Post(uef.NewHello("test")), ErrClosed)
}

func TestWebsocketDialFailure(t *testing.T) {
	_, err := DialWebsocket(context.Background(), "ws://127.0.0.1:1/gateway")
	require.Error(t, err)
}
