package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uefbridge/internal/uef"
)

func TestPipeHelloReachesHost(t *testing.T) {
	pipe := NewPipe("https://lms.example.com")
	surface := pipe.Surface()

	require.NoError(t, surface.Post(uef.NewHello("dev")))

	select {
	case msg := <-pipe.HostInbound():
		hello, ok := msg.(*uef.Hello)
		require.True(t, ok)
		assert.Equal(t, "dev", hello.ClientVersion)
	case <-time.After(time.Second):
		t.Fatal("hello never reached the host side")
	}
}

func TestPipeGrantDeliversPort(t *testing.T) {
	pipe := NewPipe("https://lms.example.com")
	surface := pipe.Surface()

	host := pipe.GrantPort("port-1")

	var grant Grant
	select {
	case grant = <-surface.Grants():
	case <-time.After(time.Second):
		t.Fatal("grant never delivered")
	}
	assert.Equal(t, "https://lms.example.com", grant.Origin)
	assert.Equal(t, "port-1", grant.PortID)

	// Traffic flows both ways on the granted port.
	require.NoError(t, grant.Port.Send(uef.NewAuthorize("tok")))
	select {
	case msg := <-host.Recv():
		_, ok := msg.(*uef.Authorize)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("client record never reached host port")
	}

	require.NoError(t, host.Send(uef.NewAuthorizeResponse(uef.StatusSuccess, "")))
	select {
	case msg := <-grant.Port.Recv():
		_, ok := msg.(*uef.AuthorizeResponse)
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("host record never reached client port")
	}
}

func TestPipeGrantFromForeignOrigin(t *testing.T) {
	pipe := NewPipe("https://lms.example.com")
	surface := pipe.Surface()

	pipe.GrantPortFrom("https://evil.example.com", "port-x")

	grant := <-surface.Grants()
	assert.Equal(t, "https://evil.example.com", grant.Origin)
}

func TestPipeClosedSurfaceRejectsPost(t *testing.T) {
	pipe := NewPipe("https://lms.example.com")
	surface := pipe.Surface()
	require.NoError(t, surface.Close())

	assert.ErrorIs(t, surface.Post(uef.NewHello("")), ErrClosed)
}

func TestHostPortCloseEndsClientRecv(t *testing.T) {
	pipe := NewPipe("https://lms.example.com")
	surface := pipe.Surface()

	host := pipe.GrantPort("port-1")
	grant := <-surface.Grants()

	require.NoError(t, host.Close())

	select {
	case _, open := <-grant.Port.Recv():
		assert.False(t, open, "expected closed recv channel")
	case <-time.After(time.Second):
		t.Fatal("recv channel never closed")
	}
}
