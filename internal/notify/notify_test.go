package notify

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToast(t *testing.T) {
	toast := New(LevelError, "Network down")
	assert.NotEmpty(t, toast.ID)
	assert.Equal(t, LevelError, toast.Level)
	assert.Equal(t, "Network down", toast.Message)
	assert.WithinDuration(t, time.Now().UTC(), toast.CreatedAt, time.Second)
}

func TestConsoleWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.Notify(New(LevelError, "Invalid request: bad_id"))
	c.Notify(New(LevelSuccess, "Request approved"))
	c.Notify(Toast{Level: "custom", Message: "odd"})

	assert.Equal(t, "✖ Invalid request: bad_id\n✔ Request approved\n- odd\n", buf.String())
}

func TestMultiSkipsNil(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	m := Multi(a, nil, b)
	m.Notify(New(LevelInfo, "hello"))
	assert.Equal(t, []string{"hello"}, a.Messages())
	assert.Equal(t, []string{"hello"}, b.Messages())
}

func TestNotifierFunc(t *testing.T) {
	var got string
	NotifierFunc(func(t Toast) { got = t.Message }).Notify(New(LevelInfo, "x"))
	assert.Equal(t, "x", got)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	l := NewLog(zerolog.New(&buf))
	l.Notify(New(LevelError, "boom"))
	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"message":"boom"`)
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	hub.Notify(New(LevelInfo, "New partner request from Cine Atlas"))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Toast
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "New partner request from Cine Atlas", got.Message)
	assert.Equal(t, LevelInfo, got.Level)
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
