package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smeltingmetal.dev/internal/protocol"
	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/engine"
	"smeltingmetal.dev/internal/sim/ident"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cat := catalogs.New()
	for _, s := range []string{"iron_ingot", "iron_block", "raw_iron", "raw_iron_block", "iron_nugget"} {
		cat.Items.Register(ident.Parse(s))
	}
	cat.Blocks.Register(ident.Parse("iron_block"))
	cat.Recipes.Defs = []catalogs.RecipeDef{{
		ID: "minecraft:iron_ingot_from_smelting_raw_iron", Type: "smelting",
		Ingredients: [][]string{{"minecraft:raw_iron"}},
		Result:      catalogs.StackDef{Item: "minecraft:iron_ingot", Count: 1},
		CookingTime: 200,
	}}
	cfg := config.Defaults()
	cfg.Metals.MetalDefinitions = []string{"iron"}
	cfg.Metals.GemDefinitions = nil
	e, err := engine.New(engine.Options{Config: cfg, Catalogs: cat})
	require.NoError(t, err)
	return e
}

func dial(t *testing.T, eng Engine) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(NewServer(eng, nil).Handler())
	t.Cleanup(srv.Close)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func roundTrip(t *testing.T, conn *websocket.Conn, v any) []byte {
	t.Helper()
	require.NoError(t, conn.WriteJSON(v))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	return b
}

func hello(t *testing.T, conn *websocket.Conn) protocol.WelcomeMsg {
	t.Helper()
	var w protocol.WelcomeMsg
	b := roundTrip(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, HostName: "test"})
	require.NoError(t, json.Unmarshal(b, &w))
	return w
}

func TestServer_EventProducesReport(t *testing.T) {
	conn := dial(t, newEngine(t))
	w := hello(t, conn)
	assert.Equal(t, protocol.TypeWelcome, w.Type)
	assert.NotEmpty(t, w.SessionID)
	assert.Equal(t, config.DefaultNamespace, w.Namespace)

	b := roundTrip(t, conn, protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, ReqID: "r1", Trigger: "server_started"})
	var rep protocol.ReportMsg
	require.NoError(t, json.Unmarshal(b, &rep))
	require.Equal(t, protocol.TypeReport, rep.Type)
	assert.Equal(t, "r1", rep.ReqID)
	assert.True(t, rep.Ran)
	assert.Equal(t, 1, rep.Removed)
	assert.NotZero(t, rep.Added)
	assert.Len(t, rep.Mutations, rep.Added+rep.Removed)

	b = roundTrip(t, conn, protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, ReqID: "r2", Trigger: "reload_begin"})
	require.NoError(t, json.Unmarshal(b, &rep))
	assert.False(t, rep.Ran)
}

func TestServer_Errors(t *testing.T) {
	conn := dial(t, newEngine(t))
	hello(t, conn)

	for name, tc := range map[string]struct {
		msg  any
		code string
	}{
		"bad trigger": {protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, ReqID: "a", Trigger: "tick"}, protocol.ErrBadTrigger},
		"bad version": {protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: "0.1", ReqID: "b", Trigger: "server_started"}, protocol.ErrProtoVersion},
		"bad config":  {protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, ReqID: "c", Trigger: "config_reloaded", Config: "bogus: 1\n"}, protocol.ErrBadConfig},
		"wrong type":  {protocol.BaseMessage{Type: protocol.TypeHello, ProtocolVersion: protocol.Version}, protocol.ErrProtoBadRequest},
	} {
		var e protocol.ErrorMsg
		require.NoError(t, json.Unmarshal(roundTrip(t, conn, tc.msg), &e), name)
		assert.Equal(t, protocol.TypeError, e.Type, name)
		assert.Equal(t, tc.code, e.Code, name)
	}
}

func TestServer_RejectsMissingHello(t *testing.T) {
	conn := dial(t, newEngine(t))
	require.NoError(t, conn.WriteJSON(protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, Trigger: "server_started"}))
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation))
}

type cancelledEngine struct{}

func (cancelledEngine) Handle(context.Context, engine.Event) (engine.Result, error) {
	return engine.Result{}, context.Canceled
}

func (cancelledEngine) Status() engine.Status { return engine.Status{} }

func TestServer_EngineErrorsAreReported(t *testing.T) {
	conn := dial(t, cancelledEngine{})
	hello(t, conn)
	var e protocol.ErrorMsg
	require.NoError(t, json.Unmarshal(roundTrip(t, conn, protocol.EventMsg{Type: protocol.TypeEvent, ProtocolVersion: protocol.Version, ReqID: "x", Trigger: "server_started"}), &e))
	assert.Equal(t, protocol.ErrCancelled, e.Code)
}
