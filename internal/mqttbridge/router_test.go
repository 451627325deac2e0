package mqttbridge

import (
	"context"
	"fmt"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/firasghr/spc2mqtt/internal/config"
	"github.com/firasghr/spc2mqtt/internal/featuregate"
	"github.com/firasghr/spc2mqtt/internal/logger"
	"github.com/firasghr/spc2mqtt/internal/panelclient"
	"github.com/firasghr/spc2mqtt/internal/snapshot"
)

type publishedMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

type fakeToken struct{ err error }

func (f *fakeToken) Wait() bool                     { return true }
func (f *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (f *fakeToken) Done() <-chan struct{}           { ch := make(chan struct{}); close(ch); return ch }
func (f *fakeToken) Error() error                    { return f.err }

type fakeMQTTClient struct {
	mqtt.Client
	published []publishedMsg
}

func (f *fakeMQTTClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.published = append(f.published, publishedMsg{topic, qos, retained, fmt.Sprint(payload)})
	return &fakeToken{}
}

type fakeSessions struct {
	sessionID string
	err       error
	locked    bool
}

func (s *fakeSessions) Lock()   { s.locked = true }
func (s *fakeSessions) Unlock() { s.locked = false }
func (s *fakeSessions) GetOrLogin(context.Context) (string, error) {
	return s.sessionID, s.err
}

type fakeCommander struct {
	err      error
	calls    []string
}

func (c *fakeCommander) Secteur(_ context.Context, sid, id, code string) error {
	c.calls = append(c.calls, fmt.Sprintf("secteur:%s:%s:%s", sid, id, code))
	return c.err
}
func (c *fakeCommander) Door(_ context.Context, sid, id, code string) error {
	c.calls = append(c.calls, fmt.Sprintf("door:%s:%s:%s", sid, id, code))
	return c.err
}
func (c *fakeCommander) Output(_ context.Context, sid, id, code string) error {
	c.calls = append(c.calls, fmt.Sprintf("output:%s:%s:%s", sid, id, code))
	return c.err
}
func (c *fakeCommander) Zone(_ context.Context, sid, id, code string) error {
	c.calls = append(c.calls, fmt.Sprintf("zone:%s:%s:%s", sid, id, code))
	return c.err
}

func newTestBridge(gate *featuregate.Gate, sessions SessionProvider, commander Commander) (*Bridge, *fakeMQTTClient) {
	fc := &fakeMQTTClient{}
	b := &Bridge{
		cfg:       Config{BaseTopic: "base", QoS: 1},
		gate:      gate,
		snap:      snapshot.New(),
		sessions:  sessions,
		commander: commander,
		log:       logger.New(logger.LevelError),
		client:    fc,
		commands:  make(chan inboundCommand, commandQueueSize),
	}
	return b, fc
}

func allEnabled() *featuregate.Gate {
	flags := config.CategoryFlags{Zones: true, Secteurs: true, Doors: true, Outputs: true}
	return featuregate.New(flags, flags)
}

func TestHandleMessage_MalformedTopicIsIgnored(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	b.handleMessage("base/bogus", []byte("1"))
	if len(fc.published) != 0 {
		t.Errorf("expected no ack for malformed topic, got %+v", fc.published)
	}
}

func TestHandleMessage_CategoryDisabled(t *testing.T) {
	flags := config.CategoryFlags{Secteurs: false}
	gate := featuregate.New(flags, flags)
	b, fc := newTestBridge(gate, &fakeSessions{}, &fakeCommander{})
	b.handleMessage("base/secteurs/2/set", []byte("mes"))
	assertSingleAck(t, fc, "base/secteurs/2/command_result", "error:control-disabled")
}

func TestHandleMessage_BadPayload(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{}, &fakeCommander{})
	b.handleMessage("base/zones/01/set", []byte("wiggle"))
	assertSingleAck(t, fc, "base/zones/01/command_result", "error:bad-payload")
}

func TestHandleMessage_NoSession(t *testing.T) {
	b, fc := newTestBridge(allEnabled(), &fakeSessions{sessionID: ""}, &fakeCommander{})
	b.handleMessage("base/doors/5/set", []byte("unlock"))
	assertSingleAck(t, fc, "base/doors/5/command_result", "error:no-session")
}

func TestHandleMessage_SuccessSector(t *testing.T) {
	cmd := &fakeCommander{}
	b, fc := newTestBridge(allEnabled(), &fakeSessions{sessionID: "sid"}, cmd)
	b.handleMessage("base/secteurs/2/set", []byte("mes"))
	assertSingleAck(t, fc, "base/secteurs/2/command_result", "ok:1")
	if len(cmd.calls) != 1 || cmd.calls[0] != "secteur:sid:2:MES" {
		t.Errorf("unexpected commander calls: %+v", cmd.calls)
	}
}

func TestHandleMessage_SuccessOutputTextualAck(t *testing.T) {
	cmd := &fakeCommander{}
	b, fc := newTestBridge(allEnabled(), &fakeSessions{sessionID: "sid"}, cmd)
	b.handleMessage("base/outputs/7/set", []byte("ON"))
	assertSingleAck(t, fc, "base/outputs/7/command_result", "ok:on")
}

func TestHandleMessage_HTTPErrorClassified(t *testing.T) {
	cmd := &fakeCommander{err: &panelclient.HTTPStatusError{Method: "POST", URL: "x", StatusCode: 503}}
	b, fc := newTestBridge(allEnabled(), &fakeSessions{sessionID: "sid"}, cmd)
	b.handleMessage("base/doors/5/set", []byte("unlock"))
	assertSingleAck(t, fc, "base/doors/5/command_result", "error:http-503")
}

func TestHandleMessage_NetworkErrorClassified(t *testing.T) {
	cmd := &fakeCommander{err: fmt.Errorf("dial tcp: connection refused")}
	b, fc := newTestBridge(allEnabled(), &fakeSessions{sessionID: "sid"}, cmd)
	b.handleMessage("base/doors/5/set", []byte("unlock"))
	assertSingleAck(t, fc, "base/doors/5/command_result", "error:network")
}

func TestParseCommandTopic(t *testing.T) {
	cat, id, ok := parseCommandTopic("base", "base/zones/01/set")
	if !ok || cat != featuregate.Zones || id != "01" {
		t.Errorf("parseCommandTopic = %v, %v, %v", cat, id, ok)
	}
	if _, _, ok := parseCommandTopic("base", "base/zones/01/unset"); ok {
		t.Error("expected non-/set suffix to be rejected")
	}
}

func assertSingleAck(t *testing.T, fc *fakeMQTTClient, wantTopic, wantPayload string) {
	t.Helper()
	if len(fc.published) != 1 {
		t.Fatalf("expected exactly one publish, got %+v", fc.published)
	}
	got := fc.published[0]
	if got.topic != wantTopic || got.payload != wantPayload {
		t.Errorf("ack = %+v, want topic=%s payload=%s", got, wantTopic, wantPayload)
	}
	if got.retained {
		t.Error("command_result ack must not be retained")
	}
}
