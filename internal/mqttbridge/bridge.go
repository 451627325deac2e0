// Package mqttbridge owns the MQTT side of the bridge: publishing parsed
// panel state (spec.md §4.F) and routing inbound commands back to the panel
// (spec.md §4.G). It wraps github.com/eclipse/paho.mqtt.golang behind the
// narrow on_connect/on_disconnect/on_message shape spec.md §9 calls for,
// so the callback-API-version branching paho itself exposes never leaks
// past this package.
package mqttbridge

import (
	"context"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/firasghr/spc2mqtt/internal/featuregate"
	"github.com/firasghr/spc2mqtt/internal/logger"
	"github.com/firasghr/spc2mqtt/internal/metrics"
	"github.com/firasghr/spc2mqtt/internal/snapshot"
)

// commandQueueSize bounds the inbound command channel, per spec.md §5:
// "bounded is acceptable; overflow drops oldest command with an
// error:overloaded ack."
const commandQueueSize = 64

// SessionProvider is the subset of spcsession.Manager the router needs:
// single-flight locking plus session acquisition.
type SessionProvider interface {
	Lock()
	Unlock()
	GetOrLogin(ctx context.Context) (string, error)
}

// Commander issues the panel HTTP request for one validated command.
type Commander interface {
	Secteur(ctx context.Context, sessionID, id, code string) error
	Door(ctx context.Context, sessionID, id, action string) error
	Output(ctx context.Context, sessionID, id, action string) error
	Zone(ctx context.Context, sessionID, id, action string) error
}

// Config groups the constructor parameters spec.md §6's `mqtt:` block
// supplies.
type Config struct {
	Host      string
	Port      int
	User      string
	Pass      string
	BaseTopic string
	ClientID  string
	QoS       byte
	Retain    bool
}

// Bridge is the MQTT publisher and command router for one panel.
type Bridge struct {
	cfg       Config
	gate      *featuregate.Gate
	snap      *snapshot.Store
	sessions  SessionProvider
	commander Commander
	log       *logger.Logger
	metrics   *metrics.Counters

	client   mqtt.Client
	commands chan inboundCommand
}

type inboundCommand struct {
	topic   string
	payload []byte
}

// New builds a Bridge. Call Start to connect and begin routing commands.
func New(cfg Config, gate *featuregate.Gate, snap *snapshot.Store, sessions SessionProvider, commander Commander, log *logger.Logger, rec *metrics.Counters) *Bridge {
	return &Bridge{
		cfg:       cfg,
		gate:      gate,
		snap:      snap,
		sessions:  sessions,
		commander: commander,
		log:       log,
		metrics:   rec,
		commands:  make(chan inboundCommand, commandQueueSize),
	}
}

// Start connects to the broker, subscribes to every controle-enabled
// category, and begins draining the inbound command queue on a background
// goroutine that exits when ctx is done.
func (b *Bridge) Start(ctx context.Context) error {
	opts := mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Host, b.cfg.Port)).
		SetClientID(b.cfg.ClientID).
		SetUsername(b.cfg.User).
		SetPassword(b.cfg.Pass).
		SetAutoReconnect(true).
		SetOnConnectHandler(b.onConnect).
		SetConnectionLostHandler(b.onConnectionLost)

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqttbridge: connect to %s:%d timed out", b.cfg.Host, b.cfg.Port)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqttbridge: connect to %s:%d: %w", b.cfg.Host, b.cfg.Port, err)
	}

	go b.runCommandLoop(ctx)
	return nil
}

// Stop disconnects from the broker, waiting up to 250ms for queued sends to
// flush -- the orderly MQTT disconnect spec.md §4.H requires on shutdown.
func (b *Bridge) Stop() {
	if b.client != nil {
		b.client.Disconnect(250)
	}
}

func (b *Bridge) onConnect(client mqtt.Client) {
	for _, cat := range []featuregate.Category{featuregate.Zones, featuregate.Secteurs, featuregate.Doors, featuregate.Outputs} {
		if !b.gate.ControleEnabled(cat) {
			continue
		}
		topic := fmt.Sprintf("%s/%s/+/set", b.cfg.BaseTopic, cat)
		if token := client.Subscribe(topic, byte(b.cfg.QoS), b.onMessage); token.Wait() && token.Error() != nil {
			b.log.Errorf("mqttbridge: subscribe %s: %v", topic, token.Error())
		}
	}
}

func (b *Bridge) onConnectionLost(_ mqtt.Client, err error) {
	b.log.Warnf("mqttbridge: connection lost: %v", err)
}

// onMessage runs on paho's own callback goroutine; it must not block, so it
// only enqueues. A full queue drops the oldest pending command and acks it
// error:overloaded before admitting the new one, per spec.md §5.
func (b *Bridge) onMessage(_ mqtt.Client, msg mqtt.Message) {
	cmd := inboundCommand{topic: msg.Topic(), payload: append([]byte(nil), msg.Payload()...)}
	select {
	case b.commands <- cmd:
		return
	default:
	}

	select {
	case old := <-b.commands:
		b.ackOverloaded(old.topic)
	default:
	}

	select {
	case b.commands <- cmd:
	default:
		b.ackOverloaded(cmd.topic)
	}
}

func (b *Bridge) runCommandLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-b.commands:
			b.handleMessage(cmd.topic, cmd.payload)
		}
	}
}

func (b *Bridge) ackOverloaded(topic string) {
	category, id, ok := parseCommandTopic(b.cfg.BaseTopic, topic)
	if !ok {
		return
	}
	b.publishAck(category, id, "error:overloaded")
}
