package mqttbridge

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/firasghr/spc2mqtt/internal/featuregate"
	"github.com/firasghr/spc2mqtt/internal/panelclient"
)

var commandTopicPattern = regexp.MustCompile(`^(zones|secteurs|doors|outputs)/([^/]+)/set$`)

// parseCommandTopic strips baseTopic and matches
// "<category>/<id>/set". A topic that doesn't fit the shape, or names an
// unrecognised category, is rejected (spec.md §4.G step 1).
func parseCommandTopic(baseTopic, topic string) (category featuregate.Category, id string, ok bool) {
	rel := strings.TrimPrefix(topic, baseTopic+"/")
	m := commandTopicPattern.FindStringSubmatch(rel)
	if m == nil {
		return "", "", false
	}
	return featuregate.Category(m[1]), m[2], true
}

// handleMessage runs off the bounded command queue, never on paho's own
// callback goroutine. It validates, acquires the single-flight session lock,
// dispatches to the panel, and publishes exactly one ack. A malformed topic
// is dropped with no ack, since it names no command_result topic.
func (b *Bridge) handleMessage(topic string, payload []byte) {
	category, id, ok := parseCommandTopic(b.cfg.BaseTopic, topic)
	if !ok {
		b.log.Debugf("mqttbridge: ignoring malformed command topic %q", topic)
		return
	}

	if !b.gate.ControleEnabled(category) {
		b.publishAck(category, id, "error:control-disabled")
		return
	}

	action, ok := lookupCommand(category, string(payload))
	if !ok {
		b.publishAck(category, id, "error:bad-payload")
		return
	}

	b.sessions.Lock()
	defer b.sessions.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), panelclient.RequestTimeout)
	defer cancel()

	sessionID, err := b.sessions.GetOrLogin(ctx)
	if err != nil {
		b.log.Errorf("mqttbridge: session acquisition failed: %v", err)
		b.publishAck(category, id, "error:no-session")
		return
	}
	if sessionID == "" {
		b.publishAck(category, id, "error:no-session")
		return
	}

	var execErr error
	switch category {
	case featuregate.Secteurs:
		execErr = b.commander.Secteur(ctx, sessionID, id, action.code)
	case featuregate.Doors:
		execErr = b.commander.Door(ctx, sessionID, id, action.code)
	case featuregate.Outputs:
		execErr = b.commander.Output(ctx, sessionID, id, action.code)
	case featuregate.Zones:
		execErr = b.commander.Zone(ctx, sessionID, id, action.code)
	}

	if execErr != nil {
		if b.metrics != nil {
			b.metrics.IncCommand(false)
		}
		var statusErr *panelclient.HTTPStatusError
		if errors.As(execErr, &statusErr) {
			b.publishAck(category, id, fmt.Sprintf("error:http-%d", statusErr.StatusCode))
			return
		}
		b.log.Warnf("mqttbridge: command %s/%s failed: %v", category, id, execErr)
		b.publishAck(category, id, "error:network")
		return
	}

	if b.metrics != nil {
		b.metrics.IncCommand(true)
	}
	b.publishAck(category, id, "ok:"+action.ack)
}

// publishAck publishes the non-retained command_result ack, spec.md §6:
// "non-retained for command_result (they are transient acks)."
func (b *Bridge) publishAck(category featuregate.Category, id, result string) {
	topic := fmt.Sprintf("%s/%s/%s/command_result", b.cfg.BaseTopic, category, id)
	token := b.client.Publish(topic, b.cfg.QoS, false, result)
	if !token.WaitTimeout(publishTimeout) {
		b.log.Warnf("mqttbridge: publish ack %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		b.log.Warnf("mqttbridge: publish ack %s: %v", topic, err)
	}
}
