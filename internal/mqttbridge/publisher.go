package mqttbridge

import (
	"fmt"
	"strconv"
	"time"

	"github.com/firasghr/spc2mqtt/internal/featuregate"
	"github.com/firasghr/spc2mqtt/internal/panelstate"
)

// publishTimeout bounds how long Publish is allowed to block per field.
const publishTimeout = 5 * time.Second

// PublishZones emits zones/<id>/{name,sector,entree,state} for every zone,
// skipping the whole category if information.zones is off, and skipping any
// field whose mapped value is the -1 sentinel (spec.md §4.F, invariant 2).
func (b *Bridge) PublishZones(zones []panelstate.Zone) {
	if !b.gate.InformationEnabled(featuregate.Zones) {
		return
	}
	for _, z := range zones {
		b.publishField(featuregate.Zones, z.ID, "name", z.Name)
		b.publishField(featuregate.Zones, z.ID, "sector", z.Sector)
		if z.Entree != -1 {
			b.publishField(featuregate.Zones, z.ID, "entree", strconv.Itoa(z.Entree))
		}
		if z.State != -1 {
			b.publishField(featuregate.Zones, z.ID, "state", strconv.Itoa(z.State))
		}
	}
}

// PublishSectors emits secteurs/<id>/{name,state} for every sector,
// including the synthetic id-0 global sector.
func (b *Bridge) PublishSectors(sectors []panelstate.Sector) {
	if !b.gate.InformationEnabled(featuregate.Secteurs) {
		return
	}
	for _, s := range sectors {
		id := panelstate.SectorIDString(s.ID)
		b.publishField(featuregate.Secteurs, id, "name", s.Name)
		if s.State != -1 {
			b.publishField(featuregate.Secteurs, id, "state", strconv.Itoa(s.State))
		}
	}
}

// PublishDoors emits doors/<id>/{name,zone,sector,state,drs,dps}.
func (b *Bridge) PublishDoors(doors []panelstate.Door) {
	if !b.gate.InformationEnabled(featuregate.Doors) {
		return
	}
	for _, d := range doors {
		b.publishField(featuregate.Doors, d.ID, "name", d.Name)
		b.publishField(featuregate.Doors, d.ID, "zone", d.Zone)
		b.publishField(featuregate.Doors, d.ID, "sector", d.Sector)
		if d.State != -1 {
			b.publishField(featuregate.Doors, d.ID, "state", strconv.Itoa(d.State))
		}
		if d.DRS != -1 {
			b.publishField(featuregate.Doors, d.ID, "drs", strconv.Itoa(d.DRS))
		}
		if d.DPS != -1 {
			b.publishField(featuregate.Doors, d.ID, "dps", strconv.Itoa(d.DPS))
		}
	}
}

// PublishOutputs emits outputs/<id>/{name,state,state_txt}.
func (b *Bridge) PublishOutputs(outputs []panelstate.Output) {
	if !b.gate.InformationEnabled(featuregate.Outputs) {
		return
	}
	for _, o := range outputs {
		b.publishField(featuregate.Outputs, o.ID, "name", o.Name)
		if o.State != -1 {
			b.publishField(featuregate.Outputs, o.ID, "state", strconv.Itoa(o.State))
		}
		b.publishField(featuregate.Outputs, o.ID, "state_txt", o.StateTxt)
	}
}

// PublishControllerStatus emits etat/<section>/<label> for every entry. The
// controller scan is not gated by the information matrix -- spec.md §4.I
// only names zones/secteurs/doors/outputs -- so every parseable entry is
// republished whenever its value changes.
func (b *Bridge) PublishControllerStatus(entries []panelstate.ControllerStatus) {
	for _, e := range entries {
		if e.Section == "" || e.Label == "" {
			continue
		}
		field := fmt.Sprintf("%s/%s", e.Section, e.Label)
		if !b.snap.ShouldPublish("etat", "", field, e.Value) {
			continue
		}
		topic := fmt.Sprintf("%s/etat/%s/%s", b.cfg.BaseTopic, e.Section, e.Label)
		if b.publish(topic, e.Value) {
			b.snap.Commit("etat", "", field, e.Value)
		}
	}
}

// publishField checks the snapshot, publishes on change, and commits only
// on a successful send -- a transient publish error leaves the snapshot
// untouched so the next scan re-emits it (spec.md §4.F, §7).
func (b *Bridge) publishField(category featuregate.Category, id, field, value string) {
	if !b.snap.ShouldPublish(string(category), id, field, value) {
		return
	}
	topic := fmt.Sprintf("%s/%s/%s/%s", b.cfg.BaseTopic, category, id, field)
	if b.publish(topic, value) {
		b.snap.Commit(string(category), id, field, value)
	}
}

func (b *Bridge) publish(topic, value string) bool {
	token := b.client.Publish(topic, b.cfg.QoS, b.cfg.Retain, value)
	ok := token.WaitTimeout(publishTimeout) && token.Error() == nil
	if !ok {
		if err := token.Error(); err != nil {
			b.log.Warnf("mqttbridge: publish %s: %v", topic, err)
		} else {
			b.log.Warnf("mqttbridge: publish %s timed out", topic)
		}
	}
	if b.metrics != nil {
		b.metrics.IncPublish(ok)
	}
	return ok
}
