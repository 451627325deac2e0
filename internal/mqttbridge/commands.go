package mqttbridge

import (
	"strings"

	"github.com/firasghr/spc2mqtt/internal/featuregate"
)

// commandAction is a validated command: code is what gets sent to the
// panel, ack is what gets published on success. For sectors the ack is the
// resulting numeric state code; for every other category the ack is the
// action word itself (spec.md §4.G step 6).
type commandAction struct {
	code string
	ack  string
}

var secteurCommands = map[string]commandAction{
	"0":     {code: "MHS", ack: "0"},
	"mhs":   {code: "MHS", ack: "0"},
	"1":     {code: "MES", ack: "1"},
	"mes":   {code: "MES", ack: "1"},
	"2":     {code: "PartA", ack: "2"},
	"part":  {code: "PartA", ack: "2"},
	"3":     {code: "PartB", ack: "3"},
	"partb": {code: "PartB", ack: "3"},
}

var doorCommands = map[string]commandAction{
	"normal": {code: "normal", ack: "normal"},
	"lock":   {code: "lock", ack: "lock"},
	"unlock": {code: "unlock", ack: "unlock"},
	"pulse":  {code: "pulse", ack: "pulse"},
}

var outputCommands = map[string]commandAction{
	"1":   {code: "on", ack: "on"},
	"on":  {code: "on", ack: "on"},
	"0":   {code: "off", ack: "off"},
	"off": {code: "off", ack: "off"},
}

var zoneCommands = buildZoneCommands()

func buildZoneCommands() map[string]commandAction {
	words := []string{"inhibit", "uninhibit", "isolate", "unisolate", "testjdb", "restore"}
	m := make(map[string]commandAction, len(words))
	for _, w := range words {
		m[w] = commandAction{code: w, ack: w}
	}
	return m
}

// lookupCommand validates payload against category's table (spec.md §4.G
// step 3), case-insensitively with whitespace trimmed.
func lookupCommand(category featuregate.Category, payload string) (commandAction, bool) {
	key := strings.ToLower(strings.TrimSpace(payload))
	var table map[string]commandAction
	switch category {
	case featuregate.Secteurs:
		table = secteurCommands
	case featuregate.Doors:
		table = doorCommands
	case featuregate.Outputs:
		table = outputCommands
	case featuregate.Zones:
		table = zoneCommands
	default:
		return commandAction{}, false
	}
	a, ok := table[key]
	return a, ok
}
