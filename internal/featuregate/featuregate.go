// Package featuregate implements the two boolean matrices spec.md §4.I
// describes: information[category] gates publication, controle[category]
// gates subscription and command dispatch. Both matrices are fixed for the
// process lifetime -- the config is loaded once at startup and never
// reloaded, so the gate itself holds no mutex.
package featuregate

import "github.com/firasghr/spc2mqtt/internal/config"

// Category names one of the four gated entity kinds.
type Category string

// The four categories spec.md §4.I gates.
const (
	Zones    Category = "zones"
	Secteurs Category = "secteurs"
	Doors    Category = "doors"
	Outputs  Category = "outputs"
)

// Gate evaluates whether a category may publish state or accept commands.
type Gate struct {
	information map[Category]bool
	controle    map[Category]bool
}

// New builds a Gate from the watchdog config's information/controle blocks.
func New(information, controle config.CategoryFlags) *Gate {
	return &Gate{
		information: flagsToMap(information),
		controle:    flagsToMap(controle),
	}
}

func flagsToMap(f config.CategoryFlags) map[Category]bool {
	return map[Category]bool{
		Zones:    f.Zones,
		Secteurs: f.Secteurs,
		Doors:    f.Doors,
		Outputs:  f.Outputs,
	}
}

// InformationEnabled reports whether category may publish state topics.
func (g *Gate) InformationEnabled(c Category) bool { return g.information[c] }

// ControleEnabled reports whether category may accept commands.
func (g *Gate) ControleEnabled(c Category) bool { return g.controle[c] }
