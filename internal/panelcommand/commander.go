// Package panelcommand issues the HTTP requests the panel's web UI issues
// when an operator clicks an action button (arm/disarm a sector, lock/unlock
// a door, switch an output, inhibit a zone). spec.md §4.G.5 leaves the exact
// target URL and form fields as a page-specific detail "discovered from the
// corresponding HTML page containing the action buttons"; this package picks
// one concrete, internally consistent wire convention -- a POST to
// /secure.htm carrying the session id, the page the button lives on, and the
// action code -- generalising the shape spec.md §4.B already documents for
// the login POST (see DESIGN.md for the reasoning).
package panelcommand

import (
	"context"
	"fmt"
	"net/url"

	"github.com/firasghr/spc2mqtt/internal/panelclient"
)

// Commander issues panel action requests for one host.
type Commander struct {
	client *panelclient.Client
	host   string
}

// New builds a Commander for host, using client for HTTP calls.
func New(client *panelclient.Client, host string) *Commander {
	return &Commander{client: client, host: host}
}

// Secteur sends an arm/disarm action code (MHS, MES, PartA, PartB) for the
// sector identified by id.
func (c *Commander) Secteur(ctx context.Context, sessionID, id, code string) error {
	return c.act(ctx, sessionID, "spc_home", id, code)
}

// Door sends an action (normal, lock, unlock, pulse) for the door identified
// by id.
func (c *Commander) Door(ctx context.Context, sessionID, id, action string) error {
	return c.act(ctx, sessionID, "status_doors", id, action)
}

// Output sends an on/off action for the output identified by id.
func (c *Commander) Output(ctx context.Context, sessionID, id, action string) error {
	return c.act(ctx, sessionID, "status_outputs", id, action)
}

// Zone sends an inhibit/uninhibit/isolate/unisolate/testjdb/restore action
// for the zone identified by id.
func (c *Commander) Zone(ctx context.Context, sessionID, id, action string) error {
	return c.act(ctx, sessionID, "status_zones", id, action)
}

func (c *Commander) act(ctx context.Context, sessionID, page, id, action string) error {
	target := fmt.Sprintf("%s/secure.htm?session=%s&page=%s", c.host, url.QueryEscape(sessionID), page)
	_, err := c.client.PostForm(ctx, target, url.Values{
		"id":     {id},
		"action": {action},
	})
	if err != nil {
		return fmt.Errorf("panelcommand: %s id=%s action=%s: %w", page, id, action, err)
	}
	return nil
}
