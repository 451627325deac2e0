package panelclient

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// PersistentJar decorates the stdlib cookiejar.Jar with Netscape-format
// (`cookies.txt`) disk persistence, per spec.md §3 and §5:
//
//   - "Cookie jar: persistent between restarts in a file using the
//     Netscape/Mozilla format."
//   - "No operation must leave the cookie jar file truncated: write to a
//     temp file and rename atomically."
//
// No library in the retrieved example pack implements a Netscape-format
// persistent jar (see DESIGN.md); this wraps the teacher's in-memory
// cookiejar.New factory (client/client.go) with a minimal, hand-rolled
// codec for that one well-known text format.
type PersistentJar struct {
	http.CookieJar
	path string
	mu   sync.Mutex

	// domains tracks every domain a cookie has been set for, so Save can
	// re-read jar.Cookies(url) for each known domain. The stdlib jar has no
	// "list all cookies" method.
	domains map[string]struct{}
}

// netscapeHeader is written atop every persisted jar file, matching the
// format curl and wget both emit.
const netscapeHeader = "# Netscape HTTP Cookie File\n# This file is generated by spc2mqtt. Edits will be overwritten.\n\n"

// LoadOrCreate reads a Netscape-format cookie jar from path if it exists,
// or starts with an empty jar otherwise. A corrupt file is deleted and
// replaced with an empty jar (spec.md §4.A: "Corrupt jar -> delete and
// continue with an empty jar").
func LoadOrCreate(path string) (*PersistentJar, error) {
	base, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("panelclient: create base cookie jar: %w", err)
	}

	pj := &PersistentJar{
		CookieJar: base,
		path:      path,
		domains:   make(map[string]struct{}),
	}

	if path == "" {
		return pj, nil
	}

	entries, err := readNetscapeFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return pj, nil
		}
		// Corrupt jar: delete and continue with an empty jar.
		_ = os.Remove(path)
		return pj, nil
	}

	for _, e := range entries {
		u := &url.URL{Scheme: "http", Host: e.domain, Path: "/"}
		if e.secure {
			u.Scheme = "https"
		}
		cookie := &http.Cookie{
			Name:   e.name,
			Value:  e.value,
			Path:   e.path,
			Domain: e.domain,
			Secure: e.secure,
		}
		// A recorded expiry of zero means "session cookie" (no Expires was
		// written); leave cookie.Expires as the Go zero Time so the jar does
		// not treat it as already-expired.
		if !e.expires.IsZero() {
			cookie.Expires = e.expires
		}
		base.SetCookies(u, []*http.Cookie{cookie})
		pj.domains[e.domain] = struct{}{}
	}
	return pj, nil
}

// SetCookies records the domain so Save can enumerate it later, then
// delegates to the embedded jar.
func (pj *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	pj.mu.Lock()
	pj.domains[u.Hostname()] = struct{}{}
	pj.mu.Unlock()
	pj.CookieJar.SetCookies(u, cookies)
}

// Save writes the jar to disk in Netscape format, atomically: a temp file
// in the same directory is written and fsynced, then renamed over the
// target path, so a concurrent reader never observes a truncated file
// (spec.md §5, invariant 7 in spec.md §8).
func (pj *PersistentJar) Save() error {
	if pj.path == "" {
		return nil
	}

	pj.mu.Lock()
	domains := make([]string, 0, len(pj.domains))
	for d := range pj.domains {
		domains = append(domains, d)
	}
	pj.mu.Unlock()

	var sb strings.Builder
	sb.WriteString(netscapeHeader)
	for _, d := range domains {
		// Cookies returns only Name and Value, so the Secure flag is inferred:
		// a cookie the jar sends over https but not over http is secure.
		plain := make(map[string]bool)
		for _, c := range pj.CookieJar.Cookies(&url.URL{Scheme: "http", Host: d, Path: "/"}) {
			plain[c.Name] = true
			writeNetscapeLine(&sb, d, false, c)
		}
		for _, c := range pj.CookieJar.Cookies(&url.URL{Scheme: "https", Host: d, Path: "/"}) {
			if !plain[c.Name] {
				writeNetscapeLine(&sb, d, true, c)
			}
		}
	}

	dir := filepath.Dir(pj.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("panelclient: create %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".spc_cookies-*.tmp")
	if err != nil {
		return fmt.Errorf("panelclient: create temp cookie file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	if _, err := tmp.WriteString(sb.String()); err != nil {
		tmp.Close()
		return fmt.Errorf("panelclient: write temp cookie file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("panelclient: sync temp cookie file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("panelclient: close temp cookie file: %w", err)
	}
	if err := os.Rename(tmpPath, pj.path); err != nil {
		return fmt.Errorf("panelclient: rename cookie file into place: %w", err)
	}
	return nil
}

type netscapeEntry struct {
	domain  string
	secure  bool
	path    string
	expires time.Time
	name    string
	value   string
}

// readNetscapeFile parses the tab-separated Netscape cookie format:
//
//	domain  includeSubdomains  path  secure  expires  name  value
func readNetscapeFile(path string) ([]netscapeEntry, error) {
	f, err := os.Open(path) // #nosec G304 -- path is operator-supplied config
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []netscapeEntry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			return nil, fmt.Errorf("panelclient: malformed cookie line (want 7 fields, got %d)", len(fields))
		}
		expiresUnix, err := strconv.ParseInt(fields[4], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("panelclient: malformed expiry %q: %w", fields[4], err)
		}
		entry := netscapeEntry{
			domain: strings.TrimPrefix(fields[0], "."),
			path:   fields[2],
			secure: strings.EqualFold(fields[3], "TRUE"),
			name:   fields[5],
			value:  fields[6],
		}
		if expiresUnix > 0 {
			entry.expires = time.Unix(expiresUnix, 0)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func writeNetscapeLine(sb *strings.Builder, domain string, secure bool, c *http.Cookie) {
	includeSubdomains := "FALSE"
	path := c.Path
	if path == "" {
		path = "/"
	}
	expires := int64(0)
	if !c.Expires.IsZero() {
		expires = c.Expires.Unix()
	}
	fmt.Fprintf(sb, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
		domain, includeSubdomains, path, boolStr(secure || c.Secure), expires, c.Name, c.Value)
}

func boolStr(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
