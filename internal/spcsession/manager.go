// Package spcsession manages the SPC42 panel's authenticated session: it
// acquires, caches, validates, and refreshes the opaque session id the web
// UI embeds in every secure.htm URL, rate-limiting re-login attempts against
// a panel that expires sessions unpredictably (spec.md §4.B).
//
// The manager also owns the single-flight lock spec.md §5 describes: one
// mutex serialises login, every watchdog scan, and every command-router
// panel call, because the SPC42's session model is not safe for parallel
// mutation. This generalises the teacher engine's SessionManager (which
// owns many independent *session.Session values behind an RWMutex) down to
// the one-panel-per-process case: there is exactly one session here, so the
// lock is a plain sync.Mutex rather than a map guarded by an RWMutex.
package spcsession

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/firasghr/spc2mqtt/internal/logger"
	"github.com/firasghr/spc2mqtt/internal/panelclient"
)

// Record is the persisted session state, spec.md §3: "{session_id,
// acquired_at}". It round-trips through spc_session.json as
// {"session": "<sid>", "time": <unix-float>}.
type Record struct {
	SessionID string  `json:"session"`
	Time      float64 `json:"time"`
}

var (
	sessionFromQuery  = regexp.MustCompile(`[?&]session=([0-9A-Za-zx]+)`)
	sessionFromSecure = regexp.MustCompile(`secure\.htm\?[^"'>]*session=([0-9A-Za-zx]+)`)
)

// Manager acquires, caches, and refreshes the SPC42 session id for one
// panel. It is safe for concurrent use: Lock/Unlock expose the single-flight
// mutex so the watchdog scans and the command router can serialise their
// panel calls through the same manager spec.md §5 requires.
type Manager struct {
	client   *panelclient.Client
	log      *logger.Logger
	host     string
	user     string
	pass     string
	language int

	recordPath       string
	minLoginInterval time.Duration

	mu     sync.Mutex
	record Record

	now   func() time.Time
	sleep func(time.Duration)
}

// Config groups the constructor parameters spec.md §6's `spc:` block
// supplies.
type Config struct {
	Host                string
	User                string
	Pass                string
	Language            int
	SessionCacheDir     string
	MinLoginIntervalSec int
}

// New constructs a Manager backed by client, loading any cached session
// record from cfg.SessionCacheDir/spc_session.json. A missing cache file is
// not an error -- the first GetOrLogin call will perform a fresh login.
func New(client *panelclient.Client, log *logger.Logger, cfg Config) (*Manager, error) {
	m := &Manager{
		client:           client,
		log:              log,
		host:             cfg.Host,
		user:             cfg.User,
		pass:             cfg.Pass,
		language:         cfg.Language,
		recordPath:       filepath.Join(cfg.SessionCacheDir, "spc_session.json"),
		minLoginInterval: time.Duration(cfg.MinLoginIntervalSec) * time.Second,
		now:              time.Now,
		sleep:            time.Sleep,
	}

	rec, err := loadRecord(m.recordPath)
	if err != nil {
		return nil, fmt.Errorf("spcsession: load cached record: %w", err)
	}
	m.record = rec
	return m, nil
}

// Lock acquires the single-flight mutex shared by scans and commands.
func (m *Manager) Lock() { m.mu.Lock() }

// Unlock releases the single-flight mutex.
func (m *Manager) Unlock() { m.mu.Unlock() }

// GetOrLogin returns the current session id, validating the cached one and
// logging in again only when necessary and allowed by the re-login rate
// limit. Returns an empty string (never an error) when no valid session
// could be obtained through network failure, invalid credentials, or a rate
// limit in effect -- spec.md §4.B: "never raises on network errors during
// validation." The only error this returns is a filesystem failure writing
// the session cache.
//
// Callers must hold the single-flight lock (Lock/Unlock) before calling
// GetOrLogin, matching spec.md §5's "one lock protects {login, scan,
// command}."
func (m *Manager) GetOrLogin(ctx context.Context) (string, error) {
	if m.record.SessionID != "" {
		if m.validate(ctx, m.record.SessionID) {
			return m.record.SessionID, nil
		}

		acquiredAt := time.Unix(int64(m.record.Time), 0)
		if m.now().Sub(acquiredAt) < m.minLoginInterval {
			m.sleep(2 * time.Second)
			if m.validate(ctx, m.record.SessionID) {
				return m.record.SessionID, nil
			}
			m.log.Infof("spcsession: re-login suppressed, last login %s ago (min interval %s)",
				m.now().Sub(acquiredAt), m.minLoginInterval)
			return "", nil
		}
	}

	return m.login(ctx)
}

// validate checks a session id against /secure.htm?session=<sid>&page=spc_home,
// per spec.md §4.B step 2.
func (m *Manager) validate(ctx context.Context, sessionID string) bool {
	target := fmt.Sprintf("%s/secure.htm?session=%s&page=spc_home", m.host, url.QueryEscape(sessionID))
	res, err := m.client.Get(ctx, target)
	if err != nil {
		return false
	}
	lower := strings.ToLower(res.Body)
	if strings.Contains(lower, "login.htm") || strings.Contains(lower, "mot de passe") || strings.Contains(lower, "identifiant") {
		return false
	}
	return strings.Contains(lower, "spc42")
}

// login performs the login flow described in spec.md §4.B step 4: a GET to
// seed cookies (failures ignored), then a POST with credentials, extracting
// the session id from the final URL or the response body.
func (m *Manager) login(ctx context.Context) (string, error) {
	loginURL := fmt.Sprintf("%s/login.htm", m.host)
	if _, err := m.client.Get(ctx, loginURL); err != nil {
		m.log.Debugf("spcsession: seed GET /login.htm failed (ignored): %v", err)
	}

	postURL := fmt.Sprintf("%s/login.htm?action=login&language=%d", m.host, m.language)
	res, err := m.client.PostForm(ctx, postURL, url.Values{
		"userid":   {m.user},
		"password": {m.pass},
	})
	if err != nil {
		m.log.Warnf("spcsession: login POST failed: %v", err)
		return "", nil
	}

	sessionID := extractSessionID(res.FinalURL)
	if sessionID == "" {
		sessionID = extractSessionID(res.Body)
	}
	if sessionID == "" {
		m.log.Warn("spcsession: login succeeded but no session id could be extracted")
		return "", nil
	}

	now := m.now()
	m.record = Record{SessionID: sessionID, Time: float64(now.Unix())}
	if err := saveRecord(m.recordPath, m.record); err != nil {
		return "", fmt.Errorf("spcsession: persist session record: %w", err)
	}
	m.log.Infof("spcsession: logged in, session acquired")
	return sessionID, nil
}

// extractSessionID applies spec.md §4.B's primary pattern, falling back to
// the secure.htm-anchored pattern.
func extractSessionID(s string) string {
	if m := sessionFromQuery.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	if m := sessionFromSecure.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func loadRecord(path string) (Record, error) {
	raw, err := os.ReadFile(path) // #nosec G304 -- path derives from operator config
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, nil
		}
		return Record{}, nil // corrupt cache: start fresh, not fatal
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, nil
	}
	return rec, nil
}

func saveRecord(path string, rec Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %q: %w", dir, err)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".spc_session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp session file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename session file into place: %w", err)
	}
	return nil
}
