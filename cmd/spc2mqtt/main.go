// Command spc2mqtt bridges an ACRE SPC42 alarm panel's HTML web UI to an
// MQTT broker: it polls the panel, publishes parsed state, and routes MQTT
// commands back to the panel.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/firasghr/spc2mqtt/internal/config"
	"github.com/firasghr/spc2mqtt/internal/featuregate"
	"github.com/firasghr/spc2mqtt/internal/logger"
	"github.com/firasghr/spc2mqtt/internal/metrics"
	"github.com/firasghr/spc2mqtt/internal/mqttbridge"
	"github.com/firasghr/spc2mqtt/internal/panelclient"
	"github.com/firasghr/spc2mqtt/internal/panelcommand"
	"github.com/firasghr/spc2mqtt/internal/panelhtml"
	"github.com/firasghr/spc2mqtt/internal/panelstate"
	"github.com/firasghr/spc2mqtt/internal/snapshot"
	"github.com/firasghr/spc2mqtt/internal/spcsession"
	"github.com/firasghr/spc2mqtt/internal/watchdog"
	"github.com/firasghr/spc2mqtt/internal/workerpool"
)

func main() {
	configPath := flag.String("c", "", "path to the YAML configuration file")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "spc2mqtt: -c <config-path> is required")
		os.Exit(1)
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "spc2mqtt: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.New(logger.LevelInfo)

	client, err := panelclient.New(filepath.Join(cfg.SPC.SessionCacheDir, "spc_cookies.jar"))
	if err != nil {
		return fmt.Errorf("build panel client: %w", err)
	}

	sessions, err := spcsession.New(client, log, spcsession.Config{
		Host:                cfg.SPC.Host,
		User:                cfg.SPC.User,
		Pass:                cfg.SPC.PIN,
		Language:            cfg.SPC.Language,
		SessionCacheDir:     cfg.SPC.SessionCacheDir,
		MinLoginIntervalSec: cfg.SPC.MinLoginIntervalSec,
	})
	if err != nil {
		return fmt.Errorf("build session manager: %w", err)
	}

	gate := featuregate.New(cfg.Watchdog.Information, cfg.Watchdog.Controle)
	snap := snapshot.New()
	commander := panelcommand.New(client, cfg.SPC.Host)
	rec := metrics.New()

	bridge := mqttbridge.New(mqttbridge.Config{
		Host:      cfg.MQTT.Host,
		Port:      cfg.MQTT.Port,
		User:      cfg.MQTT.User,
		Pass:      cfg.MQTT.Pass,
		BaseTopic: cfg.MQTT.BaseTopic,
		ClientID:  cfg.MQTT.ClientID,
		QoS:       cfg.MQTT.QoS,
		Retain:    cfg.MQTT.Retain,
	}, gate, snap, sessions, commander, log, rec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("start mqtt bridge: %w", err)
	}
	defer bridge.Stop()

	scans := &scanner{
		host:     cfg.SPC.Host,
		client:   client,
		sessions: sessions,
		gate:     gate,
		bridge:   bridge,
		log:      log,
		pool:     workerpool.New(4),
		metrics:  rec,
	}

	wd := watchdog.New(watchdog.Config{
		RefreshInterval:           secondsToDuration(cfg.Watchdog.RefreshInterval),
		ControllerRefreshInterval: secondsToDuration(cfg.Watchdog.ControllerRefreshInterval),
	}, log, scans.fastScan, scans.controllerScan)

	log.Info("spc2mqtt: watchdog running")
	wd.Run(ctx)

	client.CloseIdleConnections()
	log.Info("spc2mqtt: shut down cleanly")
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// scanner holds everything the fast and controller scans need: the shared
// panel client and session manager, the feature gate, and the bridge they
// publish through.
type scanner struct {
	host     string
	client   *panelclient.Client
	sessions *spcsession.Manager
	gate     *featuregate.Gate
	bridge   *mqttbridge.Bridge
	log      *logger.Logger
	pool     *workerpool.Pool
	metrics  *metrics.Counters
}

func (s *scanner) pageURL(sessionID, page string) string {
	return fmt.Sprintf("%s/secure.htm?session=%s&page=%s", s.host, sessionID, page)
}

// fastScan fetches zones and sectors unconditionally, plus doors and
// outputs when their information flag is enabled, per spec.md §4.H. The
// four fetches run concurrently through the worker pool since they are
// independent GETs against different pages.
func (s *scanner) fastScan(ctx context.Context) error {
	s.sessions.Lock()
	defer s.sessions.Unlock()

	sessionID, err := s.sessions.GetOrLogin(ctx)
	if err != nil {
		s.recordFastScan(false)
		return fmt.Errorf("acquire session: %w", err)
	}
	if sessionID == "" {
		return nil
	}

	var zonesHTML, sectorsHTML, doorsHTML, outputsHTML string
	var zonesErr, sectorsErr, doorsErr, outputsErr error
	fetchDoors := s.gate.InformationEnabled(featuregate.Doors)
	fetchOutputs := s.gate.InformationEnabled(featuregate.Outputs)

	tasks := []func() error{
		func() error {
			res, err := s.client.Get(ctx, s.pageURL(sessionID, "status_zones"))
			zonesHTML, zonesErr = res.Body, err
			return err
		},
		func() error {
			res, err := s.client.Get(ctx, s.pageURL(sessionID, "spc_home"))
			sectorsHTML, sectorsErr = res.Body, err
			return err
		},
	}
	if fetchDoors {
		tasks = append(tasks, func() error {
			res, err := s.client.Get(ctx, s.pageURL(sessionID, "status_doors"))
			doorsHTML, doorsErr = res.Body, err
			return err
		})
	}
	if fetchOutputs {
		tasks = append(tasks, func() error {
			res, err := s.client.Get(ctx, s.pageURL(sessionID, "status_outputs"))
			outputsHTML, outputsErr = res.Body, err
			return err
		})
	}
	s.pool.Run(tasks...)

	if zonesErr == nil {
		if rows, err := panelhtml.ParseZones(zonesHTML); err == nil {
			s.bridge.PublishZones(panelstate.BuildZones(rows))
		} else {
			s.log.Warnf("fastscan: parse zones: %v", err)
		}
	} else {
		s.log.Warnf("fastscan: fetch zones: %v", zonesErr)
	}

	if sectorsErr == nil {
		if rows, err := panelhtml.ParseSectors(sectorsHTML); err == nil {
			s.bridge.PublishSectors(panelstate.BuildSectors(rows))
		} else {
			s.log.Warnf("fastscan: parse sectors: %v", err)
		}
	} else {
		s.log.Warnf("fastscan: fetch sectors: %v", sectorsErr)
	}

	if fetchDoors {
		if doorsErr == nil {
			if rows, err := panelhtml.ParseDoors(doorsHTML); err == nil {
				s.bridge.PublishDoors(panelstate.BuildDoors(rows))
			} else {
				s.log.Warnf("fastscan: parse doors: %v", err)
			}
		} else {
			s.log.Warnf("fastscan: fetch doors: %v", doorsErr)
		}
	}

	if fetchOutputs {
		if outputsErr == nil {
			if rows, err := panelhtml.ParseOutputs(outputsHTML); err == nil {
				s.bridge.PublishOutputs(panelstate.BuildOutputs(rows))
			} else {
				s.log.Warnf("fastscan: parse outputs: %v", err)
			}
		} else {
			s.log.Warnf("fastscan: fetch outputs: %v", outputsErr)
		}
	}

	s.recordFastScan(true)
	return nil
}

func (s *scanner) recordFastScan(ok bool) {
	if s.metrics != nil {
		s.metrics.IncFastScan(ok)
	}
}

func (s *scanner) recordControllerScan(ok bool) {
	if s.metrics != nil {
		s.metrics.IncControllerScan(ok)
	}
}

// controllerScan fetches and publishes the "État Centrale" page.
func (s *scanner) controllerScan(ctx context.Context) error {
	s.sessions.Lock()
	defer s.sessions.Unlock()

	sessionID, err := s.sessions.GetOrLogin(ctx)
	if err != nil {
		s.recordControllerScan(false)
		return fmt.Errorf("acquire session: %w", err)
	}
	if sessionID == "" {
		return nil
	}

	res, err := s.client.Get(ctx, s.pageURL(sessionID, "etat_centrale"))
	if err != nil {
		s.recordControllerScan(false)
		return fmt.Errorf("fetch controller status: %w", err)
	}

	entries, err := panelhtml.ParseControllerStatus(res.Body)
	if err != nil {
		s.recordControllerScan(false)
		return fmt.Errorf("parse controller status: %w", err)
	}

	s.bridge.PublishControllerStatus(panelstate.BuildControllerStatus(entries))
	s.recordControllerScan(true)
	return nil
}
