package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"suggestbox/internal/activity"
	"suggestbox/internal/autotag"
	"suggestbox/internal/config"
	"suggestbox/internal/eventbus"
	"suggestbox/internal/logging"
	"suggestbox/internal/suggest"
	"suggestbox/internal/ui"
)

// watchQuiet coalesces the burst of writes an image save produces
const watchQuiet = 100 * time.Millisecond

func main() {
	// Parse command line arguments
	var (
		configPath  string
		endpoint    string
		imagePath   string
		logPath     string
		debug       bool
		writeConfig bool
	)
	flag.StringVar(&configPath, "config", "", "Path to the config file (default "+config.ConfigPath()+")")
	flag.StringVar(&endpoint, "endpoint", "", "Suggestion endpoint URL")
	flag.StringVar(&imagePath, "image", "", "Image to auto-tag; re-uploaded whenever it changes")
	flag.StringVar(&logPath, "log", "suggestbox.log", "Log file, empty to disable logging")
	flag.BoolVar(&debug, "debug", false, "Log at debug level")
	flag.BoolVar(&writeConfig, "write-config", false, "Write the effective config file and exit")
	flag.Parse()

	// Set up logging
	level := ""
	if debug {
		level = "debug"
	}
	logCloser, err := logging.Setup(logPath, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create event bus
	bus := eventbus.New()
	defer bus.Close()

	// Events for the UI are queued until the program runs
	eventChan := make(chan eventbus.DomainEvent, 100)
	forwardEvent := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			log.Warn("event channel full, dropping event", "type", e.Type())
		}
	}
	bus.Subscribe(eventbus.EventConfigLoaded, forwardEvent)
	bus.Subscribe(eventbus.EventConfigSaved, forwardEvent)

	// Audit trail of suggestion, submit and auto-tag activity
	journal := activity.NewJournal()
	defer journal.Attach(bus)()

	// Load configuration
	configSvc := config.NewConfigServiceWithBus(bus, configPath)
	cfg, err := configSvc.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if cfg.LogLevel != "" && !debug {
		lvl, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			log.Warn("ignoring log level from config", "err", err)
		} else {
			log.SetLevel(lvl)
		}
	}

	// Apply environment and flag overrides
	cfg.Suggest.Endpoint = config.ResolveEndpoint(cfg)
	cfg.Autotag.Endpoint = config.ResolveAutotagEndpoint(cfg)
	if endpoint != "" {
		cfg.Suggest.Endpoint = endpoint
	}
	if imagePath != "" {
		cfg.Autotag.Image = imagePath
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config %s:\n%v\n", configSvc.Path(), err)
		os.Exit(1)
	}

	if writeConfig {
		if err := configSvc.Save(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config written to %s\n", configSvc.Path())
		return
	}

	// Suggestion transport
	decoder, err := suggest.DecoderFor(cfg.Suggest.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	transport, err := suggest.NewHTTPTransport(cfg.Suggest.Endpoint, cfg.Suggest.Param, decoder, cfg.Suggest.RequestTimeout.Std())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Auto-tagging is optional
	var tagger *autotag.Tagger
	if cfg.Autotag.Endpoint != "" && cfg.Autotag.Field != "" {
		tagger, err = autotag.NewTagger(cfg.Autotag.Endpoint, cfg.Autotag.CSRFToken,
			autotag.WithTimeout(cfg.Autotag.Timeout.Std()))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	log.Info("starting", "endpoint", cfg.Suggest.Endpoint, "fields", len(cfg.Fields))

	model := ui.NewModel(bus, cfg, transport, tagger)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	// Start forwarding events to UI in background
	go func() {
		for e := range eventChan {
			p.Send(ui.EventMsg{Event: e})
		}
	}()

	if tagger != nil && cfg.Autotag.Image != "" {
		go func() {
			err := autotag.Watch(ctx, cfg.Autotag.Image, watchQuiet, func(path string) {
				p.Send(autotag.StartMsg{Path: path})
			})
			if err != nil {
				log.Warn("not watching image", "path", cfg.Autotag.Image, "err", err)
			}
		}()
	}

	// Run the UI
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		log.Error("program failed", "err", err)
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
	journal.Summarize()
	log.Info("exited normally")

	model.Close()
	cancel()
}
