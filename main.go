package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"lab-radar.klederson.com/internal/answer"
	"lab-radar.klederson.com/internal/app"
	"lab-radar.klederson.com/internal/config"
	"lab-radar.klederson.com/internal/engine"
	"lab-radar.klederson.com/internal/labs"
	"lab-radar.klederson.com/internal/location"
	"lab-radar.klederson.com/internal/logger"
	"lab-radar.klederson.com/internal/metrics"
	"lab-radar.klederson.com/internal/msglog"
	"lab-radar.klederson.com/internal/notify"
	"lab-radar.klederson.com/internal/remote"
	"lab-radar.klederson.com/internal/settings"
	"lab-radar.klederson.com/internal/store/kv"
)

var (
	flagDemo        bool
	flagHeadless    bool
	flagNotify      bool
	flagGPSPort     string
	flagBaud        int
	flagConfig      string
	flagLogFile     string
	flagMetricsAddr string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lab-radar",
		Short: "LAB-RADAR - Terminal lab finder with proximity notifications",
		Long: `LAB-RADAR follows your position from a GPS receiver, keeps the labs around
you sorted by distance and notifies you once per approach when you come close
to an unanswered lab. Answers are submitted from the terminal.

Use --gps-port to read NMEA from a serial GPS receiver, or --demo to walk a
simulated route around generated labs without hardware or network.`,
		SilenceUsage: true,
		RunE:         run,
	}

	f := rootCmd.Flags()
	f.BoolVar(&flagDemo, "demo", false, "Simulated walk and generated labs (no GPS or network required)")
	f.BoolVar(&flagHeadless, "headless", false, "Print refresh cycles to stdout instead of starting the TUI")
	f.BoolVar(&flagNotify, "notify", false, "Enable notifications at startup")
	f.StringVar(&flagGPSPort, "gps-port", "", "Serial port of the GPS receiver (e.g. /dev/ttyUSB0)")
	f.IntVar(&flagBaud, "baud", config.DefaultBaudRate, "GPS receiver baud rate")
	f.StringVar(&flagConfig, "config", "", "Optional settings file (yaml, json or toml)")
	f.StringVar(&flagLogFile, "log-file", "lab-radar.log", "Structured log destination, empty to discard")
	f.StringVar(&flagMetricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address (e.g. :9090)")

	// Settings flags are resolved through viper together with env and config file.
	f.Int(settings.KeyUpdateInterval, config.DefaultUpdateInterval, "Seconds between samples: 0 continuous, >0 poll, <0 replay")
	f.Bool(settings.KeyHighAccuracy, false, "Drop GPS fixes with poor precision")
	f.Float64(settings.KeyBlockSize, config.DefaultBlockSize, "Large refresh after moving more than block-size * 250m")
	f.Float64(settings.KeyNotificationDistance, config.DefaultNotificationDistance, "Notification radius in meters, 0 disables")
	f.String(settings.KeyDataURL, config.DefaultDataURL, "Lab data endpoint")
	f.Bool(settings.KeyHideAnswered, false, "Hide correctly answered labs from the list")
	f.String(settings.KeyStore, "sqlite://lab-radar.db", "Persistence DSN: memory://, sqlite://, redis://, postgres://")
	f.String(settings.KeyLogLevel, logger.LevelInfo, "Log level: DEBUG, INFO, WARN, ERROR")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "ports",
		Short: "List serial ports that may carry a GPS receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := location.SerialPorts()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	set, err := settings.Load(flagConfig, cmd.Flags())
	if err != nil {
		return err
	}
	if !logger.ValidateLogLevel(set.LogLevel()) {
		return fmt.Errorf("invalid log level %q", set.LogLevel())
	}

	logOut := io.Discard
	if flagLogFile != "" {
		lf, err := os.OpenFile(flagLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		logOut = lf
	}
	log := logger.New(logOut, "lab-radar", set.LogLevel())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagMetricsAddr != "" {
		go func() {
			if err := metrics.Serve(ctx, flagMetricsAddr); err != nil {
				log.Error(ctx, "metrics server stopped", err)
			}
		}()
	}

	storeDSN := set.StoreDSN()
	if flagDemo {
		storeDSN = "memory://"
	}
	store, err := kv.Open(ctx, storeDSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	client, source, err := buildSources(set, log)
	if err != nil {
		return err
	}

	messages := msglog.New(config.MessageBuffer)
	labStore := labs.NewStore(store, log)
	dispatcher := notify.NewDispatcher(labStore, client, notify.NewDirectChannel(os.Stdout), messages, log)
	if flagNotify {
		dispatcher.RequestPermission()
	}

	deps := app.Deps{
		Settings: set,
		Source:   source,
		Store:    labStore,
		Engine: engine.New(ctx, engine.Deps{
			Store:    labStore,
			Remote:   client,
			Notifier: dispatcher,
			Settings: set,
			KV:       store,
			Messages: messages,
			Log:      log,
		}),
		Dispatcher: dispatcher,
		Answers:    answer.NewMachine(labStore, client, messages, log),
		Remote:     client,
		Messages:   messages,
		Log:        log,
	}

	log.Info(ctx, "starting", "demo", flagDemo, "headless", flagHeadless, "store", storeDSN)

	if flagHeadless {
		return app.RunHeadless(ctx, deps, os.Stdout)
	}

	model := app.New(ctx, deps)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithFPS(30),
	)
	model.Start(p)
	defer model.Close()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// buildSources picks the lab data source and the position source.
func buildSources(set *settings.Settings, log logger.Logger) (remote.Client, location.Source, error) {
	if flagDemo {
		start := location.ReplayCoordinate(time.Now())
		seed := time.Now().UnixNano()
		return remote.NewDemoClient(24, seed), location.NewSimSource(start, seed), nil
	}

	client, err := remote.NewHTTPClient(set.DataURL(), &http.Client{}, log)
	if err != nil {
		return nil, nil, fmt.Errorf("remote client: %w", err)
	}

	var source location.Source
	if flagGPSPort != "" {
		source = location.NewSerialSource(flagGPSPort, flagBaud)
	}
	// Without a source the sampler reports a capability error; replay still works.
	return client, source, nil
}
