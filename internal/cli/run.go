package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/broker"
	"github.com/tessro/entrance/internal/capture"
	"github.com/tessro/entrance/internal/config"
	"github.com/tessro/entrance/internal/daemon"
	"github.com/tessro/entrance/internal/entrance"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/metrics"
	"github.com/tessro/entrance/internal/mqtt"
	"github.com/tessro/entrance/internal/store"
)

var (
	runVolume     int
	runDevice     string
	runVirtualMAC bool
	runSource     string
	runInterface  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Watch for arrivals and play entrance songs",
	Long: `Starts the entrance daemon. It listens for DHCP requests, looks up who
owns the requesting device, and plays one of their entrance songs on Spotify.
Whatever was playing before is faded out and resumed afterwards.

Sniffing DHCP with the pcap source needs root or CAP_NET_RAW.`,
	Example: `  entrance run --volume 60
  entrance run --device 4a7c... --virtualmac
  entrance run --source mqtt`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runVolume, "volume", 0, "volume entrance songs play at, 0-100 (default from config)")
	runCmd.Flags().StringVar(&runDevice, "device", "", "Spotify device id to play on (see 'entrance devices')")
	runCmd.Flags().BoolVar(&runVirtualMAC, "virtualmac", false, "match devices by the last three bytes of their MAC")
	runCmd.Flags().StringVar(&runSource, "source", "", "where DHCP events come from: pcap or mqtt")
	runCmd.Flags().StringVarP(&runInterface, "interface", "i", "", "network interface for the pcap source")
	rootCmd.AddCommand(runCmd)
}

// applyRunFlags folds explicitly set flags into c and rechecks it.
func applyRunFlags(cmd *cobra.Command, c *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("volume") {
		if err := config.ValidateVolume(runVolume); err != nil {
			return fmt.Errorf("%w: %v", entErrors.ErrInvalidVolume, err)
		}
		c.Playback.Volume = runVolume
	}
	if flags.Changed("device") {
		c.Playback.Device = runDevice
	}
	if flags.Changed("virtualmac") {
		c.Arrival.VirtualMAC = runVirtualMAC
	}
	if flags.Changed("source") {
		c.Capture.Source = runSource
	}
	if flags.Changed("interface") {
		c.Capture.Interface = runInterface
	}
	return c.Validate()
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd, cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m := metrics.New()

	st, err := store.Open(cfg.Database, log, m)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = st.Close() }()

	conn, err := connectSpotify(ctx, log)
	if err != nil {
		return err
	}
	dev, err := daemon.VerifyDevice(ctx, conn.player, cfg.Playback.Device)
	if err != nil {
		return err
	}
	if dev != nil {
		conn.player.SetDevice(dev.ID)
		log.Info("playing on device", zap.String("device", dev.Name), zap.String("id", dev.ID))
	} else {
		log.Info("playing on the active device")
	}

	var extra []daemon.Module
	if cfg.MQTT.Embedded {
		b, err := broker.New(log, cfg.MQTT)
		if err != nil {
			return err
		}
		if err := b.Start(); err != nil {
			return err
		}
		extra = append(extra, daemon.Module{Name: "broker", Run: b.Run})
	}
	if cfg.Metrics.Listen != "" {
		extra = append(extra, daemon.Module{Name: "metrics", Run: func(ctx context.Context) error {
			return m.Serve(ctx, cfg.Metrics.Listen, log)
		}})
	}

	var announcers entrance.Announcers
	if banner, ok := terminalBanner(); ok {
		announcers = append(announcers, banner)
	}

	var mc *mqtt.Client
	if cfg.MQTT.Broker != "" {
		mc, err = mqtt.NewClient(mqtt.OptionsFromConfig(cfg.MQTT, log))
		if err != nil {
			return fmt.Errorf("connect to mqtt broker: %w", err)
		}
		defer mc.Close()
		announcers = append(announcers, mqtt.NewAnnouncer(mc, cfg.MQTT.TopicBase))
	}

	var sub capture.Subscriber
	if mc != nil {
		sub = mc
	}
	source, err := capture.New(cfg, sub, log)
	if err != nil {
		return err
	}

	d := daemon.New(daemon.Deps{
		Config:    cfg,
		Session:   conn.player,
		Store:     st,
		Source:    source,
		Announcer: announcers,
		Metrics:   m,
		Logger:    log,
		Extra:     extra,
	})

	log.Info("entrance started",
		zap.String("source", cfg.Capture.Source),
		zap.Int("volume", cfg.Playback.Volume),
		zap.Bool("virtual_mac", cfg.Arrival.VirtualMAC),
		zap.Duration("debounce", cfg.Arrival.Debounce))

	return d.Run(ctx)
}
