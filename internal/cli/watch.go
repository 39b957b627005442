package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tessro/entrance/internal/mqtt"
	"github.com/tessro/entrance/internal/watch"
)

var (
	watchTimestamp bool
	watchNoEmoji   bool
	watchFormat    string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow entrances announced over MQTT",
	Long: `Subscribes to the announce topic and prints each entrance as it happens.
Works from any machine that can reach the broker.`,
	Example: `  entrance watch --timestamp
  entrance watch --format '{{.Time}} {{.Owner}} -> {{.Title}}'`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchTimestamp, "timestamp", "t", false, "prefix lines with the time")
	watchCmd.Flags().BoolVar(&watchNoEmoji, "no-emoji", false, "plain output")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "Go template for each line")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if cfg.MQTT.Broker == "" {
		return errors.New("mqtt.broker is not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := mqtt.OptionsFromConfig(cfg.MQTT, commandLogger())
	opts.ClientID = cfg.MQTT.ClientID + "-watch"
	mc, err := mqtt.NewClient(opts)
	if err != nil {
		return fmt.Errorf("connect to mqtt broker: %w", err)
	}
	defer mc.Close()

	formatter := watch.NewFormatter(
		watch.WithEmoji(!watchNoEmoji),
		watch.WithTimestamp(watchTimestamp),
		watch.WithTemplate(watchFormat),
	)
	topic := mqtt.Topic(cfg.MQTT.TopicBase, mqtt.TopicAnnounce)
	fmt.Fprintf(os.Stderr, "Watching %s (ctrl+c to stop)\n", topic)
	return watch.NewWatcher(mc, topic, formatter, os.Stdout, commandLogger()).Run(ctx)
}
