package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/entrance/internal/core"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List Spotify playback devices",
	Long:  `Lists the Spotify Connect devices entrance can play on. Pass an id to 'entrance run --device'.`,
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	conn, err := connectSpotify(ctx, commandLogger())
	if err != nil {
		return err
	}

	devices, err := conn.player.ListDevices(ctx)
	if err != nil {
		return err
	}

	if JSONOutput() {
		if devices == nil {
			devices = []core.Device{}
		}
		return printJSON(devices)
	}
	if len(devices) == 0 {
		fmt.Println("No devices found. Open Spotify on a device first.")
		return nil
	}

	t := NewTable("", "NAME", "TYPE", "VOLUME", "ID")
	for _, d := range devices {
		t.Row(activeMark(d.IsActive), d.Name, string(d.Type), fmt.Sprintf("%d%%", d.Volume), d.ID)
	}
	t.Flush()
	return nil
}
