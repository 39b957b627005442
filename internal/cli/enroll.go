package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/entrance/internal/core"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/store"
	"github.com/tessro/entrance/internal/wizard"
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Interactively set someone up with a device and an entrance song",
	Long: `Walks through claiming an unknown network device for a person and
choosing their entrance song from Spotify search.`,
	RunE: runEnroll,
}

func init() {
	rootCmd.AddCommand(enrollCmd)
}

func runEnroll(cmd *cobra.Command, args []string) error {
	if !wizard.IsTerminal() {
		return errors.New("enroll needs an interactive terminal; use 'entrance network assign' and 'entrance songs add' instead")
	}
	ctx := cmd.Context()

	return withStore(ctx, func(st *store.Store) error {
		unknown, err := st.ListUnknownDevices(ctx)
		if err != nil {
			return err
		}
		dev, err := wizard.RunDevicePicker(unknown)
		if err != nil {
			return err
		}
		if dev == nil {
			return errors.New("no device selected")
		}

		var ownerName, friendlyName string
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Whose device is this?").
					Value(&ownerName).
					Validate(func(s string) error {
						if strings.TrimSpace(s) == "" {
							return errors.New("a name is required")
						}
						return nil
					}),
				huh.NewInput().
					Title("Device name").
					Placeholder(dev.Hostname).
					Value(&friendlyName),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("enroll cancelled: %w", err)
		}
		ownerName = strings.TrimSpace(ownerName)
		if friendlyName == "" {
			friendlyName = dev.Hostname
		}

		if _, err := st.FindOwner(ctx, ownerName); entErrors.Is(err, entErrors.ErrOwnerNotFound) {
			if _, err := st.CreateOwner(ctx, ownerName); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		if _, err := st.AssignDevice(ctx, dev.MACAddress, ownerName, friendlyName); err != nil {
			return err
		}
		fmt.Printf("%s now belongs to %s\n", dev.MACAddress, ownerName)

		conn, err := connectSpotify(ctx, commandLogger())
		if err != nil {
			return err
		}
		track, err := wizard.RunSearch(func(q string) ([]core.Track, error) {
			return conn.player.Search(ctx, "", q, cfg.Playback.SearchLimit)
		})
		if err != nil {
			return err
		}
		if track == nil {
			fmt.Println("No song chosen. Add one later with 'entrance songs add'.")
			return nil
		}

		start, duration := "0:00", "30"
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Start at (m:ss)").
					Value(&start).
					Validate(func(s string) error {
						_, _, err := parseStart(s)
						return err
					}),
				huh.NewInput().
					Title("Play for how many seconds? (0 plays to the end)").
					Value(&duration).
					Validate(func(s string) error {
						if n, err := strconv.Atoi(s); err != nil || n < 0 {
							return errors.New("enter a whole number of seconds")
						}
						return nil
					}),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("enroll cancelled: %w", err)
		}

		minutes, seconds, _ := parseStart(start)
		secs, _ := strconv.Atoi(duration)
		song, err := st.AddSong(ctx, ownerName, store.Song{
			Artist:          track.Artist,
			Title:           track.Title,
			StartMinutes:    minutes,
			StartSeconds:    seconds,
			DurationSeconds: secs,
		})
		if err != nil {
			return err
		}
		fmt.Printf("%s will enter to %s - %s\n", ownerName, song.Artist, song.Title)
		return nil
	})
}
