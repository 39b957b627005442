package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/entrance/internal/store"
)

var ownersCmd = &cobra.Command{
	Use:   "owners",
	Short: "Manage people and their entrance songs",
}

var ownersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List owners with their devices and songs",
	RunE:  runOwnersList,
}

var ownersAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an owner",
	Args:  cobra.ExactArgs(1),
	RunE:  runOwnersAdd,
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage devices seen on the network",
}

var networkUnknownCmd = &cobra.Command{
	Use:   "unknown",
	Short: "List devices nobody has claimed yet",
	RunE:  runNetworkUnknown,
}

var assignName string

var networkAssignCmd = &cobra.Command{
	Use:   "assign <mac> <owner>",
	Short: "Give a network device to an owner",
	Example: `  entrance network assign d0:50:99:07:6b:d1 austin --name "Austin's phone"`,
	Args:  cobra.ExactArgs(2),
	RunE:  runNetworkAssign,
}

var songsCmd = &cobra.Command{
	Use:   "songs",
	Short: "Manage entrance songs",
}

var (
	songArtist   string
	songTitle    string
	songStart    string
	songDuration int
)

var songsAddCmd = &cobra.Command{
	Use:   "add <owner>",
	Short: "Add an entrance song for an owner",
	Long: `Adds a candidate entrance song. When an owner has several songs, one is
picked at random on each arrival. A duration of 0 plays the whole track.`,
	Example: `  entrance songs add austin --artist "AC/DC" --title "Thunderstruck" --start 0:12 --duration 30`,
	Args:    cobra.ExactArgs(1),
	RunE:    runSongsAdd,
}

var songsRemoveCmd = &cobra.Command{
	Use:     "rm <song-id>",
	Aliases: []string{"remove"},
	Short:   "Remove an entrance song",
	Args:    cobra.ExactArgs(1),
	RunE:    runSongsRemove,
}

func init() {
	ownersCmd.AddCommand(ownersListCmd, ownersAddCmd)

	networkAssignCmd.Flags().StringVar(&assignName, "name", "", "friendly device name")
	networkCmd.AddCommand(networkUnknownCmd, networkAssignCmd)

	songsAddCmd.Flags().StringVar(&songArtist, "artist", "", "artist name (required)")
	songsAddCmd.Flags().StringVar(&songTitle, "title", "", "track title (required)")
	songsAddCmd.Flags().StringVar(&songStart, "start", "0:00", "where to start, as m:ss")
	songsAddCmd.Flags().IntVar(&songDuration, "duration", 0, "seconds to play, 0 for the whole track")
	_ = songsAddCmd.MarkFlagRequired("artist")
	_ = songsAddCmd.MarkFlagRequired("title")
	songsCmd.AddCommand(songsAddCmd, songsRemoveCmd)

	rootCmd.AddCommand(ownersCmd, networkCmd, songsCmd)
}

// withStore opens the configured database for one command.
func withStore(ctx context.Context, fn func(st *store.Store) error) error {
	st, err := store.Open(cfg.Database, commandLogger(), nil)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = st.Close() }()
	return fn(st)
}

func runOwnersList(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(st *store.Store) error {
		owners, err := st.ListOwners(cmd.Context())
		if err != nil {
			return err
		}
		if JSONOutput() {
			if owners == nil {
				owners = []store.Owner{}
			}
			return printJSON(owners)
		}
		if len(owners) == 0 {
			fmt.Println("No owners yet. Add one with 'entrance owners add <name>'.")
			return nil
		}

		for i, o := range owners {
			if i > 0 {
				fmt.Println()
			}
			fmt.Println(o.Name)
			for _, d := range o.Devices {
				fmt.Printf("  device  %s  %s\n", d.MACAddress, deviceLabel(d))
			}
			for _, s := range o.Songs {
				fmt.Printf("  song    %s - %s  %s  [%s]\n", s.Artist, s.Title, songWindow(s), s.ID)
			}
		}
		return nil
	})
}

func runOwnersAdd(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(st *store.Store) error {
		owner, err := st.CreateOwner(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(owner)
		}
		fmt.Printf("Added %s\n", owner.Name)
		return nil
	})
}

func runNetworkUnknown(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(st *store.Store) error {
		devices, err := st.ListUnknownDevices(cmd.Context())
		if err != nil {
			return err
		}
		if JSONOutput() {
			if devices == nil {
				devices = []store.Device{}
			}
			return printJSON(devices)
		}
		if len(devices) == 0 {
			fmt.Println("No unclaimed devices.")
			return nil
		}

		t := NewTable("MAC", "HOSTNAME", "FIRST SEEN")
		for _, d := range devices {
			t.Row(d.MACAddress, d.Hostname, d.CreatedAt.Local().Format(time.DateTime))
		}
		t.Flush()
		return nil
	})
}

func runNetworkAssign(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(st *store.Store) error {
		dev, err := st.AssignDevice(cmd.Context(), args[0], args[1], assignName)
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(dev)
		}
		fmt.Printf("%s now belongs to %s\n", dev.MACAddress, dev.Owner.Name)
		return nil
	})
}

func runSongsAdd(cmd *cobra.Command, args []string) error {
	minutes, seconds, err := parseStart(songStart)
	if err != nil {
		return err
	}
	song := store.Song{
		Artist:          songArtist,
		Title:           songTitle,
		StartMinutes:    minutes,
		StartSeconds:    seconds,
		DurationSeconds: songDuration,
	}

	return withStore(cmd.Context(), func(st *store.Store) error {
		added, err := st.AddSong(cmd.Context(), args[0], song)
		if err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(added)
		}
		fmt.Printf("Added %s - %s for %s (%s)\n", added.Artist, added.Title, args[0], added.ID)
		return nil
	})
}

func runSongsRemove(cmd *cobra.Command, args []string) error {
	return withStore(cmd.Context(), func(st *store.Store) error {
		if err := st.RemoveSong(cmd.Context(), args[0]); err != nil {
			return err
		}
		if JSONOutput() {
			return printJSON(map[string]string{"status": "removed", "id": args[0]})
		}
		fmt.Println("Removed.")
		return nil
	})
}

// parseStart reads "m:ss" or plain seconds.
func parseStart(s string) (minutes, seconds int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}
	m, sec, found := strings.Cut(s, ":")
	if !found {
		total, err := strconv.Atoi(s)
		if err != nil || total < 0 {
			return 0, 0, fmt.Errorf("invalid start %q: use m:ss", s)
		}
		return total / 60, total % 60, nil
	}
	minutes, err1 := strconv.Atoi(m)
	seconds, err2 := strconv.Atoi(sec)
	if err1 != nil || err2 != nil || minutes < 0 || seconds < 0 || seconds > 59 {
		return 0, 0, fmt.Errorf("invalid start %q: use m:ss", s)
	}
	return minutes, seconds, nil
}

func songWindow(s store.Song) string {
	start := FormatDuration(int(s.StartOffset().Seconds()))
	if s.DurationSeconds == 0 {
		return "from " + start + " to the end"
	}
	return fmt.Sprintf("from %s for %ds", start, s.DurationSeconds)
}

func deviceLabel(d store.Device) string {
	switch {
	case d.FriendlyName != "" && d.Hostname != "":
		return fmt.Sprintf("%s (%s)", d.FriendlyName, d.Hostname)
	case d.FriendlyName != "":
		return d.FriendlyName
	default:
		return d.Hostname
	}
}
