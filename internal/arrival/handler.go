package arrival

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/core"
	"github.com/tessro/entrance/internal/entrance"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/metrics"
	"github.com/tessro/entrance/internal/store"
)

// DefaultSearchLimit is how many results a song search asks for.
const DefaultSearchLimit = 20

// DeviceStore is the part of the store the handler needs.
type DeviceStore interface {
	LookupDeviceByAddress(ctx context.Context, addr string, virtual bool) (*store.Device, error)
	InsertUnknownDevice(ctx context.Context, addr, hostname string) (*store.Device, error)
}

// Searcher finds tracks on the streaming service.
type Searcher interface {
	Search(ctx context.Context, artist, title string, limit int) ([]core.Track, error)
}

// Enqueuer accepts entrance requests.
type Enqueuer interface {
	Enqueue(req entrance.Request)
}

// Config wires a Handler.
type Config struct {
	Store       DeviceStore
	Debouncer   *entrance.Debouncer
	Searcher    Searcher
	Queue       Enqueuer
	VirtualMAC  bool
	SearchLimit int
	Rand        *rand.Rand
	Clock       entrance.Clock
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
}

// Handler identifies the owner behind a DHCP request and queues their
// entrance song.
type Handler struct {
	store       DeviceStore
	debouncer   *entrance.Debouncer
	searcher    Searcher
	queue       Enqueuer
	virtualMAC  bool
	searchLimit int
	clock       entrance.Clock
	metrics     *metrics.Metrics
	log         *zap.Logger

	randMu sync.Mutex
	rand   *rand.Rand
}

// NewHandler creates a handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		store:       cfg.Store,
		debouncer:   cfg.Debouncer,
		searcher:    cfg.Searcher,
		queue:       cfg.Queue,
		virtualMAC:  cfg.VirtualMAC,
		searchLimit: cfg.SearchLimit,
		clock:       cfg.Clock,
		metrics:     cfg.Metrics,
		log:         cfg.Logger,
		rand:        cfg.Rand,
	}
	if h.searchLimit <= 0 {
		h.searchLimit = DefaultSearchLimit
	}
	if h.clock == nil {
		h.clock = entrance.RealClock()
	}
	if h.rand == nil {
		h.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	h.log = h.log.Named("arrival")
	return h
}

// Handle processes one DHCP request. Unknown devices are registered and
// produce nothing; so do owners without songs, repeat arrivals and songs
// the search cannot find.
func (h *Handler) Handle(ctx context.Context, ev Event) error {
	log := h.log.With(zap.String("mac", ev.SourceMAC))
	if host := ev.Hostname(); host != "" {
		log = log.With(zap.String("hostname", host))
	}
	if addr := ev.RequestedAddr(); addr != "" {
		log = log.With(zap.String("requested_addr", addr))
	}
	log.Debug("dhcp request")

	dev, err := h.store.LookupDeviceByAddress(ctx, ev.SourceMAC, h.virtualMAC)
	if errors.Is(err, entErrors.ErrUnknownDevice) {
		h.metrics.Arrival(metrics.ArrivalUnknown)
		if _, err := h.store.InsertUnknownDevice(ctx, ev.SourceMAC, ev.Hostname()); err != nil {
			return fmt.Errorf("register %s: %w", ev.SourceMAC, err)
		}
		log.Info("new device on the network")
		return nil
	}
	if err != nil {
		return err
	}

	owner := dev.Owner
	if owner == nil || len(owner.Songs) == 0 {
		h.metrics.Arrival(metrics.ArrivalNoSong)
		log.Info("device owner has no entrance song", zap.String("device", dev.FriendlyName))
		return nil
	}
	log = log.With(zap.String("owner", owner.Name))

	if !h.debouncer.Accept(owner.ID) {
		h.metrics.Arrival(metrics.ArrivalSuppressed)
		return nil
	}

	song := h.pick(owner.Songs)
	log.Info("*** ENTRANCE ***",
		zap.String("device", dev.FriendlyName),
		zap.String("title", song.Title),
		zap.String("artist", song.Artist))

	hits, err := h.searcher.Search(ctx, song.Artist, song.Title, h.searchLimit)
	if err != nil {
		return fmt.Errorf("search %s - %s: %w", song.Artist, song.Title, err)
	}
	if len(hits) == 0 {
		h.metrics.Arrival(metrics.ArrivalNoMatch)
		log.Warn("no track found", zap.String("title", song.Title), zap.String("artist", song.Artist))
		return nil
	}
	track := hits[0]

	req := entrance.Request{
		ID:          entrance.NewRequestID(),
		Owner:       owner.Name,
		Device:      dev.FriendlyName,
		TrackURI:    track.URI,
		Title:       track.Title,
		Artist:      song.Artist,
		StartOffset: song.StartOffset(),
		Duration:    song.PlayDuration(),
		TrackLength: track.Duration,
		EnqueuedAt:  h.clock.Now(),
	}
	h.queue.Enqueue(req)
	h.metrics.Arrival(metrics.ArrivalAccepted)
	log.Info("queued entrance", zap.String("request", req.ID), zap.String("uri", track.URI))
	return nil
}

func (h *Handler) pick(songs []store.Song) store.Song {
	h.randMu.Lock()
	defer h.randMu.Unlock()
	return songs[h.rand.IntN(len(songs))]
}
