// Package store keeps the owners, devices and songs entrance knows about.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tessro/entrance/internal/config"
	entErrors "github.com/tessro/entrance/internal/errors"
	"github.com/tessro/entrance/internal/metrics"
)

// Store is the device database.
type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

// Open connects to the configured backend and migrates the schema. m may
// be nil.
func Open(cfg config.DatabaseConfig, log *zap.Logger, m *metrics.Metrics) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("store")

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: newGormLogger(log)})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.Driver == "sqlite" || cfg.Driver == "" {
		// sqlite allows one writer at a time
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(2)
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	if m != nil {
		if err := registerCallbacks(db, m); err != nil {
			return nil, fmt.Errorf("register callbacks: %w", err)
		}
	}

	s := &Store{db: db, log: log}
	if err := s.Migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Owner{}, &Device{}, &Song{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close releases database resources.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) devices(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Preload("Owner").Preload("Owner.Songs")
}

// LookupDeviceByAddress finds the device with the given hardware address.
// With virtual set, a device whose last three bytes match is accepted when
// there is no exact match. Returns ErrUnknownDevice when nothing matches.
func (s *Store) LookupDeviceByAddress(ctx context.Context, addr string, virtual bool) (*Device, error) {
	mac, err := NormalizeMAC(addr)
	if err != nil {
		return nil, err
	}

	var dev Device
	err = s.devices(ctx).Where("mac_address = ?", mac).First(&dev).Error
	if err == nil {
		return &dev, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", mac, err)
	}

	if virtual {
		err = s.devices(ctx).
			Where("mac_address LIKE ?", "%"+VirtualSuffix(mac)).
			Order("created_at").
			First(&dev).Error
		if err == nil {
			s.log.Debug("matched device by virtual suffix", zap.String("mac", mac), zap.String("device", dev.MACAddress))
			return &dev, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("lookup %s: %w", mac, err)
		}
	}

	return nil, fmt.Errorf("%w: %s", entErrors.ErrUnknownDevice, mac)
}

// InsertUnknownDevice registers a device nobody has claimed yet under the
// unknown owner. Registering the same address twice is not an error.
func (s *Store) InsertUnknownDevice(ctx context.Context, addr, hostname string) (*Device, error) {
	mac, err := NormalizeMAC(addr)
	if err != nil {
		return nil, err
	}

	owner, err := s.ensureOwner(ctx, UnknownOwnerName)
	if err != nil {
		return nil, err
	}

	dev := &Device{
		MACAddress:   mac,
		Hostname:     hostname,
		FriendlyName: UnknownDeviceName,
		OwnerID:      owner.ID,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(dev)
	if res.Error != nil {
		return nil, fmt.Errorf("insert %s: %w", mac, res.Error)
	}
	if res.RowsAffected == 0 {
		s.log.Info("device already registered", zap.String("mac", mac))
		var existing Device
		if err := s.db.WithContext(ctx).Where("mac_address = ?", mac).First(&existing).Error; err != nil {
			return nil, fmt.Errorf("load %s: %w", mac, err)
		}
		return &existing, nil
	}

	s.log.Info("registered unknown device", zap.String("mac", mac), zap.String("hostname", hostname))
	return dev, nil
}

func (s *Store) ensureOwner(ctx context.Context, name string) (*Owner, error) {
	var owner Owner
	err := s.db.WithContext(ctx).Where(Owner{Name: name}).FirstOrCreate(&owner).Error
	if err != nil {
		return nil, fmt.Errorf("owner %q: %w", name, err)
	}
	return &owner, nil
}

// CreateOwner adds a new owner.
func (s *Store) CreateOwner(ctx context.Context, name string) (*Owner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("owner name cannot be empty")
	}
	owner := &Owner{Name: name}
	if err := s.db.WithContext(ctx).Create(owner).Error; err != nil {
		return nil, fmt.Errorf("create owner %q: %w", name, err)
	}
	return owner, nil
}

// FindOwner loads an owner with devices and songs.
func (s *Store) FindOwner(ctx context.Context, name string) (*Owner, error) {
	var owner Owner
	err := s.db.WithContext(ctx).
		Preload("Devices").
		Preload("Songs").
		Where("name = ?", name).
		First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", entErrors.ErrOwnerNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return &owner, nil
}

// ListOwners returns all owners with devices and songs, by name.
func (s *Store) ListOwners(ctx context.Context) ([]Owner, error) {
	var owners []Owner
	err := s.db.WithContext(ctx).
		Preload("Devices").
		Preload("Songs").
		Order("name").
		Find(&owners).Error
	return owners, err
}

// AssignDevice gives the device at addr to owner, registering it if
// needed. An empty friendlyName keeps the current one.
func (s *Store) AssignDevice(ctx context.Context, addr, ownerName, friendlyName string) (*Device, error) {
	mac, err := NormalizeMAC(addr)
	if err != nil {
		return nil, err
	}
	owner, err := s.FindOwner(ctx, ownerName)
	if err != nil {
		return nil, err
	}

	var dev Device
	err = s.db.WithContext(ctx).Where("mac_address = ?", mac).First(&dev).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		dev = Device{MACAddress: mac, OwnerID: owner.ID, FriendlyName: friendlyName}
		if err := s.db.WithContext(ctx).Create(&dev).Error; err != nil {
			return nil, fmt.Errorf("create device %s: %w", mac, err)
		}
	case err != nil:
		return nil, err
	default:
		dev.OwnerID = owner.ID
		if friendlyName != "" {
			dev.FriendlyName = friendlyName
		}
		if err := s.db.WithContext(ctx).Save(&dev).Error; err != nil {
			return nil, fmt.Errorf("update device %s: %w", mac, err)
		}
	}

	dev.Owner = owner
	return &dev, nil
}

// AddSong adds a candidate entrance song for an owner.
func (s *Store) AddSong(ctx context.Context, ownerName string, song Song) (*Song, error) {
	if err := validateSong(song); err != nil {
		return nil, err
	}
	owner, err := s.FindOwner(ctx, ownerName)
	if err != nil {
		return nil, err
	}

	song.ID = ""
	song.OwnerID = owner.ID
	if err := s.db.WithContext(ctx).Create(&song).Error; err != nil {
		return nil, fmt.Errorf("add song: %w", err)
	}
	return &song, nil
}

func validateSong(song Song) error {
	var errs []error
	if strings.TrimSpace(song.Artist) == "" {
		errs = append(errs, errors.New("artist is required"))
	}
	if strings.TrimSpace(song.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if song.StartMinutes < 0 {
		errs = append(errs, errors.New("start minutes cannot be negative"))
	}
	if song.StartSeconds < 0 || song.StartSeconds > 59 {
		errs = append(errs, errors.New("start seconds must be between 0 and 59"))
	}
	if song.DurationSeconds < 0 {
		errs = append(errs, errors.New("duration cannot be negative"))
	}
	return errors.Join(errs...)
}

// RemoveSong deletes a song by id.
func (s *Store) RemoveSong(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&Song{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("song %s not found", id)
	}
	return nil
}

// ListUnknownDevices returns devices still held by the unknown owner,
// newest first.
func (s *Store) ListUnknownDevices(ctx context.Context) ([]Device, error) {
	var owner Owner
	err := s.db.WithContext(ctx).Where("name = ?", UnknownOwnerName).First(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var devices []Device
	err = s.db.WithContext(ctx).
		Where("owner_id = ?", owner.ID).
		Order("created_at desc").
		Find(&devices).Error
	return devices, err
}
