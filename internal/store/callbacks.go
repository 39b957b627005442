package store

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tessro/entrance/internal/metrics"
)

const startTimeKey = "entrance:start_time"

// registerCallbacks times every gorm operation into m.
func registerCallbacks(db *gorm.DB, m *metrics.Metrics) error {
	cb := db.Callback()
	steps := []struct {
		op     string
		before func(name string, fn func(*gorm.DB)) error
		after  func(name string, fn func(*gorm.DB)) error
	}{
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
	}
	for _, s := range steps {
		if err := s.before("metrics:before_"+s.op, beforeCallback); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.op, afterCallback(s.op, m)); err != nil {
			return err
		}
	}
	return nil
}

func beforeCallback(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func afterCallback(op string, m *metrics.Metrics) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		err := db.Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = nil
		}
		m.DBQuery(op, db.Statement.Table, time.Since(start), err)
	}
}
