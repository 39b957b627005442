package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/tessro/entrance/internal/entrance"
)

// Subscriber is the part of mqtt.Client the watcher needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler paho.MessageHandler) error
	Unsubscribe(topic string) error
}

// Watcher prints every announcement published on a topic.
type Watcher struct {
	sub       Subscriber
	topic     string
	formatter *Formatter
	log       *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

// NewWatcher creates a watcher writing formatted lines to out.
func NewWatcher(sub Subscriber, topic string, formatter *Formatter, out io.Writer, log *zap.Logger) *Watcher {
	if formatter == nil {
		formatter = NewFormatter()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{sub: sub, topic: topic, formatter: formatter, out: out, log: log.Named("watch")}
}

// Run prints announcements until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.sub.Subscribe(w.topic, 1, w.handle); err != nil {
		return fmt.Errorf("subscribe %s: %w", w.topic, err)
	}
	<-ctx.Done()
	_ = w.sub.Unsubscribe(w.topic)
	return nil
}

func (w *Watcher) handle(_ paho.Client, msg paho.Message) {
	var a entrance.Announcement
	if err := json.Unmarshal(msg.Payload(), &a); err != nil {
		w.log.Warn("dropping malformed announcement", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, _ = fmt.Fprintln(w.out, w.formatter.Format(a))
}
