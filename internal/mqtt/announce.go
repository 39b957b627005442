package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tessro/entrance/internal/entrance"
)

// Publisher is the part of Client the announcer needs.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// Announcer publishes entrances as JSON on <base>/announce.
type Announcer struct {
	pub   Publisher
	topic string
}

// NewAnnouncer creates an announcer under topicBase.
func NewAnnouncer(pub Publisher, topicBase string) *Announcer {
	return &Announcer{pub: pub, topic: Topic(topicBase, TopicAnnounce)}
}

// Announce implements entrance.Announcer.
func (a *Announcer) Announce(ctx context.Context, ann entrance.Announcement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(ann)
	if err != nil {
		return fmt.Errorf("marshal announcement: %w", err)
	}
	return a.pub.Publish(a.topic, 1, false, payload)
}

var _ entrance.Announcer = (*Announcer)(nil)
