package ports

import (
	"context"
	"reflect"

	"github.com/sglre6355/dismusic/internal/modules/music_player/domain"
)

// EventPublisher publishes player lifecycle events.
// Publish must not block; events are delivered to subscribers in publish order.
type EventPublisher interface {
	Publish(event domain.Event) error
}

// EventSubscriber registers handlers for a concrete event type,
// e.g. reflect.TypeFor[domain.TrackEndedEvent]().
type EventSubscriber interface {
	Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error
}
