package publisher

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"buzznest/events"
)

// Transport delivers an encoded event on a subject. *nats.Client satisfies it.
type Transport interface {
	Publish(subject string, data []byte) error
}

type EventPublisher struct {
	transport Transport
}

// NewEventPublisher returns a publisher over t. A nil transport disables
// publication.
func NewEventPublisher(t Transport) *EventPublisher {
	return &EventPublisher{transport: t}
}

// enabled reports whether events are actually delivered.
func (p *EventPublisher) enabled() bool {
	return p != nil && p.transport != nil
}

func (p *EventPublisher) publish(subject string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.transport.Publish(subject, data); err != nil {
		return err
	}
	return nil
}

func (p *EventPublisher) PublishPostCreated(event events.PostCreatedEvent) error {
	if !p.enabled() {
		return nil
	}
	if err := p.publish(events.PostCreated, event); err != nil {
		return err
	}
	log.Debug().Msgf("Published event: %s for post %s", events.PostCreated, event.PostID)
	return nil
}

func (p *EventPublisher) PublishPostDeleted(event events.PostDeletedEvent) error {
	if !p.enabled() {
		return nil
	}
	if err := p.publish(events.PostDeleted, event); err != nil {
		return err
	}
	log.Debug().Msgf("Published event: %s for post %s", events.PostDeleted, event.PostID)
	return nil
}

// PublishPostLike publishes post.liked or post.unliked depending on liked.
func (p *EventPublisher) PublishPostLike(event events.PostLikeEvent, liked bool) error {
	if !p.enabled() {
		return nil
	}
	subject := events.PostUnliked
	if liked {
		subject = events.PostLiked
	}
	if err := p.publish(subject, event); err != nil {
		return err
	}
	log.Debug().Msgf("Published event: %s for post %s", subject, event.PostID)
	return nil
}

func (p *EventPublisher) PublishCommentAdded(event events.CommentAddedEvent) error {
	if !p.enabled() {
		return nil
	}
	if err := p.publish(events.CommentAdded, event); err != nil {
		return err
	}
	log.Debug().Msgf("Published event: %s for comment %s", events.CommentAdded, event.CommentID)
	return nil
}

// PublishFollow publishes user.followed or user.unfollowed depending on following.
func (p *EventPublisher) PublishFollow(event events.FollowEvent, following bool) error {
	if !p.enabled() {
		return nil
	}
	subject := events.UserUnfollowed
	if following {
		subject = events.UserFollowed
	}
	if err := p.publish(subject, event); err != nil {
		return err
	}
	log.Debug().Msgf("Published event: %s for user %s", subject, event.FollowingID)
	return nil
}
