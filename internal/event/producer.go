package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/alpha-cen/auth-user-service/pkg/kafka"

	"github.com/alpha-cen/auth-user-service/internal/domain"
)

// Kafka topic constants for user domain events.
const (
	TopicUserRegistered = "auth.user.registered"
	TopicUserUpdated    = "auth.user.updated"
	TopicUserDeleted    = "auth.user.deleted"
)

const (
	aggregateTypeUser = "user"
	sourceService     = "auth-user-service"
)

// UserEventData is the payload shared by registered and updated events.
type UserEventData struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role"`
}

// UserDeletedData is the payload for a user.deleted event.
type UserDeletedData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Publisher is the event-publishing surface the services depend on. The
// no-op implementation backs deployments without Kafka.
type Publisher interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishUserUpdated(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, user *domain.User) error
}

// Producer publishes user domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates an event producer for the service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, user.ID, userData(user))
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserUpdated, user.ID, userData(user))
}

// PublishUserDeleted publishes a user.deleted event.
func (p *Producer) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, TopicUserDeleted, user.ID, UserDeletedData{
		ID:       user.ID,
		Username: user.Username,
	})
}

func userData(user *domain.User) UserEventData {
	return UserEventData{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
	}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, aggregateID, aggregateTypeUser, sourceService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}

// NoopPublisher discards events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishUserRegistered(context.Context, *domain.User) error { return nil }
func (NoopPublisher) PublishUserUpdated(context.Context, *domain.User) error    { return nil }
func (NoopPublisher) PublishUserDeleted(context.Context, *domain.User) error    { return nil }
