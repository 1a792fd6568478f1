package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/inifarhan/rest-api-with-jwt-and-pagination/internal/domain"
	pkgkafka "github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/kafka"
	"github.com/inifarhan/rest-api-with-jwt-and-pagination/pkg/logger"
)

// Aggregate types.
const (
	AggregateTypeUser    = "user"
	AggregateTypeProduct = "product"
)

// Source identifies events written by this server.
const Source = "rest-api"

// Topics for user and product events.
var (
	TopicUserRegistered = pkgkafka.Topic(AggregateTypeUser, "registered")
	TopicUserUpdated    = pkgkafka.Topic(AggregateTypeUser, "updated")
	TopicProductCreated = pkgkafka.Topic(AggregateTypeProduct, "created")
	TopicProductUpdated = pkgkafka.Topic(AggregateTypeProduct, "updated")
	TopicProductDeleted = pkgkafka.Topic(AggregateTypeProduct, "deleted")
)

// Publisher delivers an event to a topic. *pkgkafka.Producer implements it.
type Publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes user and product domain events. A Producer built
// with a nil Publisher drops every event, which is how the server runs when
// Kafka is disabled.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(publisher Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// NopProducer returns a producer that publishes nothing.
func NopProducer() *Producer {
	return &Producer{logger: slog.Default()}
}

// UserData is the payload of user events. Credentials are never included.
type UserData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ProductData is the payload of product events.
type ProductData struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	UserID string  `json:"user_id"`
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserRegistered, u.ID, AggregateTypeUser, userData(u))
}

// PublishUserUpdated publishes a user.updated event.
func (p *Producer) PublishUserUpdated(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, TopicUserUpdated, u.ID, AggregateTypeUser, userData(u))
}

// PublishProductCreated publishes a product.created event.
func (p *Producer) PublishProductCreated(ctx context.Context, pr *domain.Product) error {
	return p.publishProduct(ctx, TopicProductCreated, pr)
}

// PublishProductUpdated publishes a product.updated event.
func (p *Producer) PublishProductUpdated(ctx context.Context, pr *domain.Product) error {
	return p.publishProduct(ctx, TopicProductUpdated, pr)
}

// PublishProductDeleted publishes a product.deleted event.
func (p *Producer) PublishProductDeleted(ctx context.Context, pr *domain.Product) error {
	return p.publishProduct(ctx, TopicProductDeleted, pr)
}

func (p *Producer) publishProduct(ctx context.Context, topic string, pr *domain.Product) error {
	data := ProductData{ID: pr.ID, Name: pr.Name, Price: pr.Price, UserID: pr.UserID}
	return p.publish(ctx, topic, strconv.FormatInt(pr.ID, 10), AggregateTypeProduct, data)
}

func userData(u *domain.User) UserData {
	return UserData{ID: u.ID, Name: u.Name, Email: u.Email}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	ev, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	ev.WithRequestID(logger.RequestIDFromContext(ctx))

	if err := p.publisher.Publish(ctx, topic, ev); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
