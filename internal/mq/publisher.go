package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeReviewRequested MessageType = "review.requested"
	MessageTypeRunFinished     MessageType = "run.finished"
)

// Publisher публикует события workflow в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ReviewRequestedPayload — payload события о приостановке run на проверку.
type ReviewRequestedPayload struct {
	ThreadID string   `json:"thread_id"`
	Files    []string `json:"files"`
}

// RunFinishedPayload — payload события о завершении run.
type RunFinishedPayload struct {
	ThreadID   string `json:"thread_id"`
	Status     string `json:"status"` // COMPLETED или FAILED
	ReportPath string `json:"report_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishReviewRequested публикует событие о документах, ждущих
// ручной проверки. Потребитель: внешний review-интерфейс.
func (p *Publisher) PublishReviewRequested(ctx context.Context, threadID string, files []string) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeReviewRequested,
		Payload:   ReviewRequestedPayload{ThreadID: threadID, Files: files},
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyReviewRequested, msg)
}

// PublishRunFinished публикует событие о завершении run (успешном
// или нет). Потребители: системы нотификаций и учёта.
func (p *Publisher) PublishRunFinished(ctx context.Context, payload RunFinishedPayload) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunFinished,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeRuns, RoutingKeyRunFinished, msg)
}
