package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns Exchange = "conveyor.runs"
)

// Queues — имена очередей.
const (
	QueueReviewRequested Queue = "runs.review_requested"
	QueueRunsFinished    Queue = "runs.finished"
)

// Routing keys.
const (
	RoutingKeyReviewRequested RoutingKey = "review.requested"
	RoutingKeyRunFinished     RoutingKey = "run.finished"
)

// SetupTopology объявляет обменники, очереди и привязки.
// Операции идемпотентны: повторный вызов на уже настроенном брокере безопасен.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeRuns), // name
			"direct",             // type
			true,                 // durable
			false,                // auto-deleted
			false,                // internal
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeRuns, err)
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
		}{
			{QueueReviewRequested, RoutingKeyReviewRequested},
			{QueueRunsFinished, RoutingKeyRunFinished},
		}

		for _, b := range bindings {
			_, err := ch.QueueDeclare(
				string(b.queue), // name
				true,            // durable
				false,           // delete when unused
				false,           // exclusive
				false,           // no-wait
				nil,             // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", b.queue, err)
			}

			err = ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(ExchangeRuns), // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, ExchangeRuns, err)
			}
		}

		return nil
	})
}
