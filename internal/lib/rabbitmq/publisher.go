package rabbitmq

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// Routing keys уведомлений.
const (
	RoutingKeyPaymentApproved = "payment.approved"
	RoutingKeyPaymentRejected = "payment.rejected"
	RoutingKeySessionEvicted  = "session.evicted"
)

// QueueConfig описывает очередь и ключ её привязки к exchange.
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// GetNotificationQueues возвращает очереди уведомлений сервиса.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: "notifications.payment.approved", RoutingKey: RoutingKeyPaymentApproved},
		{QueueName: "notifications.payment.rejected", RoutingKey: RoutingKeyPaymentRejected},
		{QueueName: "notifications.session.evicted", RoutingKey: RoutingKeySessionEvicted},
	}
}

// Publisher публикует сообщения в канал RabbitMQ.
type Publisher struct {
	ch *amqp.Channel
}

// NewPublisher создает Publisher поверх открытого канала.
func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

// Publish сериализует сообщение в JSON и публикует его в exchange "notifications".
func (p *Publisher) Publish(routingkey string, message any) error {
	const op = "rabbitmq.Publish"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = p.ch.Publish(
		"notifications",
		routingkey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
