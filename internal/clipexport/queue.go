package clipexport

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
	"jamesfarrell.me/clipstudio/internal/storage/models"
)

// Producer publishes clip export jobs to a durable queue.
type Producer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewProducer(amqpURL, queue string) (*Producer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}
	return &Producer{conn: conn, ch: ch, queue: queue}, nil
}

// Publish enqueues job as a persistent JSON message.
func (p *Producer) Publish(ctx context.Context, job models.ClipExportJob) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job: %w", err)
	}
	err = p.ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			CorrelationId: job.JobID,
			Body:          body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (p *Producer) Close() {
	if p.ch != nil {
		p.ch.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}

// Consumer receives clip export jobs one at a time.
type Consumer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   logrus.FieldLogger
}

func NewConsumer(amqpURL, queue string, log logrus.FieldLogger) (*Consumer, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("error to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("error to open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error to declare queue: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		conn.Close()
		return nil, fmt.Errorf("error QoS: %w", err)
	}

	return &Consumer{conn: conn, ch: ch, queue: queue, log: log}, nil
}

// Deliveries starts consuming with manual acknowledgement.
func (c *Consumer) Deliveries() (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.queue, "", false, false, false, false, nil)
}

func (c *Consumer) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
	c.log.Info("RabbitMQ closed")
}
