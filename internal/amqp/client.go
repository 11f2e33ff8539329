// Package amqp publishes anomaly digests to RabbitMQ. The publisher is
// optional: callers hold a possibly-nil *Client and a nil receiver is a
// silent no-op, so the dashboard works without a broker.
package amqp

import (
	"context"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"korexdash/internal/log"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
	logger       *log.Logger
}

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key matches the queue name on a direct exchange.
	err = c.channel.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishAnomalyDigest publishes a digest. Safe to call on a nil client.
func (c *Client) PublishAnomalyDigest(ctx context.Context, digest *AnomalyDigest) error {
	if c == nil {
		return nil
	}

	body, err := digest.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal digest: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish digest: %w", err)
	}

	c.logger.InfoContext(ctx, "published anomaly digest",
		log.FieldUser, digest.User,
		log.FieldDate, digest.Date,
		log.FieldAnomalies, digest.Anomalies)

	return nil
}

// ConsumeAnomalyDigests delivers digests to handler until ctx is cancelled.
// Messages are acked on success and requeued once on handler failure.
func (c *Client) ConsumeAnomalyDigests(ctx context.Context, handler func(*AnomalyDigest) error) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			digest, err := AnomalyDigestFromJSON(d.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "unparseable digest message", log.FieldError, err)
				d.Nack(false, false)
				continue
			}
			if err := handler(digest); err != nil {
				c.logger.ErrorContext(ctx, "digest handler failed",
					log.FieldUser, digest.User, log.FieldError, err)
				d.Nack(false, !d.Redelivered)
				continue
			}
			d.Ack(false)
		}
	}
}

// Close releases the channel and connection. Safe on a nil client.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
