package rabbitmq

import (
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ConsumerConfig holds configuration for setting up a consumer.
type ConsumerConfig struct {
	QueueName    string
	DLQName      string
	RoutingKeys  []string
	ConsumerName string
}

// MessageHandler processes a delivered message.
// Return nil to ack, return error to nack into the DLQ.
type MessageHandler func(delivery amqp.Delivery) error

// SetupConsumer declares the queue and its DLQ, binds the routing keys and
// starts a goroutine that feeds deliveries to handler one at a time.
func SetupConsumer(conn *Connection, cfg ConsumerConfig, handler MessageHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return err
	}

	if err := declareExchange(ch); err != nil {
		return err
	}

	_, err = ch.QueueDeclare(cfg.DLQName, true, false, false, false, nil)
	if err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    "", // default exchange
		"x-dead-letter-routing-key": cfg.DLQName,
	}
	_, err = ch.QueueDeclare(cfg.QueueName, true, false, false, false, args)
	if err != nil {
		return err
	}

	for _, key := range cfg.RoutingKeys {
		if err := ch.QueueBind(cfg.QueueName, key, ExchangeName, false, nil); err != nil {
			return err
		}
	}

	// One purge at a time per consumer.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		cfg.QueueName,
		cfg.ConsumerName,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			log.Printf("[%s] Received message: routing_key=%s correlation_id=%s",
				cfg.ConsumerName, msg.RoutingKey, msg.CorrelationId)

			if err := handler(msg); err != nil {
				log.Printf("[%s] Error processing message: %v, nacking to %s",
					cfg.ConsumerName, err, cfg.DLQName)
				_ = msg.Nack(false, false)
				continue
			}
			_ = msg.Ack(false)
		}
		log.Printf("[%s] Delivery channel closed", cfg.ConsumerName)
	}()

	log.Printf("[%s] Consumer started, listening on queue: %s", cfg.ConsumerName, cfg.QueueName)
	return nil
}
