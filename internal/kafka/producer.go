package kafka

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	w       *kafka.Writer
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		defer p.w.Close()
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					return
				}
				p.write(m)
			}
		}
	}()
}

// drain flushes whatever is already buffered, without waiting for more.
func (p *Producer) drain() {
	for {
		select {
		case m, ok := <-p.inbox:
			if !ok {
				return
			}
			p.write(m)
		default:
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	if err := p.w.WriteMessages(context.Background(), m); err != nil {
		log.Printf("kafka produce %s: %v", p.w.Topic, err)
	}
}

func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	p.inbox <- kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
}

// Close stops accepting messages; the loop flushes the remainder and exits.
func (p *Producer) Close() { close(p.inbox) }

// WaitClosed blocks until the flush loop has finished.
func (p *Producer) WaitClosed() { <-p.closeCh }
