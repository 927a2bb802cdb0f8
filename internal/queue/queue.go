package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/config"
	"github.com/sysu-ecnc-dev/social-golfer/backend/internal/domain"
)

const (
	MailQueue  = "email_queue"
	SolveQueue = "solve_queue"
)

// Declare 声明一个持久化、非独占的队列，生产者和消费者都需要调用
func Declare(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,  // 队列名称
		true,  // 持久化
		false, // 没有消费者时不自动删除
		false, // 允许多个消费者
		false, // 等待 RabbitMQ 确认
		nil,
	)
}

type Publisher struct {
	ch      *amqp.Channel
	timeout time.Duration
}

// NewPublisher 声明用到的所有队列并返回 Publisher
func NewPublisher(ch *amqp.Channel, cfg *config.Config) (*Publisher, error) {
	for _, name := range []string{MailQueue, SolveQueue} {
		if _, err := Declare(ch, name); err != nil {
			return nil, err
		}
	}

	return &Publisher{
		ch:      ch,
		timeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	}, nil
}

func (p *Publisher) publish(queue string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

func (p *Publisher) PublishMail(msg domain.MailMessage) error {
	return p.publish(MailQueue, msg)
}

func (p *Publisher) PublishSolveJob(job *domain.SolveJob) error {
	return p.publish(SolveQueue, job)
}
