package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/showbase-dev/showbase/backend/internal/config"
	"github.com/showbase-dev/showbase/backend/internal/domain"
	"github.com/showbase-dev/showbase/backend/internal/mailer"
	"github.com/wneessen/go-mail"
)

func main() {
	/**********************************************
	 * logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * config
	 **********************************************/
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Error("failed to read .env", "error", err)
		return
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return
	}

	builder, err := mailer.NewBuilder(cfg.Email.SMTP.Username, cfg.Email.TemplateDir)
	if err != nil {
		logger.Error("failed to load mail templates", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * smtp client
	 **********************************************/
	client, err := mail.NewClient(cfg.Email.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.Email.SMTP.Port),
		mail.WithUsername(cfg.Email.SMTP.Username),
		mail.WithPassword(cfg.Email.SMTP.Password),
	)
	if err != nil {
		logger.Error("failed to create the mail client", slog.String("error", err.Error()))
		return
	}
	defer client.Close()

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Email.SMTP.DialTimeout)*time.Second)
	defer cancel()
	if err := client.DialWithContext(dialCtx); err != nil {
		logger.Error("failed to connect to the mail server", slog.String("error", err.Error()))
		return
	}

	/**********************************************
	 * rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("failed to open a channel", slog.String("error", err.Error()))
		return
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.Queue,
		true,  // durable
		false, // auto delete
		false, // exclusive
		false, // no wait
		nil,
	)
	if err != nil {
		logger.Error("failed to declare the mail queue", slog.String("error", err.Error()))
		return
	}

	msgs, err := ch.Consume(
		q.Name,
		"",    // consumer tag chosen by the broker
		false, // manual ack
		false, // exclusive
		false, // no local, unsupported by rabbitmq
		false, // no wait
		nil,
	)
	if err != nil {
		logger.Error("failed to consume the mail queue", slog.String("error", err.Error()))
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, stop := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("delivery channel closed")
					return
				}
				deliver(logger, client, builder, msg)
			}
		}
	}()

	logger.Info("waiting for mail (CTRL+C to quit)")
	<-sigChan

	logger.Info("shutting down mail worker")
	stop()
	wg.Wait()
	logger.Info("mail worker stopped")
}

// deliver sends one queued mail. Malformed messages are dropped, send
// failures go back on the queue.
func deliver(logger *slog.Logger, client *mail.Client, builder *mailer.Builder, msg amqp.Delivery) {
	message := domain.MailMessage{}
	if err := json.Unmarshal(msg.Body, &message); err != nil {
		logger.Error("failed to decode mail message", slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	m, err := builder.Build(&message)
	if err != nil {
		logger.Error("failed to build mail", slog.String("type", message.Type), slog.String("error", err.Error()))
		_ = msg.Nack(false, false)
		return
	}

	if err := client.DialAndSend(m); err != nil {
		logger.Error("failed to send mail", slog.String("to", message.To), slog.String("error", err.Error()))
		_ = msg.Nack(false, true)
		return
	}

	logger.Info("mail sent", slog.String("type", message.Type), slog.String("to", message.To))
	_ = msg.Ack(false)
}
