package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/gst-reconcile-client/internal/core/domain"
	"github.com/kirillkom/gst-reconcile-client/internal/infrastructure/resilience"
)

const headerTenantID = "Tenant-Id"

// Publisher streams client-side session events to NATS, one message per
// upload or report action.
type Publisher struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*Publisher, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Publisher, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if strings.TrimSpace(subject) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "nats publisher", fmt.Errorf("subject is empty"))
	}

	conn, err := nats.Connect(
		url,
		nats.Name("gst-reconcile-client"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.FlushTimeout(2 * time.Second); err != nil {
		p.logger.Warn("nats_flush_on_close_failed", "error", err)
	}
	p.conn.Close()
}

func (p *Publisher) PublishSessionEvent(ctx context.Context, event domain.SessionEvent) error {
	msg, err := encodeEvent(p.subject, event)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := p.conn.PublishMsg(msg); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if p.executor != nil {
		err = p.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapUnavailableIfNeeded(err)
	}
	return nil
}

// SubscribeSessionEvents delivers events until ctx is done, then drains the
// subscription.
func (p *Publisher) SubscribeSessionEvents(ctx context.Context, handler func(context.Context, domain.SessionEvent) error) error {
	sub, err := p.conn.Subscribe(p.subject+".>", func(msg *nats.Msg) {
		if ctx.Err() != nil {
			return
		}
		event, err := decodeEvent(msg.Data)
		if err != nil {
			p.logger.Warn("session_event_decode_failed", "subject", msg.Subject, "error", err)
			return
		}
		if err := handler(ctx, event); err != nil {
			p.logger.Error("session_event_handler_failed", "event_id", event.ID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := p.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	return nil
}

// eventSubject appends the action so consumers can filter, e.g.
// "gst.session.upload".
func eventSubject(base string, action domain.SessionAction) string {
	suffix := strings.ToLower(strings.TrimSpace(string(action)))
	if suffix == "" {
		suffix = "unknown"
	}
	return base + "." + suffix
}

func encodeEvent(base string, event domain.SessionEvent) (*nats.Msg, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal session event: %w", err)
	}
	msg := nats.NewMsg(eventSubject(base, event.Action))
	msg.Data = payload
	msg.Header.Set(headerTenantID, event.TenantID)
	msg.Header.Set(nats.MsgIdHdr, event.ID)
	return msg, nil
}

func decodeEvent(data []byte) (domain.SessionEvent, error) {
	var event domain.SessionEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.SessionEvent{}, fmt.Errorf("unmarshal session event: %w", err)
	}
	return event, nil
}
