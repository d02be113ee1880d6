package delivery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

// Transport sends one email. It does not retry.
type Transport interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPTransport sends plain-text mail through an SMTP relay. STARTTLS is
// used when the relay offers it.
type SMTPTransport struct {
	client *mail.Client
	addr   string
	from   string
	now    func() time.Time
}

// NewSMTPTransport creates a transport for the configured relay.
func NewSMTPTransport(cfg config.SMTPConfig) (*SMTPTransport, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(30 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "delivery: new smtp client")
	}
	return &SMTPTransport{
		client: client,
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		from:   cfg.From,
		now:    time.Now,
	}, nil
}

// Send delivers one message over a fresh connection. Temporary (4xx)
// rejections are returned as *resilience.TransientError.
func (t *SMTPTransport) Send(ctx context.Context, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return eris.New("delivery: recipient address is empty")
	}

	msg, err := newMessage(t.from, to, subject, body, t.now())
	if err != nil {
		return err
	}

	if err := t.client.DialAndSendWithContext(ctx, msg); err != nil {
		var sendErr *mail.SendError
		if errors.As(err, &sendErr) && sendErr.IsTemp() {
			err = resilience.NewTransientError(err, 0)
		}
		return eris.Wrapf(err, "delivery: send to %s via %s", to, t.addr)
	}
	return nil
}

func newMessage(from, to, subject, body string, now time.Time) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, eris.Wrapf(err, "delivery: invalid sender %q", from)
	}
	if err := msg.To(to); err != nil {
		return nil, eris.Wrapf(err, "delivery: invalid recipient %q", to)
	}
	msg.Subject(subject)
	msg.SetDateWithValue(now)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
