package mail

import (
	"errors"
	"net/smtp"

	"crewdesk/config"
)

// Transport delivers a fully formed message. Verify performs the server
// handshake without sending mail.
type Transport interface {
	Send(from string, to []string, msg []byte) error
	Verify() error
}

type smtpTransport struct {
	addr string
	host string
	auth smtp.Auth
}

// NewSMTPTransport builds a transport for the configured relay. Auth is
// optional; some relays accept unauthenticated local senders.
func NewSMTPTransport(cfg *config.MailConfig) Transport {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &smtpTransport{
		addr: cfg.Host + ":" + cfg.Port,
		host: cfg.Host,
		auth: auth,
	}
}

func (t *smtpTransport) Send(from string, to []string, msg []byte) error {
	return smtp.SendMail(t.addr, t.auth, from, to, msg)
}

func (t *smtpTransport) Verify() error {
	if t.host == "" {
		return errors.New("smtp host not configured")
	}
	c, err := smtp.Dial(t.addr)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.Noop()
}

var errTransportUnavailable = errors.New("mail transport unavailable")

// noopTransport stands in when the handshake failed at startup: every send
// fails fast instead of blocking callers on a dead relay.
type noopTransport struct{}

func (noopTransport) Send(string, []string, []byte) error { return errTransportUnavailable }
func (noopTransport) Verify() error                       { return errTransportUnavailable }
