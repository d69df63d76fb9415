package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"syscall"
	"time"

	"github.com/jordan-wright/email"

	"ReviewerOutreach/internal/config"
	"ReviewerOutreach/internal/domain"
	"ReviewerOutreach/internal/ports"
)

// Failure classifies why a delivery failed. It only feeds diagnostics.
type Failure string

const (
	FailureAuth         Failure = "auth_rejected"
	FailureDisconnected Failure = "server_disconnected"
	FailureProtocol     Failure = "smtp_error"
	FailureNetwork      Failure = "network_error"
	FailureUnknown      Failure = "unknown"
)

type step string

const (
	stepBuild    step = "build"
	stepDial     step = "dial"
	stepGreeting step = "greeting"
	stepTLS      step = "starttls"
	stepAuth     step = "auth"
	stepEnvelope step = "envelope"
	stepData     step = "data"
	stepQuit     step = "quit"
)

// DeliveryError wraps an SMTP failure with its classification.
type DeliveryError struct {
	Failure Failure
	Step    string
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("smtp %s (%s): %v", e.Step, e.Failure, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// FailureOf returns the classification of err, FailureUnknown when unclassified.
func FailureOf(err error) Failure {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de.Failure
	}
	return FailureUnknown
}

// SMTPMailer delivers plain-text messages through one SMTP session per message.
type SMTPMailer struct {
	cfg       config.SMTPConfig
	timeout   time.Duration
	tlsConfig *tls.Config
}

var _ ports.Mailer = (*SMTPMailer)(nil)

// NewSMTPMailer wires the server settings; a zero timeout means 30s.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SMTPMailer{
		cfg:       cfg,
		timeout:   timeout,
		tlsConfig: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
	}
}

// ErrPlaintextAuth is returned when credentials would cross an unencrypted
// connection to a remote host.
var ErrPlaintextAuth = errors.New("refusing to send credentials without TLS to a non-local host; set use_tls")

// Deliver dials, optionally upgrades with STARTTLS, authenticates and sends msg.
func (m *SMTPMailer) Deliver(ctx context.Context, msg domain.Message) error {
	if m.cfg.HasCredentials() && !m.cfg.AuthAllowed() {
		return &DeliveryError{Failure: FailureAuth, Step: string(stepAuth), Err: ErrPlaintextAuth}
	}

	e := email.NewEmail()
	e.From = msg.From
	e.To = []string{msg.To}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	raw, err := e.Bytes()
	if err != nil {
		return fail(stepBuild, err)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fail(stepDial, err)
	}
	_ = conn.SetDeadline(time.Now().Add(m.timeout))

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fail(stepGreeting, err)
	}
	defer client.Close()

	if m.cfg.UseTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return fail(stepTLS, errors.New("server does not advertise STARTTLS"))
		}
		if err := client.StartTLS(m.tlsConfig); err != nil {
			return fail(stepTLS, err)
		}
	}

	if m.cfg.HasCredentials() {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fail(stepAuth, err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fail(stepEnvelope, err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fail(stepEnvelope, err)
	}

	w, err := client.Data()
	if err != nil {
		return fail(stepData, err)
	}
	if _, err := w.Write(raw); err != nil {
		_ = w.Close()
		return fail(stepData, err)
	}
	if err := w.Close(); err != nil {
		return fail(stepData, err)
	}

	if err := client.Quit(); err != nil {
		return fail(stepQuit, err)
	}
	return nil
}

func fail(s step, err error) error {
	return &DeliveryError{Failure: classify(s, err), Step: string(s), Err: err}
}

func classify(s step, err error) Failure {
	var (
		protoErr *textproto.Error
		dnsErr   *net.DNSError
	)
	switch {
	case errors.As(err, &protoErr):
		if s == stepAuth || protoErr.Code == 530 || protoErr.Code == 534 || protoErr.Code == 535 {
			return FailureAuth
		}
		return FailureProtocol
	case errors.As(err, &dnsErr), s == stepDial:
		return FailureNetwork
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EPIPE):
		return FailureDisconnected
	case s == stepAuth:
		return FailureAuth
	case s == stepTLS:
		return FailureProtocol
	default:
		return FailureUnknown
	}
}
