package alerts

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/probeworks/vigil/internal/domain/alert"
)

type EmailConfig struct {
	Addr          string        `mapstructure:"addr"`
	From          string        `mapstructure:"from"`
	To            string        `mapstructure:"to"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	UseTLS        bool          `mapstructure:"use_tls"`
	Timeout       time.Duration `mapstructure:"timeout"`
	SubjectPrefix string        `mapstructure:"subject_prefix"`
}

func (c EmailConfig) Configured() bool { return c.Addr != "" && c.To != "" }

type EmailChannel struct {
	addr       string
	auth       smtp.Auth
	useTLS     bool
	timeout    time.Duration
	from       string
	to         string
	subjPrefix string

	log *zap.Logger
}

var _ alert.Channel = (*EmailChannel)(nil)

func NewEmailChannel(cfg EmailConfig, log *zap.Logger) *EmailChannel {
	var auth smtp.Auth
	if cfg.User != "" || cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, smtpHost(cfg.Addr))
	}
	return &EmailChannel{
		addr:       cfg.Addr,
		auth:       auth,
		useTLS:     cfg.UseTLS,
		timeout:    cfg.Timeout,
		from:       cfg.From,
		to:         cfg.To,
		subjPrefix: cfg.SubjectPrefix,
		log:        log.With(zap.String("component", "alerts.email")),
	}
}

func (m *EmailChannel) Name() string { return "email" }

func (m *EmailChannel) Send(ctx context.Context, subject, body string) error {
	subj := strings.TrimSpace(m.subjPrefix + " " + subject)
	msg := []byte(
		"From: " + m.from + "\r\n" +
			"To: " + m.to + "\r\n" +
			"Subject: " + subj + "\r\n" +
			"Content-Type: text/plain; charset=utf-8\r\n" +
			"\r\n" + body + "\r\n")

	start := time.Now()
	log := m.log.With(
		zap.String("smtp_addr", m.addr),
		zap.Bool("tls", m.useTLS),
		zap.String("to", m.to),
	)

	if m.useTLS {
		if err := m.sendTLS(msg); err != nil {
			log.Error("email send failed", zap.Error(err))
			return err
		}
		log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
		return nil
	}

	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{m.to}, msg); err != nil {
		log.Error("email send failed", zap.Error(err))
		return err
	}
	log.Info("email sent", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (m *EmailChannel) sendTLS(msg []byte) error {
	dialer := net.Dialer{Timeout: m.timeout}
	conn, err := tls.DialWithDialer(&dialer, "tcp", m.addr, &tls.Config{ServerName: smtpHost(m.addr)})
	if err != nil {
		return err
	}
	c, err := smtp.NewClient(conn, smtpHost(m.addr))
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if m.auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(m.auth); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(m.to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func smtpHost(addr string) string {
	if i := strings.Index(addr, ":"); i >= 0 {
		return addr[:i]
	}
	return addr
}
