// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// MailerConfig holds SMTP delivery settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	FromName string
	ReplyTo  string

	// SendEmails gates actual delivery; when false Send logs and
	// drops the message so a batch can be rehearsed safely.
	SendEmails bool
}

// ConfigFromEnv reads mailer settings from the environment, loading a
// .env file first when one exists.
func ConfigFromEnv() (*MailerConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &MailerConfig{
		Host:       os.Getenv("SMTP_SERVER"),
		Username:   os.Getenv("EMAIL_USERNAME"),
		Password:   os.Getenv("EMAIL_PASSWORD"),
		FromName:   os.Getenv("FROM_NAME"),
		ReplyTo:    os.Getenv("REPLY_TO"),
		SendEmails: os.Getenv("SEND_EMAILS") == "true",
	}

	cfg.Port = 587
	if port := os.Getenv("SMTP_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid SMTP_PORT %q: %w", port, err)
		}

		cfg.Port = p
	}

	return cfg, nil
}

// Validate checks that delivery-critical settings are present. Only
// meaningful when SendEmails is on.
func (c *MailerConfig) Validate() error {
	if !c.SendEmails {
		return nil
	}

	if c.Host == "" {
		return errors.New("SMTP_SERVER is required when sending is enabled")
	}

	if c.Username == "" || c.Password == "" {
		return errors.New("EMAIL_USERNAME and EMAIL_PASSWORD are required when sending is enabled")
	}

	return nil
}

// Mailer delivers rendered reports over SMTP with STARTTLS.
type Mailer struct {
	cfg *MailerConfig
}

// NewMailer creates a mailer from validated config.
func NewMailer(cfg *MailerConfig) (*Mailer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Mailer{cfg: cfg}, nil
}

// Send delivers one HTML email. With sending disabled it logs the
// would-be delivery and succeeds.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	if !m.cfg.SendEmails {
		log.Printf("Email sending disabled - would send %q to %s", subject, to)

		return nil
	}

	from := m.cfg.Username

	displayFrom := from
	if m.cfg.FromName != "" {
		displayFrom = fmt.Sprintf("%s <%s>", m.cfg.FromName, from)
	}

	message := fmt.Sprintf("From: %s\r\n", displayFrom)
	message += fmt.Sprintf("To: %s\r\n", to)

	if m.cfg.ReplyTo != "" {
		message += fmt.Sprintf("Reply-To: %s\r\n", m.cfg.ReplyTo)
	}

	message += fmt.Sprintf("Subject: %s\r\n", subject)
	message += "MIME-Version: 1.0\r\n"
	message += "Content-Type: text/html; charset=UTF-8\r\n"
	message += "\r\n" + htmlBody

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	return sendMailTLS(addr, m.cfg.Host, auth, from, []string{to}, []byte(message))
}

// sendMailTLS connects in the clear, upgrades with STARTTLS, then
// authenticates and submits the message.
func sendMailTLS(addr, host string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if err := client.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
		return fmt.Errorf("starting TLS: %w", err)
	}

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}

	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("setting recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening data writer: %w", err)
	}

	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("closing data writer: %w", err)
	}

	return client.Quit()
}
