// Copyright 2026 The CompTrack Authors
//
// SPDX-License-Identifier: Apache-2.0

package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SMTP_SERVER", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("EMAIL_USERNAME", "robot@example.com")
	t.Setenv("EMAIL_PASSWORD", "hunter2")
	t.Setenv("FROM_NAME", "CompTrack")
	t.Setenv("REPLY_TO", "coach@example.com")
	t.Setenv("SEND_EMAILS", "true")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com", cfg.Host)
	assert.Equal(t, 2525, cfg.Port)
	assert.Equal(t, "robot@example.com", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "CompTrack", cfg.FromName)
	assert.Equal(t, "coach@example.com", cfg.ReplyTo)
	assert.True(t, cfg.SendEmails)
}

func TestConfigFromEnvDefaults(t *testing.T) {
	t.Setenv("SMTP_SERVER", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("SEND_EMAILS", "")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 587, cfg.Port)
	assert.False(t, cfg.SendEmails)
}

func TestConfigFromEnvBadPort(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")

	_, err := ConfigFromEnv()
	require.Error(t, err)
}

func TestMailerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     MailerConfig
		wantErr bool
	}{
		{
			name: "sending disabled needs nothing",
			cfg:  MailerConfig{},
		},
		{
			name: "sending enabled fully configured",
			cfg: MailerConfig{
				Host:       "smtp.example.com",
				Username:   "robot@example.com",
				Password:   "hunter2",
				SendEmails: true,
			},
		},
		{
			name:    "sending enabled without host",
			cfg:     MailerConfig{Username: "u", Password: "p", SendEmails: true},
			wantErr: true,
		},
		{
			name:    "sending enabled without credentials",
			cfg:     MailerConfig{Host: "smtp.example.com", SendEmails: true},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMailerSendDisabledIsNoop(t *testing.T) {
	mailer, err := NewMailer(&MailerConfig{})
	require.NoError(t, err)

	assert.NoError(t, mailer.Send("dani@example.com", "subject", "<p>body</p>"))
}
