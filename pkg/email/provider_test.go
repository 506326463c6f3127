package email_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daoboard/notifier/pkg/config"
	"github.com/daoboard/notifier/pkg/email"
)

func TestParseProvider(t *testing.T) {
	t.Parallel()

	p, err := email.ParseProvider(" Backup_SMTP ")
	require.NoError(t, err)
	assert.Equal(t, email.ProviderBackupSMTP, p)

	_, err = email.ParseProvider("sendgrid")
	assert.ErrorIs(t, err, email.ErrUnknownProvider)
}

func TestConfig_Chain(t *testing.T) {
	t.Parallel()

	cfg := email.Config{
		SMTP:      email.SMTPConfig{Host: "smtp.example.com", Port: 587, User: "u", Password: "p"},
		Backup:    email.SMTPConfig{Host: "backup.example.com", Port: 2525},
		Postmark:  email.PostmarkConfig{ServerToken: "token"},
		Fallbacks: []email.Provider{email.ProviderPostmark, email.ProviderSMTP, email.ProviderBackupSMTP, email.ProviderPostmark},
	}

	chain := cfg.Chain()
	require.Len(t, chain, 3)
	assert.Equal(t, email.ProviderSMTP, chain[0].Provider())
	assert.Equal(t, email.ProviderPostmark, chain[1].Provider())
	assert.Equal(t, email.ProviderBackupSMTP, chain[2].Provider())
	assert.Equal(t, "smtp.example.com:587", chain[0].Host())
	assert.Equal(t, "backup.example.com:2525", chain[2].Host())
	assert.True(t, cfg.AnyComplete())
}

func TestSMTPConfig_Complete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  email.SMTPConfig
		want bool
	}{
		{"anonymous relay", email.SMTPConfig{Host: "relay", Port: 25}, true},
		{"full credentials", email.SMTPConfig{Host: "relay", Port: 587, User: "u", Password: "p"}, true},
		{"missing host", email.SMTPConfig{Port: 587}, false},
		{"user without password", email.SMTPConfig{Host: "relay", Port: 587, User: "u"}, false},
		{"password without user", email.SMTPConfig{Host: "relay", Port: 587, Password: "p"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.Complete())
		})
	}
}

func TestConfig_NothingComplete(t *testing.T) {
	t.Parallel()

	cfg := email.Config{Fallbacks: []email.Provider{email.ProviderBackupSMTP, email.ProviderPostmark}}
	assert.False(t, cfg.AnyComplete())

	_, err := cfg.Chain()[0].Build(cfg.Settings())
	assert.ErrorIs(t, err, email.ErrInvalidConfig)
}

func TestConfig_LoadFromEnvironment(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load[email.Config](config.WithEnviron(map[string]string{
		"SMTP_HOST":                "smtp.example.com",
		"SMTP_USER":                "mailer@example.com",
		"SMTP_PASSWORD":            "secret",
		"SMTP_BACKUP_HOST":         "backup.example.com",
		"SMTP_BACKUP_PORT":         "2525",
		"POSTMARK_SERVER_TOKEN":    "pm",
		"EMAIL_FALLBACK_PROVIDERS": "postmark,file",
		"EMAIL_FILE_DIR":           "/tmp/mail",
	}))
	require.NoError(t, err)

	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, 2525, cfg.Backup.Port)
	assert.Equal(t, []email.Provider{email.ProviderPostmark, email.ProviderFile}, cfg.Fallbacks)
	assert.Equal(t, "mailer@example.com", cfg.Settings().From)
	assert.Equal(t, "/tmp/mail", cfg.File.Dir)

	_, err = config.Load[email.Config](config.WithEnviron(map[string]string{
		"EMAIL_FALLBACK_PROVIDERS": "carrier_pigeon",
	}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}
