package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config carries the runtime knobs of the pipeline. Built from viper at
// startup; Validate is the only fail-fast path in the whole bot.
type Config struct {
	// Owners are the privileged sender IDs, compared after normalization.
	Owners []string
	// TransportSuffix is stripped from sender IDs before comparison
	// (e.g. "@s.whatsapp.net").
	TransportSuffix string

	MinMessageInterval time.Duration
	MaxMessageAge      time.Duration
	ProcessTimeout     time.Duration
	QueueTimeout       time.Duration
	LedgerCapacity     int
	MaxConcurrent      int

	SendRetries      int
	SendRetryBackoff time.Duration

	StatusLogInterval time.Duration
}

func ConfigFromViper() Config {
	return Config{
		Owners:             viper.GetStringSlice("bot.owners"),
		TransportSuffix:    viper.GetString("bot.transport_suffix"),
		MinMessageInterval: viper.GetDuration("bot.min_message_interval"),
		MaxMessageAge:      viper.GetDuration("bot.max_message_age"),
		ProcessTimeout:     viper.GetDuration("bot.process_timeout"),
		QueueTimeout:       viper.GetDuration("bot.queue_timeout"),
		LedgerCapacity:     viper.GetInt("bot.ledger_capacity"),
		MaxConcurrent:      viper.GetInt("bot.max_concurrent"),
		SendRetries:        viper.GetInt("bot.send_retries"),
		SendRetryBackoff:   viper.GetDuration("bot.send_retry_backoff"),
		StatusLogInterval:  viper.GetDuration("bot.status_log_interval"),
	}
}

func (c Config) Validate() error {
	if c.MinMessageInterval <= 0 {
		return fmt.Errorf("bot config: min_message_interval must be positive")
	}
	if c.MaxMessageAge <= 0 {
		return fmt.Errorf("bot config: max_message_age must be positive")
	}
	if c.ProcessTimeout <= 0 {
		return fmt.Errorf("bot config: process_timeout must be positive")
	}
	if c.QueueTimeout <= 0 {
		return fmt.Errorf("bot config: queue_timeout must be positive")
	}
	if c.LedgerCapacity < 1 {
		return fmt.Errorf("bot config: ledger_capacity must be at least 1")
	}
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("bot config: max_concurrent must be at least 1")
	}
	if c.SendRetries < 0 {
		return fmt.Errorf("bot config: send_retries must not be negative")
	}
	if c.SendRetryBackoff < 0 {
		return fmt.Errorf("bot config: send_retry_backoff must not be negative")
	}
	if c.StatusLogInterval <= 0 {
		return fmt.Errorf("bot config: status_log_interval must be positive")
	}
	return nil
}

// NormalizeSenderID strips whitespace and the transport suffix so owner
// comparison works regardless of how the transport formats IDs.
func (c Config) NormalizeSenderID(senderID string) string {
	senderID = strings.TrimSpace(senderID)
	if c.TransportSuffix != "" {
		senderID = strings.TrimSuffix(senderID, c.TransportSuffix)
	}
	return senderID
}

func (c Config) IsOwner(senderID string) bool {
	normalized := c.NormalizeSenderID(senderID)
	for _, owner := range c.Owners {
		if c.NormalizeSenderID(owner) == normalized {
			return true
		}
	}
	return false
}
