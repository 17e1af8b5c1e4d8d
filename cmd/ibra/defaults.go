package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Global
	viper.SetDefault("file_state_dir", "~/.ibra")
	viper.SetDefault("mappings.dir_name", "mappings")

	// Bot pipeline
	viper.SetDefault("bot.owners", []string{})
	viper.SetDefault("bot.transport_suffix", "@s.whatsapp.net")
	viper.SetDefault("bot.min_message_interval", 100*time.Millisecond)
	viper.SetDefault("bot.max_message_age", 60*time.Second)
	viper.SetDefault("bot.process_timeout", 5*time.Second)
	viper.SetDefault("bot.queue_timeout", 5*time.Second)
	viper.SetDefault("bot.ledger_capacity", 50)
	viper.SetDefault("bot.max_concurrent", 4)
	viper.SetDefault("bot.send_retries", 1)
	viper.SetDefault("bot.send_retry_backoff", 500*time.Millisecond)
	viper.SetDefault("bot.status_log_interval", 5*time.Minute)

	// Detection
	viper.SetDefault("detector.strict", false)
	viper.SetDefault("detector.delimiter", "*")

	// Behavior shaping
	viper.SetDefault("behavior.mistake_probability", 0.10)
	viper.SetDefault("behavior.typo_probability", 0.30)
	viper.SetDefault("behavior.base_delay", 150*time.Millisecond)
	viper.SetDefault("behavior.per_token_delay", 100*time.Millisecond)
	viper.SetDefault("behavior.delay_jitter", 50*time.Millisecond)
	viper.SetDefault("behavior.partial_keep_ratio", 0.7)

	// Resolution
	viper.SetDefault("resolve.remote.enabled", true)
	viper.SetDefault("resolve.remote.services", []string{"anilist", "jikan", "kitsu"})
	viper.SetDefault("resolve.remote.timeout", 3*time.Second)
	viper.SetDefault("resolve.remote.cooldown", 30*time.Second)
	viper.SetDefault("resolve.persist_retry_delay", 2*time.Second)
	viper.SetDefault("resolve.persist_retry_timeout", 12*time.Second)

	// Health endpoint (empty listen disables it)
	viper.SetDefault("healthcheck.listen", "")
}
