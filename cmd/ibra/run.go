package main

import (
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Eli-32/Ibra/bot"
	"github.com/Eli-32/Ibra/detector"
	"github.com/Eli-32/Ibra/internal/fsstore"
	"github.com/Eli-32/Ibra/internal/healthcheck"
	"github.com/Eli-32/Ibra/internal/logutil"
	"github.com/Eli-32/Ibra/internal/statepaths"
	"github.com/Eli-32/Ibra/resolve"
	"github.com/Eli-32/Ibra/transport"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the detection agent on the console transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logutil.LoggerFromViper()
			if err != nil {
				return err
			}
			slog.SetDefault(logger)

			cfg := bot.ConfigFromViper()
			// The console sender drives the command state machine, so a
			// run without configured owners gets the console itself.
			consoleSender := "console"
			if len(cfg.Owners) > 0 {
				consoleSender = cfg.Owners[0]
			} else {
				cfg.Owners = []string{consoleSender}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := fsstore.EnsureDir(statepaths.MappingsDir(), 0); err != nil {
				return err
			}
			store, err := resolve.NewStore(resolve.StoreOptions{
				Path:     statepaths.MappingsPath(),
				SeedPath: statepaths.LocalSeedPath(),
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			var fanout *resolve.Fanout
			if viper.GetBool("resolve.remote.enabled") {
				timeout := viper.GetDuration("resolve.remote.timeout")
				services, err := resolve.BuildServices(
					viper.GetStringSlice("resolve.remote.services"),
					&http.Client{Timeout: timeout},
				)
				if err != nil {
					return err
				}
				fanout = resolve.NewFanout(services, resolve.FanoutOptions{
					Logger:   logger,
					Timeout:  timeout,
					Cooldown: viper.GetDuration("resolve.remote.cooldown"),
				})
			}
			resolver := resolve.NewResolver(store, resolve.ResolverOptions{
				Logger:              logger,
				Fanout:              fanout,
				PersistRetryDelay:   viper.GetDuration("resolve.persist_retry_delay"),
				PersistRetryTimeout: viper.GetDuration("resolve.persist_retry_timeout"),
			})

			console := transport.NewConsole(logger, cmd.InOrStdin(), cmd.OutOrStdout(), consoleSender)
			b, err := bot.New(bot.Options{
				Logger:     logger,
				Config:     cfg,
				Transport:  console,
				Extractor:  detector.NewExtractor(delimiterFromViper()),
				Classifier: detector.NewClassifier(),
				Strict:     viper.GetBool("detector.strict"),
				Resolver:   resolver,
				Engine:     detector.NewEngine(behaviorFromViper(), nil),
			})
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if listen := healthcheck.NormalizeListen(viper.GetString("healthcheck.listen")); listen != "" {
				if _, err := healthcheck.StartServer(runCtx, logger, listen, "ibra", func() any { return b.Status() }); err != nil {
					return err
				}
			}

			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error { return b.Run(gctx) })
			g.Go(func() error {
				// Console EOF ends the run.
				defer stop()
				return console.Run(gctx)
			})
			return g.Wait()
		},
	}
}

func delimiterFromViper() rune {
	s := viper.GetString("detector.delimiter")
	for _, r := range s {
		return r
	}
	return '*'
}

func behaviorFromViper() detector.BehaviorConfig {
	return detector.BehaviorConfig{
		MistakeProbability: viper.GetFloat64("behavior.mistake_probability"),
		TypoProbability:    viper.GetFloat64("behavior.typo_probability"),
		BaseDelay:          viper.GetDuration("behavior.base_delay"),
		PerTokenDelay:      viper.GetDuration("behavior.per_token_delay"),
		DelayJitter:        viper.GetDuration("behavior.delay_jitter"),
		PartialKeepRatio:   viper.GetFloat64("behavior.partial_keep_ratio"),
	}
}
