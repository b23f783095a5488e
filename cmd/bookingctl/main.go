package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookingdesk/internal/api"
	"bookingdesk/internal/config"
	"bookingdesk/internal/domain"
	"bookingdesk/internal/events"
	"bookingdesk/internal/logging"
	"bookingdesk/internal/metrics"
	"bookingdesk/internal/models"
	"bookingdesk/internal/repository"
	"bookingdesk/internal/service"
	"bookingdesk/internal/slots"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const usage = `usage: bookingctl <command> [flags]

commands:
  login     -email -password               log in and store the session
  register  -name -email -department -password
  logout                                   forget the stored session
  whoami                                   show the stored session
  slots     [-date YYYY-MM-DD]             show the day's slots
  book      [-date] -slot "9:00 AM"        book a slot and show the day
  cancel    [-date]                        cancel your booking on that day
  export    [-date] [-out file.xlsx]       write the day's slots to a spreadsheet
  publish   [-date]                        write the day's slots to the Google spreadsheet
  watch     [-date] [-interval 30s]        reload the day periodically

The config file is read from $BOOKINGDESK_CONFIG (default configs/config.yaml).
`

func main() {
	code, err := run(os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "bookingctl: %v\n", err)
	}
	os.Exit(code)
}

// run executes one command and returns the process exit code. Errors already
// shown to the user through the notifier are not returned again.
func run(args []string, stdout, stderr io.Writer) (int, error) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" || args[0] == "--help" {
		fmt.Fprint(stderr, usage)
		return 2, nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprint(stderr, usage)
		return 2, fmt.Errorf("unknown command %q", args[0])
	}

	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return 1, err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, &logger, stdout, stderr)
	if err != nil {
		return 1, err
	}
	defer a.Close()

	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2, nil
		}
		if a.notifier.Count() > 0 {
			logger.Debug().Err(err).Str("command", args[0]).Msg("command failed")
			return 1, nil
		}
		if msg := service.UserMessage(err); msg != "" && msg != models.MsgUnexpected {
			fmt.Fprintln(stderr, msg)
			return 1, nil
		}
		return 1, err
	}
	return 0, nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("BOOKINGDESK_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "bookingctl").Logger()

	return cfg, logger, closer, nil
}

// app is the wired object graph shared by all commands.
type app struct {
	cfg      *config.Config
	logger   *zerolog.Logger
	store    domain.SessionStore
	bus      *events.EventBus
	notifier *stderrNotifier
	auth     *service.AuthService
	view     *service.SlotViewModel
	stdout   io.Writer
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, stdout, stderr io.Writer) (*app, error) {
	grid, err := slots.NewGrid(cfg.Grid.StartHour, cfg.Grid.EndHour, cfg.Grid.StepMinutes)
	if err != nil {
		return nil, fmt.Errorf("build slot grid: %w", err)
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		bus:      events.NewEventBus(),
		notifier: &stderrNotifier{w: stderr},
		stdout:   stdout,
	}

	store, err := a.openSessionStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.store = store

	client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout(), logging.Component(logger, "api"))
	client.UseRateLimit(cfg.API.RateLimit.RPS, cfg.API.RateLimit.Burst)

	eventLogger := logging.Component(logger, "events")
	a.bus.SubscribeAll(func(e *events.Event) error {
		eventLogger.Debug().Int64("event_id", e.ID).Str("event_type", e.Type).RawJSON("payload", e.Payload).Msg("event")
		return nil
	})

	if cfg.Telegram.Enabled() {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			logger.Warn().Err(err).Msg("telegram init failed, continuing without announcements")
		} else {
			service.NewTelegramService(bot, cfg.Telegram.ChatID, logging.Component(logger, "telegram")).Subscribe(a.bus)
		}
	}

	a.auth = service.NewAuthService(client, store, a.bus, logging.Component(logger, "auth"))
	a.view = service.NewSlotViewModel(client, store, grid, a.bus, a.notifier, logging.Component(logger, "slots"))
	return a, nil
}

func (a *app) openSessionStore(ctx context.Context) (domain.SessionStore, error) {
	cfg := a.cfg.Session
	switch cfg.Backend {
	case models.SessionBackendMemory:
		return repository.NewMemorySessionStore(), nil
	case models.SessionBackendRedis:
		client := repository.NewRedisClient(a.cfg.Redis)
		a.closers = append(a.closers, func() error { return repository.Close(client) })
		redisStore := repository.NewRedisSessionStore(client, cfg.KeyPrefix, time.Duration(cfg.TTLHours)*time.Hour)

		pingErr := repository.Ping(ctx, client)
		if !cfg.Failover {
			if pingErr != nil {
				return nil, pingErr
			}
			return redisStore, nil
		}
		if pingErr != nil {
			a.logger.Warn().Err(pingErr).Msg("redis unavailable, session falls back to local file")
		}

		path := cfg.Path
		if path == "" {
			path = "data/session.db"
		}
		fallback, err := repository.NewSQLiteSessionStore(path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, fallback.Close)
		return repository.NewFailoverSessionStore(redisStore, fallback, logging.Component(a.logger, "session")), nil
	default:
		store, err := repository.NewSQLiteSessionStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn().Err(err).Msg("close")
		}
	}
}

func (a *app) startMetrics(ctx context.Context) {
	if !a.cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, a.cfg.Monitoring.PrometheusPort, a.logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

// stderrNotifier prints user-facing messages, the CLI's alert box.
type stderrNotifier struct {
	w     io.Writer
	count int
}

func (n *stderrNotifier) Notify(message string) {
	n.count++
	fmt.Fprintln(n.w, message)
}

func (n *stderrNotifier) Count() int { return n.count }
