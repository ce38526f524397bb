package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jessevdk/go-flags"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Decentr-net/logrus/sentry"

	"github.com/tgchan/tgchan/internal/consumer/telegram"
	"github.com/tgchan/tgchan/internal/health"
	"github.com/tgchan/tgchan/internal/media"
	"github.com/tgchan/tgchan/internal/pseudonym"
	"github.com/tgchan/tgchan/internal/server"
	"github.com/tgchan/tgchan/internal/service"
	"github.com/tgchan/tgchan/internal/service/impl"
	"github.com/tgchan/tgchan/internal/session"
	"github.com/tgchan/tgchan/internal/storage/postgres"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Config string `long:"config" env:"CONFIG" description:"ini config file, command line flags override its values"`

	Host        string        `long:"http.host" env:"HTTP_HOST" default:"0.0.0.0" description:"IP to listen on"`
	Port        int           `long:"http.port" env:"HTTP_PORT" default:"8080" description:"port to listen on for insecure connections"`
	HTTPTimeout time.Duration `long:"http.request-timeout" env:"HTTP_REQUEST_TIMEOUT" default:"5s" description:"request processing timeout"`
	AdminToken  string        `long:"http.admin-token" env:"HTTP_ADMIN_TOKEN" description:"bearer token for votes and deletion via API, empty disables them"`

	Postgres                   string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMaxOpenConnections int    `long:"postgres.max_open_connections" env:"POSTGRES_MAX_OPEN_CONNECTIONS" default:"0" description:"postgres maximal open connections count, 0 means unlimited"`
	PostgresMaxIdleConnections int    `long:"postgres.max_idle_connections" env:"POSTGRES_MAX_IDLE_CONNECTIONS" default:"5" description:"postgres maximal idle connections count"`
	PostgresMigrations         string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`

	TelegramToken         string `long:"telegram.token" env:"TELEGRAM_TOKEN" required:"true" description:"bot token"`
	TelegramChannelID     int64  `long:"telegram.channel-id" env:"TELEGRAM_CHANNEL_ID" required:"true" description:"board channel id"`
	TelegramChannel       string `long:"telegram.channel" env:"TELEGRAM_CHANNEL" required:"true" description:"board channel username used in post links"`
	TelegramUpdateTimeout int    `long:"telegram.update-timeout" env:"TELEGRAM_UPDATE_TIMEOUT" default:"60" description:"long polling timeout in seconds"`

	SecretSeed          int64         `long:"board.secret-seed" env:"BOARD_SECRET_SEED" required:"true" description:"secret seed of pseudonyms and delete tokens within ±2^62, changing it invalidates all of them"`
	OwnerIdentity       int64         `long:"board.owner" env:"BOARD_OWNER" required:"true" description:"owner's telegram user id, owner is not rate limited and can delete any post"`
	PostInterval        time.Duration `long:"board.post-interval" env:"BOARD_POST_INTERVAL" default:"60s" description:"minimal interval between posts of one user"`
	AutoDeleteCount     int           `long:"board.autodelete-count" env:"BOARD_AUTODELETE_COUNT" default:"100" description:"number of recent posts kept before the oldest is deleted"`
	AutoDeleteSafeLimit int           `long:"board.autodelete-safe-limit" env:"BOARD_AUTODELETE_SAFE_LIMIT" default:"0" description:"rating which saves post from auto-delete, 0 disables"`
	PinLikeLimit        int           `long:"board.pin-like-limit" env:"BOARD_PIN_LIKE_LIMIT" default:"10" description:"rating to pin post"`
	UnpinDislikeLimit   int           `long:"board.unpin-dislike-limit" env:"BOARD_UNPIN_DISLIKE_LIMIT" default:"5" description:"negated rating to unpin post"`
	DeleteDislikeLimit  int           `long:"board.delete-dislike-limit" env:"BOARD_DELETE_DISLIKE_LIMIT" default:"10" description:"negated rating to delete post"`
	HasherCacheSize     int           `long:"board.hasher-cache-size" env:"BOARD_HASHER_CACHE_SIZE" default:"100000" description:"number of memoized pseudonyms"`

	MediaDir           string        `long:"media.dir" env:"MEDIA_DIR" default:"media" description:"attachments directory"`
	MaxImageSize       int64         `long:"media.max-image-size" env:"MEDIA_MAX_IMAGE_SIZE" default:"5242880" description:"maximal photo size in bytes"`
	MaxVideoSize       int64         `long:"media.max-video-size" env:"MEDIA_MAX_VIDEO_SIZE" default:"20971520" description:"maximal video size in bytes"`
	MediaPurgeInterval time.Duration `long:"media.purge-interval" env:"MEDIA_PURGE_INTERVAL" default:"0s" description:"media viewer replies are deleted after the interval, 0 disables"`

	SessionRedis    string        `long:"session.redis" env:"SESSION_REDIS" description:"redis url for reply mode sessions, in-memory sessions are used if empty"`
	SessionTTL      time.Duration `long:"session.ttl" env:"SESSION_TTL" default:"24h" description:"reply mode lifetime"`
	SessionCapacity int           `long:"session.capacity" env:"SESSION_CAPACITY" default:"10000" description:"maximal number of in-memory sessions"`

	LogLevel  string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
	LogFile   string `long:"log.file" env:"LOG_FILE" description:"file to duplicate logs to"`
	SentryDSN string `long:"sentry.dsn" env:"SENTRY_DSN" description:"sentry dsn"`
}{}

var errTerminated = errors.New("terminated")

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "tgchan"
	parser.LongDescription = "Anonymous telegram board bot"

	if path := configPath(); path != "" {
		if err := flags.NewIniParser(parser).ParseFile(path); err != nil {
			logrus.WithError(err).Fatal("failed to parse config file")
		}
	}

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			logrus.WithError(err).Fatal("failed to open log file")
		}
		defer f.Close()

		logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	if opts.SentryDSN != "" {
		hook, err := sentry.NewHook(sentry.Options{
			Dsn:              opts.SentryDSN,
			AttachStacktrace: true,
			Release:          health.GetVersion(),
			ServerName:       "tgchan",
		}, logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel)

		if err != nil {
			logrus.WithError(err).Fatal("failed to init sentry")
		}

		logrus.AddHook(hook)
	} else {
		logrus.Info("empty sentry dsn")
		logrus.Warn("skip sentry initialization")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db := mustGetDB()
	s := postgres.New(db)

	pingers := []health.Pinger{health.PingFunc("postgres", s.Ping)}

	ss, p := mustGetSessionStore(ctx)
	if p != nil {
		pingers = append(pingers, p)
	}

	m, err := media.NewFS(opts.MediaDir)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create media store")
	}

	api, err := tgbotapi.NewBotAPI(opts.TelegramToken)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create telegram bot")
	}
	api.Debug = lvl == logrus.DebugLevel

	tc := telegram.Config{
		ChannelID:          opts.TelegramChannelID,
		ChannelUsername:    opts.TelegramChannel,
		BotUsername:        api.Self.UserName,
		MediaPurgeInterval: opts.MediaPurgeInterval,
		UpdateTimeout:      opts.TelegramUpdateTimeout,
	}

	clock := clockwork.NewRealClock()

	srv, err := impl.New(service.Config{
		PostInterval:        opts.PostInterval,
		AutoDeleteCount:     opts.AutoDeleteCount,
		PinLikeLimit:        opts.PinLikeLimit,
		UnpinDislikeLimit:   opts.UnpinDislikeLimit,
		DeleteDislikeLimit:  opts.DeleteDislikeLimit,
		AutoDeleteSafeLimit: opts.AutoDeleteSafeLimit,
		OwnerIdentity:       opts.OwnerIdentity,
		MaxImageSize:        opts.MaxImageSize,
		MaxVideoSize:        opts.MaxVideoSize,
	},
		pseudonym.New(opts.SecretSeed, opts.HasherCacheSize),
		s,
		ss,
		m,
		telegram.NewPublisher(api, m, &http.Client{Timeout: time.Minute}, tc),
		clock,
	)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create service")
	}

	c := telegram.New(api, srv, m, clock, tc)
	pingers = append(pingers, c)

	r := chi.NewRouter()
	server.SetupRouter(srv, r, opts.HTTPTimeout, opts.AdminToken)
	r.Get("/health", health.Handler(5*time.Second, pingers...))
	r.Handle("/metrics", promhttp.Handler())

	hs := http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: r,
	}

	gr, gctx := errgroup.WithContext(ctx)
	gr.Go(func() error {
		return c.Run(gctx)
	})
	gr.Go(hs.ListenAndServe)
	gr.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

		select {
		case sig := <-sigs:
			logrus.Infof("terminating by %s signal", sig)
		case <-gctx.Done():
		}

		cancel()

		sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer scancel()
		if err := hs.Shutdown(sctx); err != nil {
			logrus.WithError(err).Error("failed to shutdown http server")
		}

		return errTerminated
	})

	logrus.Info("service started")

	if err := gr.Wait(); err != nil && !errors.Is(err, errTerminated) && !errors.Is(err, http.ErrServerClosed) {
		logrus.WithError(err).Fatal("service unexpectedly closed")
	}
}

// configPath looks up --config before the main parser runs, so required options can come from the file.
func configPath() string {
	var c struct {
		Config string `long:"config" env:"CONFIG"`
	}

	if _, err := flags.NewParser(&c, flags.IgnoreUnknown).Parse(); err != nil {
		return ""
	}

	return c.Config
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}
	db.SetMaxOpenConns(opts.PostgresMaxOpenConnections)
	db.SetMaxIdleConns(opts.PostgresMaxIdleConnections)

	if err := db.PingContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("failed to ping postgres")
	}

	driver, err := migratep.WithInstance(db, &migratep.Config{})
	if err != nil {
		logrus.WithError(err).Fatal("failed to create database migrate driver")
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", opts.PostgresMigrations), "postgres", driver)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create migrator")
	}

	switch v, d, err := migrator.Version(); err {
	case nil:
		logrus.Infof("database version %d with dirty state %t", v, d)
	case migrate.ErrNilVersion:
		logrus.Info("database version: nil")
	default:
		logrus.WithError(err).Fatal("failed to get version")
	}

	switch err := migrator.Up(); err {
	case nil:
		logrus.Info("database was migrated")
	case migrate.ErrNoChange:
		logrus.Info("database is up-to-date")
	default:
		logrus.WithError(err).Fatal("failed to migrate db")
	}

	return db
}

// mustGetSessionStore returns redis store with its pinger if redis is configured and in-memory store otherwise.
func mustGetSessionStore(ctx context.Context) (session.Store, health.Pinger) {
	if opts.SessionRedis == "" {
		logrus.Info("using in-memory reply sessions")
		return session.NewMemoryStore(opts.SessionCapacity, opts.SessionTTL), nil
	}

	s, err := session.NewRedisStore(ctx, opts.SessionRedis, opts.SessionTTL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create redis session store")
	}

	return s, health.PingFunc("redis", s.Ping)
}
