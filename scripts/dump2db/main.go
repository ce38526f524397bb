package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jessevdk/go-flags"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/tgchan/tgchan/internal/storage/postgres"
)

var opts = struct {
	Dump               string `long:"dump" env:"DUMP" default:"database.json" description:"path to JSON export of the legacy bot database"`
	Force              bool   `long:"force" env:"FORCE" description:"import into non-empty database"`
	Postgres           string `long:"postgres" env:"POSTGRES" default:"host=localhost port=5432 user=postgres password=root sslmode=disable" description:"postgres dsn"`
	PostgresMigrations string `long:"postgres.migrations" env:"POSTGRES_MIGRATIONS" default:"scripts/migrations/postgres" description:"postgres migrations directory"`
}{}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "dump2db"
	parser.LongDescription = "Legacy bot database to postgres importer"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	logrus.Info("dump2db started")
	logrus.Infof("%+v", opts)

	f, err := os.Open(opts.Dump)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open dump")
	}
	defer f.Close()

	d, err := readDump(f)
	if err != nil {
		logrus.WithError(err).Fatal("failed to read dump")
	}

	imported, err := d.build(time.Now().UTC())
	if err != nil {
		logrus.WithError(err).Fatal("failed to build database")
	}

	ctx := context.Background()
	s := postgres.New(mustGetDB())

	current, err := s.Load(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load current database")
	}
	if len(current.Posts()) > 0 && !opts.Force {
		logrus.Fatalf("database already has %d posts, use --force to import anyway", len(current.Posts()))
	}

	logrus.Infof("import %d posts, %d queued, %d timings", len(imported.Posts()), imported.AutoDeleteLen(), imported.TimingsLen())

	if err := s.Save(ctx, imported); err != nil {
		logrus.WithError(err).Fatal("failed to save database")
	}

	logrus.Info("done")
}

func mustGetDB() *sql.DB {
	db, err := sql.Open("postgres", opts.Postgres)
	if err != nil {
		logrus.WithError(err).Fatal("failed to create postgres connection")
	}

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
