package lsql

import (
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratesqlite3 "github.com/golang-migrate/migrate/v4/database/sqlite3"
	migratesource "github.com/golang-migrate/migrate/v4/source"
	bindata "github.com/golang-migrate/migrate/v4/source/go_bindata"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// MigrationSet exposes the migration assets for one database engine, in the
// go_bindata source shape (AssetNames lists files, Asset returns contents).
type MigrationSet struct {
	AssetNames func() []string
	Asset      func(name string) ([]byte, error)
}

type MigrationLogger struct {
}

func (m MigrationLogger) Printf(format string, v ...interface{}) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	log.Print(msg)
}

func (m MigrationLogger) Verbose() bool {
	return true
}

type Migration struct {
	DB       *sql.DB
	cfg      *Config
	migrate  *migrate.Migrate
	database database.Driver
	source   migratesource.Driver
	set      MigrationSet
}

func NewMigration(cfg *Config, sets map[string]MigrationSet) (*Migration, error) {
	set, ok := sets[strings.ToLower(cfg.Engine)]
	if !ok {
		return nil, fmt.Errorf("migration set not found for DB engine: %s", strings.ToLower(cfg.Engine))
	}

	resource := bindata.Resource(set.AssetNames(),
		func(name string) ([]byte, error) {
			return set.Asset(name)
		},
	)

	source, err := bindata.WithInstance(resource)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.DriverName(), cfg.FullAddress())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	var driver database.Driver
	switch strings.ToLower(cfg.Engine) {
	case "postgres":
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{DatabaseName: cfg.DatabaseName})
	case "sqlite":
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{DatabaseName: cfg.DatabaseName})
	case "sqlite3":
		driver, err = migratesqlite3.WithInstance(db, &migratesqlite3.Config{DatabaseName: cfg.DatabaseName})
	default:
		return nil, fmt.Errorf("unknown engine %q", cfg.Engine)
	}
	if err != nil {
		return nil, err
	}

	mig, err := migrate.NewWithInstance("go-bindata", source, cfg.DatabaseName, driver)
	if err != nil {
		return nil, err
	}
	mig.Log = MigrationLogger{}

	return &Migration{
		DB:       db,
		cfg:      cfg,
		migrate:  mig,
		source:   source,
		set:      set,
		database: driver,
	}, nil
}

// Run migrates to desiredVersion, or to the latest migration when nil.
// Assumes migrations come in pairs (up and down), one of which may be empty.
func (m *Migration) Run(desiredVersion *uint) error {
	if desiredVersion == nil {
		latestVersion := uint(len(m.set.AssetNames()) / 2)
		desiredVersion = &latestVersion
	}

	version, dirty, err := m.migrate.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return errors.WithStack(err)
	}

	if dirty {
		if version > 1 {
			if err := m.migrate.Force(int(version) - 1); err != nil {
				return errors.WithStack(err)
			}
		} else {
			if err := m.migrate.Drop(); err != nil {
				return errors.WithStack(err)
			}
			m.migrate, err = migrate.NewWithInstance("go-bindata", m.source, m.cfg.DatabaseName, m.database)
			if err != nil {
				return errors.WithStack(err)
			}
		}
	}

	done := make(chan bool)
	errs := make(chan error, 1)

	// Watch for stops
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		signal.Notify(sigint, syscall.SIGTERM)
		select {
		case <-done:
			return
		case <-sigint:
			m.migrate.GracefulStop <- true
		}
	}()

	// Run migration
	go func() {
		if err := m.migrate.Migrate(*desiredVersion); err != nil && err != migrate.ErrNoChange {
			errs <- errors.WithStack(err)
		}
		close(errs)
		close(done)
	}()

	return <-errs
}
