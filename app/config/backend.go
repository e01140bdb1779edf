package config

import (
	"context"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"github.com/robfig/cron/v3"
	"google.golang.org/api/option"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"task-calendar/app/auth"
	"task-calendar/app/store"
)

// InitSQLite opens the SQLite database at cfg.Path.
func InitSQLite(cfg SQLiteConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", cfg.Path, err)
	}
	return db, nil
}

// InitFirebase creates the Firebase app. Without a credentials file the
// application default credentials are used.
func InitFirebase(ctx context.Context, cfg FirebaseConfig) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var fbcfg *firebase.Config
	if cfg.ProjectID != "" {
		fbcfg = &firebase.Config{ProjectID: cfg.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbcfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}
	return app, nil
}

// OpenBackend builds the store selected by cfg.Store.Backend. Polling
// backends are put on cfg.Store.PollSchedule; the returned stop func halts
// polling and closes the backend.
func OpenBackend(ctx context.Context, cfg *Config) (store.Backend, func(context.Context), error) {
	var (
		backend store.Backend
		poller  store.Poller
	)

	switch cfg.Store.Backend {
	case BackendMemory:
		backend = store.NewMemoryBackend()

	case BackendSQLite:
		db, err := InitSQLite(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
		b, err := store.NewSQLBackend(db)
		if err != nil {
			return nil, nil, err
		}
		backend, poller = b, b

	case BackendNeo4j:
		driver, err := InitNeo4j(ctx, cfg.Neo4j)
		if err != nil {
			return nil, nil, err
		}
		b, err := store.NewNeo4jBackend(ctx, driver)
		if err != nil {
			driver.Close(ctx)
			return nil, nil, err
		}
		backend, poller = b, b

	case BackendFirestore:
		app, err := InitFirebase(ctx, cfg.Firebase)
		if err != nil {
			return nil, nil, err
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("error getting Firestore client: %w", err)
		}
		backend = store.NewFirestoreBackend(client)

	default:
		return nil, nil, fmt.Errorf("unknown store.backend %q", cfg.Store.Backend)
	}

	var c *cron.Cron
	if poller != nil {
		var err error
		c, err = store.StartPolling(cfg.Store.PollSchedule, poller)
		if err != nil {
			backend.Close(ctx)
			return nil, nil, err
		}
	}
	log.Printf("store backend %q ready", cfg.Store.Backend)

	stop := func(ctx context.Context) {
		if c != nil {
			<-c.Stop().Done()
		}
		if err := backend.Close(ctx); err != nil {
			log.Printf("closing %s backend: %v", cfg.Store.Backend, err)
		}
	}
	return backend, stop, nil
}

// NewVerifier builds the token verifier selected by cfg.Auth.Mode.
func NewVerifier(ctx context.Context, cfg *Config) (auth.Verifier, error) {
	switch cfg.Auth.Mode {
	case AuthJWT:
		v, err := JWTVerifier(cfg)
		if err != nil {
			return nil, err
		}
		return v, nil
	case AuthFirebase:
		app, err := InitFirebase(ctx, cfg.Firebase)
		if err != nil {
			return nil, err
		}
		client, err := app.Auth(ctx)
		if err != nil {
			return nil, fmt.Errorf("error getting Auth client: %w", err)
		}
		return auth.NewFirebaseVerifier(client), nil
	}
	return nil, fmt.Errorf("unknown auth.mode %q", cfg.Auth.Mode)
}

// JWTVerifier builds the HS256 verifier, which is also what issues tokens.
func JWTVerifier(cfg *Config) (*auth.JWTVerifier, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required in jwt mode")
	}
	return auth.NewJWTVerifier(cfg.Auth.JWTSecret)
}
