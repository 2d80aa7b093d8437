package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/amts/internal/repositories"
	"github.com/desertthunder/amts/internal/services"
	"github.com/desertthunder/amts/internal/shared"
	"github.com/desertthunder/amts/internal/taste"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	tokens     services.TokenSource
	provider   services.ActivityProvider
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	db         *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	Tokens     services.TokenSource
	Provider   services.ActivityProvider
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer

	// DB overrides the configured database, used by tests.
	DB *sql.DB
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		tokens:     opts.Tokens,
		provider:   opts.Provider,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		db:         opts.DB,
	}
}

// connect opens the configured database, returning a release function.
// An injected database is reused and never closed here.
func (r *Runner) connect() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return db, func() { db.Close() }, nil
}

// tokenSource returns the configured token source, constructing one from the
// Apple Music credentials on first use.
func (r *Runner) tokenSource() (services.TokenSource, error) {
	if r.tokens != nil {
		return r.tokens, nil
	}

	creds := r.config.Credentials.AppleMusic
	tokens, err := services.NewDeveloperTokenSource(creds.TeamID, creds.KeyID, creds.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	r.tokens = tokens
	return tokens, nil
}

// activityProvider returns the Apple Music client, resolving each user's
// Music-User-Token through the user repository.
func (r *Runner) activityProvider(users *repositories.UserRepository) (services.ActivityProvider, error) {
	if r.provider != nil {
		return r.provider, nil
	}

	tokens, err := r.tokenSource()
	if err != nil {
		return nil, err
	}

	userToken := func(ctx context.Context, userID string) (string, error) {
		user, err := users.Get(userID)
		if err != nil {
			return "", err
		}
		if !user.HasToken() {
			return "", fmt.Errorf("%w: user %s has no stored music user token", shared.ErrNotAuthenticated, userID)
		}
		return user.UserToken(), nil
	}

	return services.NewAppleMusicService(tokens, userToken, services.AppleMusicOpts{
		HTTPClient:  r.httpClient,
		RecentLimit: r.config.Engine.RecentLimit,
	}), nil
}

// buildEngine wires the taste engine and repositories over one database
// connection.
func (r *Runner) buildEngine(db *sql.DB) (*taste.Engine, *repositories.UserRepository, *repositories.ProfileRepository, error) {
	users := repositories.NewUserRepository(db)
	profiles := repositories.NewProfileRepository(db)

	provider, err := r.activityProvider(users)
	if err != nil {
		return nil, nil, nil, err
	}

	engine := taste.NewEngine(provider, profiles, r.config.Engine, r.logger)
	return engine, users, profiles, nil
}

// queryEngine wires an engine for read-only ranking and comparison.
// No activity provider involved, so Apple Music credentials are not required.
func (r *Runner) queryEngine(db *sql.DB) *taste.Engine {
	profiles := repositories.NewProfileRepository(db)
	return taste.NewEngine(r.provider, profiles, r.config.Engine, r.logger)
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
