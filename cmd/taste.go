package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/amts/internal/formatter"
	"github.com/desertthunder/amts/internal/repositories"
	"github.com/desertthunder/amts/internal/services"
	"github.com/desertthunder/amts/internal/shared"
	"github.com/urfave/cli/v3"
)

// Sync rebuilds one user's taste profile from their recent listening activity.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user")
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	db, release, err := r.connect()
	if err != nil {
		return err
	}
	defer release()

	engine, users, _, err := r.buildEngine(db)
	if err != nil {
		return err
	}

	user, err := users.Get(userID)
	if err != nil {
		return err
	}

	r.logger.Info("syncing profile", "user", userID, "storefront", user.Storefront())

	result, err := engine.Sync(ctx, user.ID(), user.Storefront())
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("Synced %s: %d songs processed\n", result.UserID, result.SongsProcessed)
	if len(result.TopGenres) > 0 {
		r.writePlain("Top genres: %s\n", strings.Join(result.TopGenres, ", "))
	}
	return nil
}

// Similar ranks every other stored profile against the given user.
func (r *Runner) Similar(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user")
	if userID == "" {
		return fmt.Errorf("%w: user id", shared.ErrMissingArgument)
	}

	db, release, err := r.connect()
	if err != nil {
		return err
	}
	defer release()

	candidates, err := r.queryEngine(db).Rank(userID, int(cmd.Int("limit")), int(cmd.Int("min-percent")))
	if err != nil {
		return err
	}

	switch cmd.String("format") {
	case "json":
		return r.writeJSON(candidates, true)
	case "markdown":
		return r.writePlain("%s", formatter.RankingToMarkdown(userID, candidates))
	case "csv":
		filename, err := formatter.WriteRankingCSV(userID, candidates, cmd.String("output"))
		if err != nil {
			return err
		}
		return r.writePlain("Wrote %s\n", filename)
	case "text":
		return r.writePlain("%s", formatter.RankingToText(userID, candidates))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, cmd.String("format"))
	}
}

// Compare scores one pair of users and prints their shared interests.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.StringArg("user")
	otherID := cmd.StringArg("other")
	if userID == "" || otherID == "" {
		return fmt.Errorf("%w: two user ids", shared.ErrMissingArgument)
	}

	db, release, err := r.connect()
	if err != nil {
		return err
	}
	defer release()

	result, err := r.queryEngine(db).Compare(userID, otherID)
	if err != nil {
		return err
	}

	switch cmd.String("format") {
	case "json":
		return r.writeJSON(result, true)
	case "markdown":
		return r.writePlain("%s", formatter.ComparisonToMarkdown(result))
	case "text":
		return r.writePlain("%s", formatter.ComparisonToText(result))
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, cmd.String("format"))
	}
}

// Users lists registered users, optionally filtered by storefront.
func (r *Runner) Users(ctx context.Context, cmd *cli.Command) error {
	db, release, err := r.connect()
	if err != nil {
		return err
	}
	defer release()

	users := repositories.NewUserRepository(db)

	criteria := map[string]any{}
	if storefront := cmd.String("storefront"); storefront != "" {
		criteria["storefront"] = storefront
	}

	records, err := users.List(criteria)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]map[string]any, 0, len(records))
		for _, user := range records {
			out = append(out, map[string]any{
				"id":               user.ID(),
				"appleMusicUserId": user.AppleMusicUserID(),
				"displayName":      user.DisplayName(),
				"storefront":       user.Storefront(),
				"hasToken":         user.HasToken(),
			})
		}
		return r.writeJSON(out, true)
	}

	r.writePlain("%d users\n", len(records))
	for _, user := range records {
		r.writePlain("%s  %s (%s)\n", user.ID(), user.DisplayName(), user.Storefront())
	}
	return nil
}

// Token prints a signed developer token.
func (r *Runner) Token(ctx context.Context, cmd *cli.Command) error {
	tokens, err := r.tokenSource()
	if err != nil {
		return err
	}

	var token string
	if cmd.Bool("refresh") {
		source, ok := tokens.(*services.DeveloperTokenSource)
		if !ok {
			return fmt.Errorf("%w: token source does not support refresh", shared.ErrInvalidFlag)
		}
		token, err = source.Refresh()
	} else {
		token, err = tokens.Token()
	}
	if err != nil {
		return err
	}

	return r.writePlain("%s\n", token)
}
