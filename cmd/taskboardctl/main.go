// Command taskboardctl runs administrative tasks against the taskboard database.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yungbote/taskboard-backend/internal/app"
	"github.com/yungbote/taskboard-backend/internal/data/db"
	"github.com/yungbote/taskboard-backend/internal/platform/envutil"
	"github.com/yungbote/taskboard-backend/internal/platform/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "taskboardctl",
		Short:        "Administrative commands for the taskboard backend",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath != "" {
				return os.Setenv(app.ConfigFileEnv, opts.configPath)
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "yaml or toml config file (overrides "+app.ConfigFileEnv+")")

	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newReportCmd())
	cmd.AddCommand(newUsersCmd())
	return cmd
}

// session is an opened database plus the services wired over it.
type session struct {
	log      *logger.Logger
	db       *db.Service
	services app.Services
}

func openSession() (*session, error) {
	log, err := logger.New(
		envutil.String("LOG_MODE", "development"),
		logger.WithLevel(envutil.String("LOG_LEVEL", "warn")),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	cfg, err := app.LoadConfig(log)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	dbService, err := app.OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}
	return &session{
		log:      log,
		db:       dbService,
		services: app.NewServices(dbService.DB(), log, cfg),
	}, nil
}

func (s *session) Close() {
	if err := s.db.Close(); err != nil {
		s.log.Warn("database close failed", "error", err)
	}
	s.log.Sync()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
