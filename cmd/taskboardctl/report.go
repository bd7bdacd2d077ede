package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print analytics reports as JSON",
	}
	var days int

	projectReport := func(use, short string, run func(ctx context.Context, s *session, id string) (any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <project-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := openSession()
				if err != nil {
					return err
				}
				defer s.Close()
				res, err := run(cmd.Context(), s, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), res)
			},
		}
	}

	health := projectReport("health", "Project health score", func(ctx context.Context, s *session, id string) (any, error) {
		return s.services.Project.Health(ctx, id)
	})
	velocity := projectReport("velocity", "Tasks completed per day over --days", func(ctx context.Context, s *session, id string) (any, error) {
		return s.services.Project.Velocity(ctx, id, days)
	})
	velocity.Flags().IntVar(&days, "days", 7, "window in days")
	team := projectReport("team", "Team workload summary", func(ctx context.Context, s *session, id string) (any, error) {
		return s.services.Project.TeamSummary(ctx, id)
	})
	overview := projectReport("overview", "Every project report at once", func(ctx context.Context, s *session, id string) (any, error) {
		return s.services.Report.ProjectOverview(ctx, id, 7)
	})
	risk := &cobra.Command{
		Use:   "risk <task-id>",
		Short: "Task risk assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			res, err := s.services.Task.Risk(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.AddCommand(health, velocity, team, overview, risk)
	return cmd
}
