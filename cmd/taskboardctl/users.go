package main

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/taskboard-backend/internal/services"
)

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(newUsersCreateCmd())
	return cmd
}

func newUsersCreateCmd() *cobra.Command {
	var in services.CreateUserInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user, optionally as superuser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession()
			if err != nil {
				return err
			}
			defer s.Close()
			u, err := s.services.User.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"id":           u.ID().String(),
				"email":        u.Email(),
				"username":     u.Username(),
				"is_superuser": u.IsSuperuser(),
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Email, "email", "", "email address")
	f.StringVar(&in.Username, "username", "", "unique username")
	f.StringVar(&in.FullName, "full-name", "", "display name")
	f.StringVar(&in.Password, "password", "", "initial password (8+ characters)")
	f.BoolVar(&in.Superuser, "superuser", false, "grant superuser")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("full-name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
