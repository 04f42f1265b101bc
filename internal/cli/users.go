package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sitecraft/internal/models"
	"sitecraft/internal/store"
)

// minPasswordLength applies to accounts created from the command line.
const minPasswordLength = 8

// CreateUserCommand adds an account.
func CreateUserCommand(open opener) *cobra.Command {
	var (
		email    string
		password string
		name     string
		role     string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create a user account",
		Long: `Create a user account.

Examples:
  sitectl create-user --email ana@example.com --password 's3cret-pass' --name Ana
  sitectl create-user --email ops@example.com --password 's3cret-pass' --name Ops --role admin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := validateUser(email, password, role)
			if err != nil {
				return err
			}
			db, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			u, err := store.NewUserStore(db).Create(context.Background(), strings.TrimSpace(email), password, name, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s user %s (%s)\n", u.Role, u.Email, u.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", string(models.RoleMember), "Role: member or admin")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func validateUser(email, password, role string) (models.Role, error) {
	if !strings.Contains(email, "@") {
		return "", fmt.Errorf("invalid email %q", email)
	}
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	switch r := models.Role(role); r {
	case models.RoleMember, models.RoleAdmin:
		return r, nil
	default:
		return "", fmt.Errorf("invalid role %q: use member or admin", role)
	}
}
