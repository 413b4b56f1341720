package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evcraddock/sharebnb/internal/apperr"
	"github.com/evcraddock/sharebnb/internal/user"
)

func newUserAddCmd() *cobra.Command {
	var in user.NewUser

	cmd := &cobra.Command{
		Use:   "useradd",
		Short: "Create a user",
		Long:  "Register a user directly in the database. Use --admin to create an administrator.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUserAdd(cmd, in)
		},
	}

	cmd.Flags().StringVar(&in.FirstName, "first", "", "first name")
	cmd.Flags().StringVar(&in.LastName, "last", "", "last name")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&in.Password, "password", "", "password (at least 5 characters)")
	cmd.Flags().BoolVar(&in.IsAdmin, "admin", false, "grant admin rights")
	for _, name := range []string{"first", "last", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runUserAdd(cmd *cobra.Command, in user.NewUser) error {
	if problems := in.Validate(); len(problems) > 0 {
		return apperr.Invalid(problems)
	}

	cfg, err := loadServerConfig()
	if err != nil {
		return err
	}

	database, err := openDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeDB(database)

	u, err := user.NewRepository(database, cfg.BcryptCost).Register(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		return printJSON(out, u)
	}

	role := "user"
	if u.IsAdmin {
		role = "admin"
	}
	fmt.Fprintf(out, "✓ Created %s #%d %s %s <%s>\n", role, u.ID, u.FirstName, u.LastName, u.Email)
	return nil
}
