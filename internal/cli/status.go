package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check connection and login status",
		Long:  "Tests the connection to the server and reports whether a token is stored.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func runStatus(ctx context.Context, out io.Writer) error {
	fmt.Fprintf(out, "Server:  %s\n", getServerURL())

	printTokenStatus(out, getToken(), time.Now())

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := newAPIClient().Health(ctx); err != nil {
		fmt.Fprintf(out, "Status:  ✗ cannot reach server (%v)\n", err)
		return nil
	}
	fmt.Fprintln(out, "Status:  ✓ connected")
	return nil
}

// printTokenStatus reports whether a token is stored and, when it is a JWT,
// when it expires.
func printTokenStatus(out io.Writer, token string, now time.Time) {
	if token == "" {
		fmt.Fprintln(out, "Token:   not configured")
		return
	}
	exp, ok := tokenExpiry(token)
	switch {
	case !ok:
		fmt.Fprintln(out, "Token:   stored")
	case !exp.After(now):
		fmt.Fprintf(out, "Token:   stored, expired %s (run sharebnb login)\n", exp.Local().Format(time.RFC3339))
	default:
		fmt.Fprintf(out, "Token:   stored, expires %s\n", exp.Local().Format(time.RFC3339))
	}
}
