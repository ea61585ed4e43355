// Command ecolectl is a command line client for the École des Excellents API.
// Each invocation restores the saved session, checks the role required by
// the command and persists the refreshed cookies on exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ecoledesexcellents/ecole-ui/internal/bootstrap"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
)

func main() {
	logger := bootstrap.InitLogger()
	root := newRootCmd(logger)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	a := &app{logger: logger}

	root := &cobra.Command{
		Use:   "ecolectl",
		Short: "École des Excellents command line client",
		Long: `ecolectl talks to the École des Excellents API with the same cookie
session as the web application. Log in once; the session is saved in a cookie
file and refreshed transparently by later commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.flags.apiURL, "api-url", "", "API root URL (overrides API_URL)")
	root.PersistentFlags().StringVar(&a.flags.cookieFile, "cookie-file", "", "Cookie file (overrides SESSION_COOKIE_FILE)")
	root.PersistentFlags().StringVarP(&a.flags.output, "output", "o", outputTable, "Output format: table or json")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "warn", "Log level: debug, info, warn or error")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newCoursCmd(a),
		newMembersCmd(a),
		newPromotionsCmd(a),
		newHorairesCmd(a),
		newStatsCmd(a),
	)
	return root
}

// describeError returns the message shown to the user for err.
func describeError(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return err.Error()
	}
	msg := apperrors.UserMessage(err)
	if appErr.Field != "" {
		msg = appErr.Field + ": " + msg
	}
	return msg
}

func writeln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
