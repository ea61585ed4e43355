package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
)

// envPassword lets scripts log in without a prompt.
const envPassword = "ECOLE_PASSWORD"

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session",
		Long: `Logs in with an email and a password. The password is read from
--password, then $ECOLE_PASSWORD, then prompted for.`,
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")

	cmd.RunE = a.action(func(ctx context.Context, _ []string) error {
		if password == "" {
			password = os.Getenv(envPassword)
		}
		if password == "" {
			var err error
			password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Mot de passe")
			if err != nil {
				return err
			}
		}

		// Let the restored session settle so it cannot overwrite the login.
		if err := a.services.Sessions.WaitReady(ctx); err != nil {
			return err
		}
		id, err := a.services.Sessions.Login(ctx, strings.TrimSpace(email), password)
		if err != nil {
			return err
		}
		a.expired.Store(false)

		if a.flags.output == outputJSON {
			return a.render(id, nil)
		}
		a.success("Connecté en tant que %s (%s)", displayName(id), id.Role)
		writeln(a.out, pterm.Info.Sprintf("Espace: %s", domainauth.LandingPath(id.Role)))
		return nil
	})
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved session",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			if err := a.services.Sessions.WaitReady(ctx); err != nil {
				return err
			}
			a.services.Sessions.Logout(ctx)
			a.success("Déconnecté")
			return nil
		}),
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: a.action(func(ctx context.Context, _ []string) error {
			id, err := a.require(ctx)
			if err != nil {
				return err
			}

			type whoami struct {
				*domainauth.Identity
				Landing        string     `json:"landing"`
				TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
			}
			out := whoami{Identity: id, Landing: domainauth.LandingPath(id.Role)}
			if info, ok := a.services.API.Token(); ok && !info.ExpiresAt.IsZero() {
				exp := info.ExpiresAt
				out.TokenExpiresAt = &exp
			}

			return a.render(out, func() pterm.TableData {
				data := pterm.TableData{
					{"CHAMP", "VALEUR"},
					{"Nom", displayName(id)},
					{"Email", id.Email},
					{"Rôle", string(id.Role)},
					{"Espace", out.Landing},
				}
				if id.Promotion != nil {
					data = append(data, []string{"Promotion", promotionName(id.Promotion)})
				}
				if out.TokenExpiresAt != nil {
					data = append(data, []string{"Jeton valide jusqu'à", formatTime(out.TokenExpiresAt)})
				}
				return data
			})
		}),
	}
}

func displayName(id *domainauth.Identity) string {
	if id == nil {
		return ""
	}
	return id.FullName()
}

func promotionName(p *domainauth.Promotion) string {
	switch {
	case p == nil:
		return ""
	case p.Name != "":
		return p.Name
	default:
		return strconv.Itoa(p.ID)
	}
}
