package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hongminglow/backoffice/internal/session"
)

func newLoginCmd(rt *runtime) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Long: `Sign in with email and password. The password can also be supplied through
BACKOFFICE_PASSWORD.

Examples:
  backoffice login --email admin@acme.test --password demo1234`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("BACKOFFICE_PASSWORD")
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			out := cmd.OutOrStdout()
			if rt.app.Session.Snapshot().Authenticated() {
				fmt.Fprintln(out, "Already signed in. Run 'backoffice logout' first.")
				return nil
			}

			if err := rt.app.Session.Login(cmd.Context(), email, password); err != nil {
				var credErr *session.CredentialError
				switch {
				case errors.As(err, &credErr):
					return fmt.Errorf("login failed: %s", credErr.Error())
				case errors.Is(err, session.ErrConnection):
					return fmt.Errorf("login failed: %s", session.MessageConnection)
				default:
					return fmt.Errorf("login failed: %w", err)
				}
			}
			snap := rt.app.Session.Snapshot()
			fmt.Fprintf(out, "Signed in as %s (%s)\n", snap.User.Name, snap.User.Email)
			fmt.Fprintf(out, "Company: %s\n", snap.User.Company.Name)
			if view, ok := rt.app.Gate.Resolve(""); ok {
				fmt.Fprintf(out, "Default view: %s\n", view)
			} else {
				fmt.Fprintln(out, "No accessible modules on the current plan.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and remove stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt.app.Session.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

type statusView struct {
	Status  string       `json:"status" yaml:"status"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
	User    *userView    `json:"user,omitempty" yaml:"user,omitempty"`
	Company *companyView `json:"company,omitempty" yaml:"company,omitempty"`
	Plan    string       `json:"plan,omitempty" yaml:"plan,omitempty"`
	Modules []string     `json:"modules,omitempty" yaml:"modules,omitempty"`
}

type userView struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Role  string `json:"role" yaml:"role"`
}

type companyView struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

func newStatusCmd(rt *runtime) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap := rt.app.Session.Snapshot()
			view := statusView{Status: string(snap.Status), Error: snap.Err}
			if snap.Authenticated() {
				u := snap.User
				view.User = &userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
				view.Company = &companyView{ID: u.CompanyID, Name: u.Company.Name}
				view.Plan = u.Plan.Name
				view.Modules = rt.app.Gate.AccessibleModules()
			}

			out := cmd.OutOrStdout()
			if output != "text" {
				return render(out, output, view)
			}
			if view.User == nil {
				fmt.Fprintln(out, "Not signed in.")
				fmt.Fprintln(out, "Use 'backoffice login' to authenticate.")
				return nil
			}
			fmt.Fprintln(out, "Signed in")
			fmt.Fprintf(out, "User:    %s <%s> (%s)\n", view.User.Name, view.User.Email, view.User.Role)
			fmt.Fprintf(out, "Company: %s (%s)\n", view.Company.Name, view.Company.ID)
			fmt.Fprintf(out, "Plan:    %s\n", view.Plan)
			fmt.Fprintf(out, "Modules: %s\n", strings.Join(view.Modules, ", "))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, yaml or json")
	return cmd
}
