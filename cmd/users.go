package main

import (
	"fmt"
	"io"
	"os"
	"syscall"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wardenlabs/realm-tracker/internal/auth"
	"github.com/wardenlabs/realm-tracker/internal/model"
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage API users",
}

var (
	createUserRole     string
	createUserPassword string
)

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an API user",
	Long:  "Creates a user for the HTTP API. Prompts for the password unless --password is given; use the first admin to bootstrap access.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		username := args[0]

		role := model.Role(createUserRole)
		if !role.Valid() {
			return eris.Errorf("role must be %s or %s", model.RoleAdmin, model.RoleViewer)
		}

		password := createUserPassword
		if password == "" {
			fmt.Print("Password: ")
			raw, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				return eris.Wrap(err, "read password")
			}
			password = string(raw)
		}

		authSvc := auth.NewService(cfg.Auth)
		hash, err := authSvc.HashPassword(password)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		user, err := st.CreateUser(ctx, username, hash, role)
		if err != nil {
			return eris.Wrap(err, "create user")
		}

		fmt.Printf("created %s user %s\n", user.Role, user.Username)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API users",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		users, err := st.ListUsers(ctx)
		if err != nil {
			return eris.Wrap(err, "list users")
		}
		if len(users) == 0 {
			fmt.Println("no users; run 'realm-tracker users create' to add one")
			return nil
		}

		formatUsers(os.Stdout, users)
		return nil
	},
}

func formatUsers(out io.Writer, users []model.User) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "USERNAME\tROLE\tCREATED")
	for _, u := range users {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", u.Username, u.Role, u.CreatedAt.Format("2006-01-02"))
	}
	_ = w.Flush()
}

func init() {
	usersCreateCmd.Flags().StringVar(&createUserRole, "role", string(model.RoleViewer), "user role (admin or viewer)")
	usersCreateCmd.Flags().StringVar(&createUserPassword, "password", "", "password (prompted if omitted)")
	usersCmd.AddCommand(usersCreateCmd)
	usersCmd.AddCommand(usersListCmd)
	rootCmd.AddCommand(usersCmd)
}
