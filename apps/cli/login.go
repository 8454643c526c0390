package main

import (
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var readPasswordFunc = term.ReadPassword // mockable

func (cli *commandLine) loginCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print("Enter password:")
			pwd, err := readPasswordFunc(syscall.Stdin)
			fmt.Println()
			if err != nil {
				return err
			}

			sess, err := cli.client.Login(cmd.Context(), email, string(pwd))
			if err != nil {
				return err
			}
			if err := saveSessionToken(sess.AccessToken); err != nil {
				return err
			}
			fmt.Printf("Signed in as %s (%s)\n", sess.Email, sess.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.MarkFlagRequired("email")
	return cmd
}
