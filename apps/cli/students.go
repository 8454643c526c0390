package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shulehq/shule/core/student"
)

func (cli *commandLine) studentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage students",
	}
	cmd.AddCommand(cli.studentsListCmd(), cli.studentsAddCmd())
	return cmd
}

func (cli *commandLine) studentsListCmd() *cobra.Command {
	var classID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students, optionally one class only",
		RunE: func(cmd *cobra.Command, args []string) error {
			g := cli.client.Students()

			var (
				students []student.Student
				err      error
			)
			if classID != "" {
				students, err = g.ByClass(cmd.Context(), classID)
			} else {
				students, err = g.List(cmd.Context())
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tEMAIL\tCLASS")
			for _, s := range students {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.ID, s.Name, s.Email, s.ClassID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "filter by class id")
	return cmd
}

func (cli *commandLine) studentsAddCmd() *cobra.Command {
	var ns student.NewStudent

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Enroll a student",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cli.client.Students().Create(cmd.Context(), ns)
			if err != nil {
				return err
			}
			fmt.Printf("Enrolled %s (%s)\n", s.Name, s.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&ns.Name, "name", "", "full name")
	cmd.Flags().StringVar(&ns.Email, "email", "", "email address")
	cmd.Flags().StringVar(&ns.ClassID, "class", "", "class id")
	cmd.Flags().StringVar(&ns.GuardianPhone, "guardian-phone", "", "guardian phone number")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("class")
	return cmd
}
