package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shulehq/shule/core/attendance"
	"github.com/shulehq/shule/platform"
	"github.com/shulehq/shule/sync"
)

func (cli *commandLine) attendanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Take and review attendance",
	}
	cmd.AddCommand(cli.attendanceMarkCmd(), cli.attendanceShowCmd())
	return cmd
}

func (cli *commandLine) attendanceMarkCmd() *cobra.Command {
	var (
		classID string
		date    string
		present []string
		absent  []string
		late    []string
	)

	cmd := &cobra.Command{
		Use:   "mark",
		Short: "Mark a class's attendance for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			var marks []attendance.Mark
			for _, id := range present {
				marks = append(marks, attendance.Mark{StudentID: id, Status: attendance.StatusPresent})
			}
			for _, id := range absent {
				marks = append(marks, attendance.Mark{StudentID: id, Status: attendance.StatusAbsent})
			}
			for _, id := range late {
				marks = append(marks, attendance.Mark{StudentID: id, Status: attendance.StatusLate})
			}

			var markedBy string
			if tok, err := loadSessionToken(); err == nil && tok != "" {
				if sess, err := platform.SessionFromToken(tok); err == nil {
					markedBy = sess.UserID
				}
			}

			muts, err := cli.client.Attendance().MarkMutations(classID, date, markedBy, marks)
			if err != nil {
				return err
			}

			store := sync.NewStore(cli.log)
			defer store.Close()
			coord := sync.NewCoordinator(store, cli.log)

			res, err := coord.MutateAll(cmd.Context(), muts)
			fmt.Printf("Marked %d of %d students\n", len(res.Committed), len(marks))
			for _, f := range res.Failed {
				fmt.Printf("  failed %s: %v\n", marks[f.Index].StudentID, f.Err)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().StringVar(&date, "date", time.Now().Format(attendance.DateLayout), "date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&present, "present", nil, "student ids marked present")
	cmd.Flags().StringSliceVar(&absent, "absent", nil, "student ids marked absent")
	cmd.Flags().StringSliceVar(&late, "late", nil, "student ids marked late")
	cmd.MarkFlagRequired("class")
	return cmd
}

func (cli *commandLine) attendanceShowCmd() *cobra.Command {
	var (
		classID string
		date    string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a class's attendance for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := cli.client.Attendance().ByClassDate(cmd.Context(), classID, date)
			if err != nil {
				return err
			}
			for _, r := range recs {
				fmt.Printf("%s  %s\n", r.StudentID, strings.ToUpper(r.Status))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().StringVar(&date, "date", time.Now().Format(attendance.DateLayout), "date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("class")
	return cmd
}
