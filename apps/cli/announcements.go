package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/shulehq/shule/core/announcement"
	"github.com/shulehq/shule/platform"
	"github.com/shulehq/shule/storage/snapshot"
	"github.com/shulehq/shule/sync"
)

func (cli *commandLine) announcementsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "announcements",
		Short: "Read and publish announcements",
	}
	cmd.AddCommand(cli.announcementsWatchCmd(), cli.announcementsPostCmd())
	return cmd
}

// watch keeps the announcement feed bound to a live cache entry: the first
// snapshot renders from disk if a warm-start file exists, then realtime
// events update the view until interrupted.
func (cli *commandLine) announcementsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the announcement feed live",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			store := sync.NewStore(cli.log)
			defer store.Close()

			var snapDB *snapshot.DB
			if p := cli.conf.Snapshot.Path; p != "" {
				db, err := snapshot.Open(p)
				if err != nil {
					return err
				}
				snapDB = db
				defer snapDB.Close()

				if rows, err := snapDB.Load(ctx); err == nil {
					store.Restore(rows, platform.DecodeRecords)
				}
			}

			rt := sync.NewReconciler(store, platform.NewRealtime(cli.conf, cli.creds(), cli.log), cli.log, &sync.ReconcilerOptions{
				InitialBackoff: cli.conf.Realtime.InitialBackoff,
				MaxBackoff:     cli.conf.Realtime.MaxBackoff,
			})
			defer rt.Close()

			b := sync.Bind(store, cli.client.Announcements().ListQuery(), &sync.BindOptions{Realtime: rt})
			defer b.Close()

			render(b.Snapshot())
			for {
				select {
				case <-ctx.Done():
					if snapDB != nil {
						return snapDB.Save(context.Background(), store.Export())
					}
					return nil
				case e := <-b.Updates():
					render(sync.Snapshot{Data: e.Data, IsLoading: e.IsLoading(), IsError: e.IsError(), Err: e.Err})
				}
			}
		},
	}
}

func render(snap sync.Snapshot) {
	switch {
	case snap.IsError:
		fmt.Printf("error: %v\n", snap.Err)
	case snap.IsLoading && len(snap.Data) == 0:
		fmt.Println("loading...")
	default:
		fmt.Print("\033[H\033[2J") // clear
		for _, a := range sync.Records[announcement.Announcement](snap) {
			fmt.Printf("[%s] %s\n  %s\n", a.CreatedAt.Local().Format("Jan 2 15:04"), a.Title, a.Body)
		}
	}
}

func (cli *commandLine) announcementsPostCmd() *cobra.Command {
	var na announcement.NewAnnouncement

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish an announcement",
		RunE: func(cmd *cobra.Command, args []string) error {
			var authorID string
			if tok, err := loadSessionToken(); err == nil && tok != "" {
				if sess, err := platform.SessionFromToken(tok); err == nil {
					authorID = sess.UserID
				}
			}
			a, err := cli.client.Announcements().Create(cmd.Context(), na, authorID)
			if err != nil {
				return err
			}
			fmt.Printf("Published %q (%s)\n", a.Title, a.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&na.Title, "title", "", "headline")
	cmd.Flags().StringVar(&na.Body, "body", "", "announcement text")
	cmd.Flags().StringVar(&na.Audience, "audience", announcement.AudienceAll, "all|teachers|students")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("body")
	return cmd
}
