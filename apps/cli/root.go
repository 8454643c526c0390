package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/shulehq/shule/core"
	"github.com/shulehq/shule/emulator"
	"github.com/shulehq/shule/platform"
	logsvc "github.com/shulehq/shule/services/logger"
)

const localAddr = "127.0.0.1:54321"

// commandLine wires the client stack for every subcommand.
type commandLine struct {
	conf        *core.Config
	log         core.Logger
	std         *log.Logger
	root        *cobra.Command
	client      *platform.Client
	credentials platform.Credentials

	local bool
	emu   emulator.Server
}

func newCommandLine(std *log.Logger) (*commandLine, error) {
	conf := core.LoadConfig(build)

	var logger core.Logger
	if conf.Debug || conf.RollbarToken == "" {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	cli := &commandLine{conf: conf, log: logger, std: std}
	cli.root = &cobra.Command{
		Use:           "shule",
		Short:         "School management from the terminal",
		Version:       build,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.setup(cmd.Context())
		},
	}
	cli.root.PersistentFlags().BoolVar(&cli.local, "local", false, "run against an in-process platform emulator with demo data")

	cli.root.AddCommand(
		cli.loginCmd(),
		cli.studentsCmd(),
		cli.attendanceCmd(),
		cli.announcementsCmd(),
	)
	return cli, nil
}

// setup builds the platform client, spinning up the emulator first when
// --local is set.
func (cli *commandLine) setup(ctx context.Context) error {
	if cli.local {
		if err := cli.startEmulator(ctx); err != nil {
			return err
		}
	}

	creds := platform.StaticCredentials{Key: cli.conf.Platform.AnonKey}
	if tok, err := loadSessionToken(); err == nil && tok != "" {
		creds.Token = tok
	}
	cli.credentials = creds
	cli.client = platform.NewClient(cli.conf, creds, cli.log)
	return nil
}

func (cli *commandLine) creds() platform.Credentials { return cli.credentials }

func (cli *commandLine) startEmulator(ctx context.Context) error {
	cli.emu = emulator.NewServer(&emulator.Options{
		Address:        localAddr,
		DisableReqLogs: true,
		Logger:         cli.log,
	})
	cli.emu.Seed()
	go cli.emu.Start()

	cli.conf.Platform.URL = "http://" + localAddr
	cli.conf.Platform.AnonKey = "emulator-anon"

	// wait for the listener to come up
	for i := 0; i < 50; i++ {
		resp, err := http.Get(cli.conf.Platform.URL + "/")
		if err == nil {
			resp.Body.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(20 * time.Millisecond):
		}
	}
	return errors.New("emulator did not start")
}
