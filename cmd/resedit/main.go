package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/acronis/go-stacktrace"
	slogex "github.com/acronis/go-stacktrace/slogex"
	"github.com/dusted-go/logging/prettylog"
	"github.com/mattn/go-isatty"
	slogformatter "github.com/samber/slog-formatter"
	"github.com/spf13/cobra"

	"github.com/acronis/go-resedit/internal/app/command"
	"github.com/acronis/go-resedit/internal/app/commands/addcmd"
	"github.com/acronis/go-resedit/internal/app/commands/aggregatecmd"
	"github.com/acronis/go-resedit/internal/app/commands/checkcmd"
	"github.com/acronis/go-resedit/internal/app/commands/deletecmd"
	"github.com/acronis/go-resedit/internal/app/commands/editcmd"
	"github.com/acronis/go-resedit/internal/app/commands/fmtcmd"
	"github.com/acronis/go-resedit/internal/app/commands/getcmd"
	"github.com/acronis/go-resedit/internal/app/commands/initcmd"
	"github.com/acronis/go-resedit/internal/app/commands/listcmd"
	"github.com/acronis/go-resedit/internal/app/commands/renamecmd"
	"github.com/acronis/go-resedit/internal/app/commands/searchcmd"
	"github.com/acronis/go-resedit/internal/app/commands/setcmd"
)

func initLogging(verbose bool) {
	logLvl := func() slog.Level {
		if verbose {
			return slog.LevelDebug
		}
		return slog.LevelInfo
	}()
	w := os.Stderr

	logger := slog.New(
		slogformatter.NewFormatterHandler(
			slogformatter.FormatByType(func(s []string) slog.Value {
				return slog.StringValue(strings.Join(s, ","))
			}),
		)(
			prettylog.New(&slog.HandlerOptions{Level: logLvl},
				prettylog.WithDestinationWriter(w),
				func() prettylog.Option {
					if isatty.IsTerminal(w.Fd()) {
						return prettylog.WithColor()
					}
					return func(_ *prettylog.Handler) {}
				}(),
			),
		),
	)
	slog.SetDefault(logger)
}

const (
	verboseFlag = "verbose"
)

func main() {
	os.Exit(mainFn())
}

func mainFn() int {
	var ensureDuplicates bool
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := func() *cobra.Command {
		cmd := &cobra.Command{
			Use:           "resedit",
			Short:         "resedit edits .resx, JSON and YAML resource files side by side",
			SilenceUsage:  true,
			SilenceErrors: true,
			PersistentPreRun: func(cmd *cobra.Command, _ []string) {
				verbose, err := cmd.Flags().GetBool(verboseFlag)
				if err != nil {
					fmt.Printf("Failed to get verbosity flag: %v\n", err)
					os.Exit(1)
				}

				initLogging(verbose)
			},
			CompletionOptions: cobra.CompletionOptions{
				DisableDefaultCmd: true,
			},
		}

		command.AddWorkDirFlag(cmd)
		command.AddFilesFlag(cmd)

		cmd.PersistentFlags().BoolP(verboseFlag, "v", false, "verbose output")
		cmd.PersistentFlags().BoolVarP(&ensureDuplicates, "ensure-duplicates", "d", false, "ensure that there are no duplicates in tracebacks")

		cmd.AddCommand(
			initcmd.New(ctx),
			listcmd.New(ctx),
			getcmd.New(ctx),
			addcmd.New(ctx),
			setcmd.New(ctx),
			deletecmd.New(ctx),
			renamecmd.New(ctx),
			searchcmd.New(ctx),
			checkcmd.New(ctx),
			fmtcmd.New(ctx),
			editcmd.New(ctx),
			aggregatecmd.New(ctx),
		)
		return cmd
	}()

	if err := rootCmd.Execute(); err != nil {
		var cmdErr *command.Error
		if errors.As(err, &cmdErr) && cmdErr.Inner != nil {
			stOpts := func() []stacktrace.TracesOpt {
				if ensureDuplicates {
					return []stacktrace.TracesOpt{stacktrace.WithEnsureDuplicates()}
				}
				return []stacktrace.TracesOpt{}
			}()

			slog.Error("Command failed", slogex.ErrToSlogAttr(cmdErr.Inner, stOpts...))
		} else {
			slog.Error("Invalid usage", slog.String("error", err.Error()))
			_ = rootCmd.Usage()
		}
		return 1
	}

	return 0
}
