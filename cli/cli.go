package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rbinspect/rbinspect/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const AppName = "rbinspect"

type App struct {
	logger zerolog.Logger
	cli    *cli.App
	args   []string
	stdout io.Writer
	stderr io.Writer
}

func New() *App {
	return newApp(os.Stdout, os.Stderr)
}

func newApp(stdout, stderr io.Writer) *App {

	// Set default log level to info
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger :=
		log.Output(zerolog.ConsoleWriter{
			Out:        stderr,
			TimeFormat: time.RFC3339Nano,
		})

	app := &App{
		logger: logger,
		stdout: stdout,
		stderr: stderr,
	}
	app.cli = &cli.App{
		Name:      AppName,
		Usage:     "Recover deleted file metadata from Windows recycle bin indexes",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose (debug) logging",
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "YAML file with default output options",
			},
		},
		Before: func(ctx *cli.Context) error {
			if ctx.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			app.logger.Debug().Str("command", shellescape.QuoteCommand(app.args)).Msg("Invoked")
			return nil
		},
		OnUsageError: usageError,
		// Exit codes are decided by the caller of Run.
		ExitErrHandler: func(*cli.Context, error) {},
	}

	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:      "info2",
		Usage:     "Parse an INFO2 index file (Windows 95 to 2003)",
		ArgsUsage: "FILE",
		Action:    app.info2,
		Flags: append(outputFlags(),
			&cli.StringFlag{
				Name:    "legacy-filename",
				Aliases: []string{"l"},
				Usage:   "Show the legacy 8.3 path, decoded with the given code page (e.g. CP1252, 932)",
			},
		),
		OnUsageError: usageError,
		Description: `Parse an INFO2 file taken from a RECYCLED or RECYCLER folder.

Examples:
  rbinspect info2 INFO2
  rbinspect info2 -l CP932 -f xml INFO2
  rbinspect info2 -o result.txt -t , INFO2`,
	})
	app.cli.Commands = append(app.cli.Commands, &cli.Command{
		Name:         "dir",
		Usage:        "Parse $I index files (Windows Vista and later)",
		ArgsUsage:    "PATH",
		Action:       app.dir,
		Flags:        outputFlags(),
		OnUsageError: usageError,
		Description: `Parse a $Recycle.Bin\<SID> folder, or a single $I file.

Examples:
  rbinspect dir 'S-1-5-21-1000'
  rbinspect dir -f json '$IAB12CD.txt'`,
	})
	return app
}

// outputFlags are shared by all commands.
func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to `FILE`, which must not exist",
		},
		&cli.BoolFlag{
			Name:    "localtime",
			Aliases: []string{"z"},
			Usage:   "Show deletion time in local time zone instead of UTC",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Output format, one of %v", config.Formats),
			Value:   string(config.FormatText),
		},
		&cli.StringFlag{
			Name:    "delimiter",
			Aliases: []string{"t"},
			Usage:   "Column delimiter of text output; \\t, \\n and \\\\ are interpreted",
		},
		&cli.BoolFlag{
			Name:    "no-heading",
			Aliases: []string{"n"},
			Usage:   "Omit the header and column names of text output",
		},
		&cli.BoolFlag{
			Name:  "human-size",
			Usage: "Show sizes in human readable units",
		},
	}
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return withCode(ExitArgument, err)
}

// Run executes the command line and logs a failure. Use ExitCode to turn
// the returned error into a process exit status.
func (a *App) Run(args []string) error {
	a.args = args
	err := a.cli.Run(args)
	switch ExitCode(err) {
	case ExitOK:
	case ExitDubious:
		a.logger.Warn().Err(err).Msg("Output is incomplete")
	default:
		a.logger.Error().Err(err).Msg("Failed")
	}
	return err
}

// SetVersion sets the version information for the CLI application
func (a *App) SetVersion(version, commit, date string) {
	a.cli.Version = version
	if len(commit) >= 8 && commit != "none" {
		a.cli.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit[:8], date)
	}
}
