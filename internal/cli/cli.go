package cli

import (
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/vk/launchgrid/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// options are the raw flag values before validation.
type options struct {
	pipeline     string
	input        string
	timeout      time.Duration
	logFormat    string
	logLevel     string
	statusPort   int
	dashboardURL string
	force        bool
	noColor      bool
	settingsPath string

	// inputValue is the input taken from the settings file, which may be
	// structured. The --input flag always wins over it.
	inputValue any
}

const longHelp = `launchgrid runs a pipeline of tasks declared in HCL.

Tasks run in declared order; each finished task hands its output to the next
one as input. Combos group tasks and report their weighted progress. Flags may
be seeded from a YAML settings file (--config); flags given explicitly win.`

func newCommand(o *options, run func(cmd *cobra.Command, args []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "launchgrid [flags] [PIPELINE_PATH]",
		Short:         "Run a pipeline of tasks declared in HCL",
		Long:          longHelp,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          run,
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.pipeline, "pipeline", "p", "", "Path to the pipeline file or directory.")
	flags.StringVar(&o.input, "input", "", "Pipeline input, replacing the one declared in the pipeline.")
	flags.DurationVar(&o.timeout, "timeout", 0, "Maximum run time. 0 uses the pipeline's timeout.")
	flags.StringVar(&o.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	flags.StringVar(&o.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flags.IntVar(&o.statusPort, "status-port", 0, "Port for the HTTP status server (/health, /status). 0 is disabled.")
	flags.StringVar(&o.dashboardURL, "dashboard-url", "", "socket.io URL that receives live loader events.")
	flags.BoolVarP(&o.force, "force", "f", false, "Restart every task, ignoring cached results.")
	flags.BoolVar(&o.noColor, "no-color", false, "Disable colored console output.")
	flags.StringVarP(&o.settingsPath, "config", "c", "", "Path to a YAML settings file.")
	return cmd
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var (
		o   options
		cfg *app.Config
	)
	cmd := newCommand(&o, func(cmd *cobra.Command, positional []string) error {
		if o.settingsPath != "" {
			s, err := loadSettings(o.settingsPath)
			if err != nil {
				return err
			}
			if err := s.apply(cmd.Flags(), &o); err != nil {
				return err
			}
			slog.Debug("Settings file applied.", "path", o.settingsPath)
		}

		path := o.pipeline
		if path == "" && len(positional) > 0 {
			path = positional[0]
		}
		slog.Debug("Pipeline path determined.", "path", path)
		if path == "" {
			slog.Debug("No pipeline path provided, printing usage and exiting.")
			return cmd.Usage()
		}

		var input any
		if cmd.Flags().Changed("input") {
			input = o.input
		} else {
			input = o.inputValue
		}

		c, err := app.NewConfig(app.Config{
			PipelinePath: path,
			Input:        input,
			Timeout:      o.timeout,
			ForceRestart: o.force,
			LogFormat:    o.logFormat,
			LogLevel:     o.logLevel,
			StatusPort:   o.statusPort,
			DashboardURL: o.dashboardURL,
			NoColor:      o.noColor,
		})
		if err != nil {
			return err
		}
		cfg = c
		return nil
	})
	cmd.SetArgs(args)
	cmd.SetOut(output)
	cmd.SetErr(output)

	if err := cmd.Execute(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if cfg == nil {
		// --help, or no pipeline given.
		return nil, true, nil
	}
	slog.Debug("CLI parameter validation complete.")
	return cfg, false, nil
}
