package cli

import (
	"github.com/spf13/cobra"

	"github.com/CoolCat467/idletypecheck/internal/config"
	"github.com/CoolCat467/idletypecheck/internal/logging"
	"github.com/CoolCat467/idletypecheck/internal/session"
)

// app holds what every subcommand shares: the configuration bound to the
// persistent flags and the settings file location.
type app struct {
	cfg        config.Config
	configPath string
	prompter   session.Prompter
}

// NewRootCmd wires CLI flags to configuration and registers the commands.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{cfg: config.Default(), prompter: ttyPrompter{}})
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "idletypecheck",
		Short:         "Run mypy on a file and insert its diagnostics as comments",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logging.Configure(a.cfg.Verbose)
		},
	}

	flags := cmd.PersistentFlags()
	flags.IntVar(&a.cfg.Line, "line", a.cfg.Line, "Cursor line; problems running the checker are reported here")
	flags.BoolVar(&a.cfg.Stdin, "stdin", false, "Read the buffer from stdin and write the edited buffer to stdout")
	flags.BoolVar(&a.cfg.Save, "save", false, "Save an unsaved buffer without asking")
	flags.StringVar(&a.cfg.Checker, "checker", a.cfg.Checker, "Checker command, e.g. \"mypy\" or \"python -m mypy\"")
	flags.StringVar(&a.cfg.ExtraArgs, "extra-args", a.cfg.ExtraArgs, "Extra checker arguments separated by spaces (\"None\" for none)")
	flags.StringVar(&a.cfg.CacheDir, "cache-dir", a.cfg.CacheDir, "Checker cache directory")
	flags.BoolVar(&a.cfg.SearchWrap, "wrap", a.cfg.SearchWrap, "Wrap around when searching for the next comment")
	flags.BoolVar(&a.cfg.Bell, "bell", a.cfg.Bell, "Ring the terminal bell when a command finishes")
	flags.StringSliceVar(&a.cfg.Ignore, "ignore", nil, "Glob of other files left out of \"Another file has errors\" notices (supports **)")
	flags.StringVar(&a.configPath, "config", "", "Settings file (default <user config dir>/idletypecheck/config.toml)")
	flags.BoolVar(&a.cfg.Diff, "diff", false, "Print a unified diff of the edits")
	flags.BoolVar(&a.cfg.DryRun, "dry-run", false, "Do not write the edited buffer")
	flags.BoolVar(&a.cfg.Backup, "backup", false, "Copy the file to <file>.bak before overwriting it")
	flags.StringVar(&a.cfg.ReportJSON, "report-json", "", "Optional JSON report output path")
	flags.StringVar(&a.cfg.ReportCSV, "report-csv", "", "Optional CSV report output path")
	flags.StringVar(&a.cfg.ReportYAML, "report-yaml", "", "Optional YAML report output path")
	flags.BoolVarP(&a.cfg.Verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newCheckCmd(a),
		newRemoveCmd(a),
		newNextCmd(a),
		newWatchCmd(a),
		newConfigCmd(a),
	)
	return cmd
}
