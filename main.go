package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"docedit/src/cli"
	"docedit/src/config"
	"docedit/src/events"
	"docedit/src/logging"
	"docedit/src/spellcheck"
	"docedit/src/statistics"
	"docedit/src/workspace"
)

var (
	workDir    string
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "docedit",
	Short: "Command-driven text and XML editor",
	Long:  `docedit edits plain text and XML documents through line commands with undo/redo, per-file command logs and session restore.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		app.dispatcher.Run()
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run <script>",
	Short: "Execute commands from a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		app, err := newApp()
		if err != nil {
			return err
		}
		return app.dispatcher.RunScript(f)
	},
}

type app struct {
	dispatcher *cli.Dispatcher
}

func newApp() (*app, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	slog.SetDefault(logger)

	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("无法获取工作目录: %w", err)
		}
		dir = wd
	}
	cfgFile := configPath
	if cfgFile == "" {
		cfgFile = filepath.Join(dir, config.FileName)
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	console := cli.NewConsole(os.Stdin, os.Stdout)
	bus := events.NewBus(logger)
	logs := logging.NewManager(
		logging.WithTimeLayout(cfg.Log.TimeLayout),
		logging.WithLogger(logger),
	)
	tracker := statistics.NewTracker(nil)
	bus.Subscribe(logs)
	bus.Subscribe(tracker)

	stateFile := cfg.StateFile
	if !filepath.IsAbs(stateFile) {
		stateFile = filepath.Join(dir, stateFile)
	}
	checker := spellcheck.NewFuzzyChecker(cfg.SpellCheck.ExtraWords, cfg.SpellCheck.MaxSuggestions)
	ws := workspace.NewWorkspace(dir, cfg, bus,
		workspace.WithStateKeeper(workspace.NewStateKeeper(stateFile)),
		workspace.WithLogSwitch(logs),
		workspace.WithDurations(tracker),
		workspace.WithDecider(console),
		workspace.WithSpellService(spellcheck.NewService(checker)),
		workspace.WithLogger(logger),
	)
	if err := ws.Restore(); err != nil {
		logger.Warn("restore workspace failed", "err", err)
	}
	return &app{dispatcher: cli.NewDispatcher(ws, console, logs, tracker)}, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", "", "workspace directory (default: current directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: <dir>/"+config.FileName+")")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
