// Package main provides the CLI entrypoint for nihongo.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nihongo/internal/api"
	"github.com/verte-zerg/nihongo/internal/catalog"
	"github.com/verte-zerg/nihongo/internal/chat"
	"github.com/verte-zerg/nihongo/internal/config"
	"github.com/verte-zerg/nihongo/internal/logging"
	"github.com/verte-zerg/nihongo/internal/progress"
	"github.com/verte-zerg/nihongo/internal/quiz"
	"github.com/verte-zerg/nihongo/internal/store"
)

const (
	sourcePack = "pack"
	sourceAPI  = "api"

	defaultDistractors = 2
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "nihongo",
		Short:         "Learn Japanese in the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runLearnCmd,
	}
	addLearnFlags(rootCmd)

	rootCmd.AddCommand(newLearnCmd())
	rootCmd.AddCommand(newUnitsCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newGoalCmd())
	rootCmd.AddCommand(newAccountCmd())
	rootCmd.AddCommand(newShopCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newPackCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

// settings merges the config file and the environment.
type settings struct {
	file config.FileConfig
	env  config.Env
}

func loadSettings() (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return settings{}, err
	}
	return settings{file: fileCfg, env: envCfg}, nil
}

func (s settings) apiBaseURL() string {
	if s.env.APIBaseURL != "" {
		return s.env.APIBaseURL
	}
	if s.file.API.BaseURL != nil {
		return *s.file.API.BaseURL
	}
	return ""
}

func (s settings) apiTimeout() time.Duration {
	if s.file.API.Timeout != nil {
		return s.file.API.Timeout.Duration
	}
	return api.DefaultTimeout
}

func (s settings) spendPolicy() progress.SpendPolicy {
	if s.file.Shop.AllowDebt != nil && *s.file.Shop.AllowDebt {
		return progress.AllowDebt
	}
	return progress.StrictSpend
}

func (s settings) chatModel() string {
	if s.file.Chat.Model != nil {
		return *s.file.Chat.Model
	}
	return chat.DefaultModel
}

// defaultSource is the API when a backend is configured, else the local pack.
func (s settings) defaultSource() string {
	if s.file.Learn.Source != nil {
		return *s.file.Learn.Source
	}
	if s.apiBaseURL() != "" {
		return sourceAPI
	}
	return sourcePack
}

// plainLogger logs to stderr for commands that own no TUI.
func (s settings) plainLogger(cmd *cobra.Command) (*logrus.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), s.env.LogLevel)
}

// fileLogger logs to the state dir while a TUI owns the terminal.
func (s settings) fileLogger() (*logrus.Logger, func(), error) {
	logger, closeFn, err := logging.NewFile(config.DefaultLogPath(), s.env.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = closeFn() }, nil
}

// openSource returns the lesson source with its reporter and the learner id.
func openSource(s settings, source, packPath string, st *store.Store, log logrus.FieldLogger, errOut io.Writer) (catalog.Source, quiz.Reporter, int, error) {
	switch source {
	case sourceAPI:
		client, err := api.NewClient(s.apiBaseURL(), s.env.AccessToken, s.apiTimeout())
		if err != nil {
			return nil, nil, 0, err
		}
		userID, err := resolveUserID(s)
		if err != nil {
			return nil, nil, 0, err
		}
		log.WithField("user", userID).Debug("using backend source")
		return client, client, userID, nil
	case sourcePack:
		pack, err := openPack(packPath, errOut)
		if err != nil {
			return nil, nil, 0, err
		}
		return &localPack{Pack: pack, store: st}, quiz.NopReporter{}, 0, nil
	default:
		return nil, nil, 0, fmt.Errorf("unknown source %q (use %q or %q)", source, sourcePack, sourceAPI)
	}
}

func resolvePackPath(s settings, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if s.file.Learn.Pack != nil && *s.file.Learn.Pack != "" {
		return *s.file.Learn.Pack
	}
	return config.DefaultPackPath()
}

// openPack loads a lesson pack. The default pack is created on first use.
func openPack(path string, errOut io.Writer) (*catalog.Pack, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == config.DefaultPackPath() {
		if err := catalog.WriteStarterPack(path, false); err != nil {
			return nil, err
		}
		logf(errOut, "Created starter lesson pack at %s\n", path)
	}
	pack, err := catalog.LoadPack(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load lesson pack %s: %w", path, err)
	}
	return pack, nil
}

func openStore() (*store.Store, func(), error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, func() {
		if cerr := st.Close(); cerr != nil {
			logf(os.Stderr, "failed to close db: %v\n", cerr)
		}
	}, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# nihongo configuration
# Uncomment a value to enable it. CLI flags override config values.
# Secrets come from the environment: NIHONGO_ACCESS_TOKEN, GEMINI_API_KEY.

[learn]
# source = "pack"            # "pack" (offline) or "api" (backend)
# pack = %q
# xp-per-challenge = %d      # XP for each correct answer
# distractors = %d           # Extra tiles in sentence building
# report = true              # Report answers to the backend
# level = "N5"               # Only play units of this level

[goal]
# xp = %d                   # Preselected daily goal (%s)

[shop]
# allow-debt = false         # Let purchases push lingots below zero

[api]
# base-url = "http://localhost:8080"   # or NIHONGO_API_BASE_URL
# user-id = 1                # Defaults to the id in the access token
# timeout = "%s"

[chat]
# model = %q
`,
		config.DefaultPackPath(),
		quiz.DefaultXPPerChallenge,
		defaultDistractors,
		progress.DefaultGoalXP,
		goalChoicesText(),
		api.DefaultTimeout,
		chat.DefaultModel,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logf(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		// Best-effort user-facing output.
		_ = err
	}
}
