package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nihongo/internal/auth"
	"github.com/verte-zerg/nihongo/internal/catalog"
	"github.com/verte-zerg/nihongo/internal/generator"
	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/quiz"
	"github.com/verte-zerg/nihongo/internal/store"
	"github.com/verte-zerg/nihongo/internal/tui"
)

var (
	learnLesson      int
	learnPractice    bool
	learnSource      string
	learnPack        string
	learnXP          int
	learnDistractors int
	learnReport      bool
	learnLevel       string

	unitsSource string
	unitsPack   string
	unitsLevel  string
)

// learnConfig is the resolved set of lesson options.
type learnConfig struct {
	Lesson      int
	Practice    bool
	Source      string
	Pack        string
	XP          int
	Distractors int
	Report      bool
	Level       string
}

func addLearnFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&learnLesson, "lesson", 0, "lesson id to play (default: current lesson)")
	cmd.Flags().BoolVar(&learnPractice, "practice", false, "replay unfinished challenges from earlier lessons")
	cmd.Flags().StringVar(&learnSource, "source", "", "lesson source: pack or api")
	cmd.Flags().StringVar(&learnPack, "pack", "", "path to a TOML lesson pack")
	cmd.Flags().IntVar(&learnXP, "xp", quiz.DefaultXPPerChallenge, "XP per correct answer")
	cmd.Flags().IntVar(&learnDistractors, "distractors", defaultDistractors, "extra tiles in sentence building")
	cmd.Flags().BoolVar(&learnReport, "report", true, "report answers to the backend")
	cmd.Flags().StringVar(&learnLevel, "level", "", "only play units of this level, e.g. N5")
}

func newLearnCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "learn",
		Short: "Play a lesson",
		Args:  cobra.NoArgs,
		RunE:  runLearnCmd,
	}
	addLearnFlags(cmd)
	return cmd
}

func newUnitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "units",
		Short: "List units and lessons",
		Args:  cobra.NoArgs,
		RunE:  runUnitsCmd,
	}
	cmd.Flags().StringVar(&unitsSource, "source", "", "lesson source: pack or api")
	cmd.Flags().StringVar(&unitsPack, "pack", "", "path to a TOML lesson pack")
	cmd.Flags().StringVar(&unitsLevel, "level", "", "only list units of this level, e.g. N5")
	return cmd
}

func resolveLearnConfig(cmd *cobra.Command, s settings) (learnConfig, error) {
	learnSource = firstNonEmpty(learnSource, s.defaultSource())
	applyIntConfig(cmd, "xp", &learnXP, s.file.Learn.XPPerChallenge)
	applyIntConfig(cmd, "distractors", &learnDistractors, s.file.Learn.Distractors)
	applyBoolConfig(cmd, "report", &learnReport, s.file.Learn.Report)
	applyStringConfig(cmd, "level", &learnLevel, s.file.Learn.Level)

	cfg := learnConfig{
		Lesson:      learnLesson,
		Practice:    learnPractice,
		Source:      learnSource,
		Pack:        resolvePackPath(s, learnPack),
		XP:          learnXP,
		Distractors: learnDistractors,
		Report:      learnReport,
		Level:       learnLevel,
	}
	if err := validateLearnConfig(cfg); err != nil {
		return learnConfig{}, err
	}
	return cfg, nil
}

func validateLearnConfig(cfg learnConfig) error {
	if cfg.Source != sourcePack && cfg.Source != sourceAPI {
		return fmt.Errorf("--source must be %q or %q", sourcePack, sourceAPI)
	}
	if cfg.Lesson < 0 {
		return fmt.Errorf("--lesson must be >= 0")
	}
	if cfg.Lesson > 0 && cfg.Practice {
		return fmt.Errorf("--lesson and --practice are mutually exclusive")
	}
	if cfg.XP <= 0 {
		return fmt.Errorf("--xp must be > 0")
	}
	if cfg.Distractors < 0 {
		return fmt.Errorf("--distractors must be >= 0")
	}
	return nil
}

func runLearnCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	cfg, err := resolveLearnConfig(cmd, s)
	if err != nil {
		return err
	}
	if !isTerminal(cmd.OutOrStdout()) {
		return fmt.Errorf("learn needs an interactive terminal")
	}

	logger, closeLog, err := s.fileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	src, reporter, userID, err := openSource(s, cfg.Source, cfg.Pack, st, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if !cfg.Report {
		reporter = quiz.NopReporter{}
	}

	units, err := src.Units(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load units: %w", err)
	}
	logf(cmd.ErrOrStderr(), "Fetched %d units\n", len(units))

	lesson, challenges, err := pickChallenges(ctx, src, units, cfg, userID)
	if err != nil {
		return err
	}
	if len(challenges) == 0 {
		logf(cmd.OutOrStdout(), "Nothing to practice yet.\n")
		return nil
	}

	now := time.Now()
	state, err := st.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}
	state = state.RefreshStreak(now)

	session, err := quiz.NewSession(challenges, &state, quiz.Options{
		LessonID:       lesson.ID,
		UserID:         userID,
		Practice:       cfg.Practice,
		XPPerChallenge: cfg.XP,
		Reporter:       reporter,
		Logger:         logger,
	}, now)
	if err != nil {
		return err
	}
	logger.WithField("lesson", lesson.ID).WithField("practice", cfg.Practice).Info("lesson started")

	m := tui.NewModel(tui.Options{
		Session:     session,
		State:       &state,
		Saver:       st,
		Generator:   generator.New(),
		Vocabulary:  catalog.Vocabulary(challenges),
		Distractors: cfg.Distractors,
		Logger:      logger,
		Title:       lessonTitle(lesson, cfg.Practice),
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if err := m.SaveErr(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	printRunSummary(cmd.ErrOrStderr(), m.Run())
	return nil
}

// pickChallenges selects the lesson to play and its challenges.
func pickChallenges(ctx context.Context, src catalog.Source, units []model.Unit, cfg learnConfig, userID int) (model.Lesson, []model.Challenge, error) {
	scoped, err := unitsAtLevel(units, cfg.Level)
	if err != nil {
		return model.Lesson{}, nil, err
	}
	if cfg.Practice {
		current, _ := catalog.CurrentLesson(units)
		challenges, err := catalog.PracticeChallenges(ctx, src, userID)
		if err != nil {
			return model.Lesson{}, nil, fmt.Errorf("failed to load practice challenges: %w", err)
		}
		inLevel := lo.Map(catalog.Lessons(scoped), func(l model.Lesson, _ int) int { return l.ID })
		challenges = lo.Filter(challenges, func(c model.Challenge, _ int) bool {
			return lo.Contains(inLevel, c.LessonID)
		})
		return current, challenges, nil
	}
	units = scoped

	var lesson model.Lesson
	if cfg.Lesson > 0 {
		found, err := catalog.FindLesson(units, cfg.Lesson)
		if err != nil {
			return model.Lesson{}, nil, fmt.Errorf("lesson %d: %w", cfg.Lesson, err)
		}
		if found.Status == model.LessonLocked {
			return model.Lesson{}, nil, fmt.Errorf("lesson %d is locked", cfg.Lesson)
		}
		lesson = found
	} else {
		current, ok := catalog.CurrentLesson(units)
		if !ok && cfg.Level != "" {
			return model.Lesson{}, nil, fmt.Errorf("no current lesson at level %s; use --lesson or --practice", cfg.Level)
		}
		if !ok {
			return model.Lesson{}, nil, fmt.Errorf("all lessons completed; use --lesson or --practice")
		}
		lesson = current
	}

	challenges, err := src.Challenges(ctx, lesson.ID, userID)
	if err != nil {
		return model.Lesson{}, nil, fmt.Errorf("failed to load challenges: %w", err)
	}
	// A finished lesson replays from the start.
	if catalog.IsCompleted(units, lesson.ID) {
		for i := range challenges {
			challenges[i].Completed = false
		}
	}
	return lesson, challenges, nil
}

func lessonTitle(lesson model.Lesson, practice bool) string {
	if practice {
		return "Practice"
	}
	if lesson.Name == "" {
		return fmt.Sprintf("Lesson %d", lesson.ID)
	}
	return lesson.Name
}

func printRunSummary(w io.Writer, run model.LessonRun) {
	if run.Correct+run.Incorrect == 0 {
		return
	}
	status := "stopped"
	if run.Completed {
		status = "complete"
	}
	logf(w, "Lesson %d %s: %d correct, %d wrong, +%d XP\n", run.LessonID, status, run.Correct, run.Incorrect, run.XP)
}

func runUnitsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := s.plainLogger(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	source := firstNonEmpty(unitsSource, s.defaultSource())
	src, _, userID, err := openSource(s, source, resolvePackPath(s, unitsPack), st, logger, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	units, err := src.Units(context.Background(), userID)
	if err != nil {
		return fmt.Errorf("failed to load units: %w", err)
	}
	units, err = unitsAtLevel(units, unitsLevel)
	if err != nil {
		return err
	}
	return renderUnits(cmd.OutOrStdout(), units)
}

// unitsAtLevel narrows units to one level and fails for a level no unit has.
func unitsAtLevel(units []model.Unit, level string) ([]model.Unit, error) {
	scoped := catalog.UnitsAtLevel(units, level)
	if level != "" && len(scoped) == 0 {
		return nil, fmt.Errorf("no units at level %q (available: %s)", level, strings.Join(catalog.Levels(units), ", "))
	}
	return scoped, nil
}

func renderUnits(w io.Writer, units []model.Unit) error {
	for i, u := range units {
		if i > 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		header := fmt.Sprintf("Unit %d: %s", u.DisplayOrder, u.Title)
		if u.Level != "" {
			header += " (" + u.Level + ")"
		}
		if _, err := fmt.Fprintln(w, header); err != nil {
			return err
		}
		for _, l := range u.Lessons {
			if _, err := fmt.Fprintf(w, "  %s %3d  %s\n", statusMark(l.Status), l.ID, l.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func statusMark(status string) string {
	switch status {
	case model.LessonCompleted:
		return "✓"
	case model.LessonCurrent:
		return "▶"
	default:
		return "·"
	}
}

// localPack is an offline lesson pack whose lesson statuses come from the
// local run history.
type localPack struct {
	*catalog.Pack
	store *store.Store
}

func (p *localPack) Units(ctx context.Context, userID int) ([]model.Unit, error) {
	units, err := p.Pack.Units(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := p.store.CompletedLessons(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load completed lessons: %w", err)
	}
	return catalog.WithProgress(units, completed), nil
}

// resolveUserID prefers the configured id and falls back to the access token.
func resolveUserID(s settings) (int, error) {
	if s.file.API.UserID != nil {
		if *s.file.API.UserID <= 0 {
			return 0, fmt.Errorf("api.user-id must be > 0")
		}
		return *s.file.API.UserID, nil
	}
	if s.env.AccessToken == "" {
		return 0, fmt.Errorf("set api.user-id or NIHONGO_ACCESS_TOKEN to use the backend")
	}
	id, err := auth.UserIDFromToken(s.env.AccessToken)
	if err != nil {
		if errors.Is(err, auth.ErrNoUserID) {
			return 0, fmt.Errorf("access token has no user id; set api.user-id: %w", err)
		}
		return 0, err
	}
	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
