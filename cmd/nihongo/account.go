package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/nihongo/internal/api"
	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/profileui"
	"github.com/verte-zerg/nihongo/internal/progress"
	"github.com/verte-zerg/nihongo/internal/stats"
	"github.com/verte-zerg/nihongo/internal/store"
)

const (
	itemStreakFreeze    = "streak-freeze"
	itemDoubleOrNothing = "double-or-nothing"

	defaultProfileName = "learner"
)

var (
	profilePlain bool
	profileLast  int

	shopYes bool
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show streak, XP and lesson history",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
	cmd.Flags().BoolVar(&profilePlain, "plain", false, "print a plain report instead of the TUI")
	cmd.Flags().IntVar(&profileLast, "last", 10, "runs shown in the plain report (0 = all)")
	return cmd
}

func newGoalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goal [xp]",
		Short: "Set the daily XP goal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runGoalCmd,
	}
}

func newShopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "shop [" + itemStreakFreeze + "|" + itemDoubleOrNothing + "]",
		Short:     "Spend lingots",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{itemStreakFreeze, itemDoubleOrNothing},
		RunE:      runShopCmd,
	}
	cmd.Flags().BoolVarP(&shopYes, "yes", "y", false, "buy without confirmation")
	return cmd
}

func runProfileCmd(cmd *cobra.Command, _ []string) error {
	if profileLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	st, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	if profilePlain || !isTerminal(cmd.OutOrStdout()) {
		report, err := stats.BuildReport(context.Background(), st, time.Now(), profileLast)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		return stats.Render(cmd.OutOrStdout(), report, 0, false)
	}

	logger, closeLog, err := s.fileLogger()
	if err != nil {
		return err
	}
	defer closeLog()

	m := profileui.NewModel(st, profileName(s, logger), time.Now)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// profileName asks the backend for the learner's name when one is
// configured. Failures fall back to a generic name.
func profileName(s settings, log logrus.FieldLogger) string {
	if s.apiBaseURL() == "" {
		return defaultProfileName
	}
	client, err := api.NewClient(s.apiBaseURL(), s.env.AccessToken, s.apiTimeout())
	if err != nil {
		log.WithError(err).Warn("profile name unavailable")
		return defaultProfileName
	}
	userID, err := resolveUserID(s)
	if err != nil {
		log.WithError(err).Warn("profile name unavailable")
		return defaultProfileName
	}
	profile, err := client.Profile(context.Background(), userID)
	if err != nil || profile.Name == "" {
		log.WithError(err).Warn("profile name unavailable")
		return defaultProfileName
	}
	return profile.Name
}

func runGoalCmd(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	state, err := st.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	var goal progress.GoalXP
	if len(args) == 1 {
		v, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("goal must be a number: %q", args[0])
		}
		if goal, err = progress.ParseGoalXP(v); err != nil {
			return err
		}
	} else {
		if !isTerminal(cmd.OutOrStdout()) {
			return fmt.Errorf("pass the goal as an argument (%s)", goalChoicesText())
		}
		goal = preselectedGoal(s, state)
		if err := goalSelect(&goal).Run(); err != nil {
			return fmt.Errorf("failed to pick goal: %w", err)
		}
	}

	state, err = state.SetGoalXP(goal)
	if err != nil {
		return err
	}
	if err := st.SaveState(ctx, state); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	logger.WithField("goal", int(goal)).Debug("daily goal changed")
	logf(cmd.OutOrStdout(), "Daily goal set to %d XP.\n", goal)
	return nil
}

// preselectedGoal is the configured goal when valid, else the saved one.
func preselectedGoal(s settings, state progress.State) progress.GoalXP {
	if s.file.Goal.XP != nil {
		if goal, err := progress.ParseGoalXP(*s.file.Goal.XP); err == nil {
			return goal
		}
	}
	return state.Goal()
}

func goalSelect(value *progress.GoalXP) *huh.Select[progress.GoalXP] {
	options := lo.Map(progress.GoalXPChoices, func(g progress.GoalXP, _ int) huh.Option[progress.GoalXP] {
		return huh.NewOption(fmt.Sprintf("%d XP", g), g)
	})
	return huh.NewSelect[progress.GoalXP]().
		Title("Daily goal").
		Description("XP to earn each day. Reaching it pays " + strconv.Itoa(progress.GoalReward) + " lingots.").
		Options(options...).
		Value(value)
}

func goalChoicesText() string {
	return strings.Join(lo.Map(progress.GoalXPChoices, func(g progress.GoalXP, _ int) string {
		return strconv.Itoa(int(g))
	}), ", ")
}

func runShopCmd(cmd *cobra.Command, args []string) error {
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

	ctx := context.Background()
	state, err := st.LoadState(ctx)
	if err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	if len(args) == 0 {
		return renderShop(cmd.OutOrStdout(), state)
	}

	item := args[0]
	cost, err := itemCost(item)
	if err != nil {
		return err
	}
	if !shopYes && isTerminal(cmd.OutOrStdout()) {
		confirmed := false
		if err := purchaseConfirm(item, cost, state.Wallet.Lingots, &confirmed).Run(); err != nil {
			return fmt.Errorf("failed to confirm purchase: %w", err)
		}
		if !confirmed {
			logf(cmd.OutOrStdout(), "Nothing bought.\n")
			return nil
		}
	}

	next, err := buy(state, item, s.spendPolicy())
	if err != nil {
		return purchaseError(item, state, err)
	}
	if err := st.SaveState(ctx, next); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	logger.WithFields(logrus.Fields{"item": item, "amount": cost, "policy": s.spendPolicy().String()}).Debug("purchase")
	logf(cmd.OutOrStdout(), "Bought %s. Lingots left: %d\n", item, next.Wallet.Lingots)
	return nil
}

func itemCost(item string) (int, error) {
	switch item {
	case itemStreakFreeze:
		return progress.StreakFreezeCost, nil
	case itemDoubleOrNothing:
		return progress.DoubleOrNothingCost, nil
	default:
		return 0, fmt.Errorf("unknown item %q (use %s or %s)", item, itemStreakFreeze, itemDoubleOrNothing)
	}
}

func buy(state progress.State, item string, policy progress.SpendPolicy) (progress.State, error) {
	if item == itemStreakFreeze {
		return state.BuyStreakFreeze(policy)
	}
	return state.BuyDoubleOrNothing(policy)
}

func purchaseError(item string, state progress.State, err error) error {
	switch {
	case errors.Is(err, progress.ErrInsufficientFunds):
		cost, _ := itemCost(item)
		return fmt.Errorf("%s costs %d lingots, you have %d: %w", item, cost, state.Wallet.Lingots, err)
	case errors.Is(err, progress.ErrFreezeLimit):
		return fmt.Errorf("you already hold %d streak freezes: %w", progress.MaxStreakFreezes, err)
	default:
		return err
	}
}

func purchaseConfirm(item string, cost, balance int, value *bool) *huh.Confirm {
	return huh.NewConfirm().
		Title(fmt.Sprintf("Buy %s for %d lingots?", item, cost)).
		Description(fmt.Sprintf("Balance: %d lingots", balance)).
		Affirmative("Buy").
		Negative("Cancel").
		Value(value)
}

func renderShop(w io.Writer, state progress.State) error {
	owned := "no"
	if state.Wallet.DoubleOrNothing {
		owned = "active"
	}
	lines := []string{
		fmt.Sprintf("Lingots: %d", state.Wallet.Lingots),
		"",
		fmt.Sprintf("  %-18s %3d lingots   held %d / %d", itemStreakFreeze, progress.StreakFreezeCost, state.Wallet.StreakFreezes, progress.MaxStreakFreezes),
		fmt.Sprintf("  %-18s %3d lingots   %s", itemDoubleOrNothing, progress.DoubleOrNothingCost, owned),
		"",
		"Buy with: nihongo shop <item>",
	}
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}

var _ stats.Loader = (*store.Store)(nil)

var (
	accountName  string
	accountPhone string
)

func newAccountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Edit name, phone number and password",
		Args:  cobra.NoArgs,
		RunE:  runAccountCmd,
	}
	cmd.Flags().StringVar(&accountName, "name", "", "new display name")
	cmd.Flags().StringVar(&accountPhone, "phone", "", "new phone number")
	return cmd
}

// accountDraft holds the account form while it is edited.
type accountDraft struct {
	Name     string
	Phone    string
	Password string
	Confirm  string
}

func (d accountDraft) update(userID int, avatar string) (model.ProfileUpdate, error) {
	name := strings.TrimSpace(d.Name)
	phone := strings.TrimSpace(d.Phone)
	if name == "" || phone == "" {
		return model.ProfileUpdate{}, fmt.Errorf("name and phone number are required")
	}
	if d.Password != d.Confirm {
		return model.ProfileUpdate{}, fmt.Errorf("passwords do not match")
	}
	return model.ProfileUpdate{
		UserID:      userID,
		Name:        name,
		PhoneNumber: phone,
		Password:    d.Password,
		Avatar:      avatar,
	}, nil
}

func accountForm(d *accountDraft) *huh.Form {
	required := func(field string) func(string) error {
		return func(v string) error {
			if strings.TrimSpace(v) == "" {
				return fmt.Errorf("%s is required", field)
			}
			return nil
		}
	}
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Name").Value(&d.Name).Validate(required("name")),
		huh.NewInput().Title("Phone number").Value(&d.Phone).Validate(required("phone number")),
		huh.NewInput().Title("New password").EchoMode(huh.EchoModePassword).Value(&d.Password),
		huh.NewInput().Title("Confirm password").EchoMode(huh.EchoModePassword).Value(&d.Confirm).
			Validate(func(v string) error {
				if v != d.Password {
					return errors.New("passwords do not match")
				}
				return nil
			}),
	))
}

func runAccountCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := s.plainLogger(cmd)
	if err != nil {
		return err
	}
	if s.apiBaseURL() == "" {
		return fmt.Errorf("account settings live on the backend; set NIHONGO_API_BASE_URL or api.base-url")
	}
	client, err := api.NewClient(s.apiBaseURL(), s.env.AccessToken, s.apiTimeout())
	if err != nil {
		return err
	}
	userID, err := resolveUserID(s)
	if err != nil {
		return err
	}

	ctx := context.Background()
	profile, err := client.Profile(ctx, userID)
	if err != nil {
		return err
	}
	draft := accountDraft{Name: profile.Name, Phone: profile.Phone}

	switch {
	case cmd.Flags().Changed("name") || cmd.Flags().Changed("phone"):
		if cmd.Flags().Changed("name") {
			draft.Name = accountName
		}
		if cmd.Flags().Changed("phone") {
			draft.Phone = accountPhone
		}
	case isTerminal(cmd.OutOrStdout()):
		if err := accountForm(&draft).Run(); err != nil {
			return fmt.Errorf("failed to edit account: %w", err)
		}
	default:
		return fmt.Errorf("pass --name or --phone when not running in a terminal")
	}

	update, err := draft.update(userID, profile.Avatar)
	if err != nil {
		return err
	}
	if err := client.UpdateProfile(ctx, update); err != nil {
		return err
	}
	logger.WithField("user", userID).Debug("profile updated")
	logf(cmd.OutOrStdout(), "Profile updated.\n")
	return nil
}
