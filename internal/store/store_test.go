package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nihongo.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestLoadStateEmpty(t *testing.T) {
	st := openTestStore(t)
	state, err := st.LoadState(context.Background())
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	if state.GoalXP != progress.DefaultGoalXP {
		t.Fatalf("expected default goal, got %d", state.GoalXP)
	}
	if len(state.XPByDate) != 0 || len(state.ActiveDays) != 0 || state.Wallet.Lingots != 0 {
		t.Fatalf("expected empty state, got %+v", state)
	}
}

func TestSaveStateRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.Local)

	state := progress.NewState()
	state, err := state.SetGoalXP(250)
	if err != nil {
		t.Fatalf("set goal: %v", err)
	}
	state, _, err = state.IncreaseXP(120, now.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("increase xp: %v", err)
	}
	state, _, err = state.IncreaseXP(260, now)
	if err != nil {
		t.Fatalf("increase xp: %v", err)
	}
	state, err = state.BuyDoubleOrNothing(progress.StrictSpend)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if err := st.SaveState(ctx, state); err != nil {
		t.Fatalf("save state: %v", err)
	}

	loaded, err := st.LoadState(ctx)
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	loaded = loaded.RefreshStreak(now)
	if loaded.GoalXP != 250 {
		t.Fatalf("expected goal 250, got %d", loaded.GoalXP)
	}
	if loaded.XPToday(now) != 260 || loaded.XPThisWeek(now) != 380 {
		t.Fatalf("unexpected xp: today=%d week=%d", loaded.XPToday(now), loaded.XPThisWeek(now))
	}
	if loaded.Streak != 2 {
		t.Fatalf("expected streak 2, got %d", loaded.Streak)
	}
	if !loaded.GoalClaimed(now) || len(loaded.GoalRewardClaimedDates) != 1 {
		t.Fatalf("expected one claim, got %v", loaded.GoalRewardClaimedDates)
	}
	if loaded.Wallet.Lingots != progress.GoalReward-progress.DoubleOrNothingCost || !loaded.Wallet.DoubleOrNothing {
		t.Fatalf("unexpected wallet: %+v", loaded.Wallet)
	}
}

func TestSaveStateReplacesSnapshot(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 18, 12, 0, 0, 0, time.Local)

	first, _, _ := progress.NewState().IncreaseXP(10, now.AddDate(0, 0, -5))
	if err := st.SaveState(ctx, first); err != nil {
		t.Fatalf("save first: %v", err)
	}
	second, _, _ := progress.NewState().IncreaseXP(20, now)
	if err := st.SaveState(ctx, second); err != nil {
		t.Fatalf("save second: %v", err)
	}
	loaded, err := st.LoadState(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.XPByDate) != 1 || len(loaded.ActiveDays) != 1 {
		t.Fatalf("expected only the second snapshot, got %+v", loaded)
	}
}

func TestInsertAndListRuns(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < 3; i++ {
		run := model.LessonRun{
			LessonID:  i + 1,
			Practice:  i == 2,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			EndedAt:   base.Add(time.Duration(i)*time.Hour + 5*time.Minute),
			Correct:   4,
			Incorrect: i,
			XP:        40,
			Completed: i != 1,
		}
		id, err := st.InsertRun(ctx, run)
		if err != nil {
			t.Fatalf("insert run: %v", err)
		}
		if id == "" {
			t.Fatalf("expected generated id")
		}
	}

	runs, err := st.ListRuns(ctx, nil)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].LessonID != 1 || runs[2].LessonID != 3 {
		t.Fatalf("unexpected order: %+v", runs)
	}
	if runs[1].Completed || !runs[2].Practice {
		t.Fatalf("unexpected flags: %+v", runs)
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListRuns(ctx, &since)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 1 || recent[0].LessonID != 3 {
		t.Fatalf("expected only the last run, got %+v", recent)
	}
}

func TestCompletedLessons(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 6, 18, 9, 0, 0, 0, time.UTC)
	runs := []model.LessonRun{
		{LessonID: 3, Completed: true},
		{LessonID: 1, Completed: true},
		{LessonID: 1, Completed: true},
		{LessonID: 2, Completed: false},
		{LessonID: 4, Completed: true, Practice: true},
	}
	for i, run := range runs {
		run.StartedAt = start.Add(time.Duration(i) * time.Minute)
		run.EndedAt = run.StartedAt.Add(time.Minute)
		if _, err := st.InsertRun(ctx, run); err != nil {
			t.Fatalf("insert run: %v", err)
		}
	}
	ids, err := st.CompletedLessons(ctx)
	if err != nil {
		t.Fatalf("completed lessons: %v", err)
	}
	if len(ids) != 2 || ids[0] != 1 || ids[1] != 3 {
		t.Fatalf("unexpected completed lessons: %v", ids)
	}
}
