// Package quiz runs the challenges of one lesson in sequence and applies
// their rewards to the learner's progress.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/nihongo/internal/logging"
	"github.com/verte-zerg/nihongo/internal/model"
	"github.com/verte-zerg/nihongo/internal/progress"
)

// DefaultXPPerChallenge is the XP credited for each correct answer.
const DefaultXPPerChallenge = 10

var (
	// ErrNoChallenges is returned for a lesson with nothing to play.
	ErrNoChallenges = errors.New("lesson has no challenges")
	// ErrFinished is returned when answering past the last challenge.
	ErrFinished = errors.New("lesson already finished")
	// ErrAnswered is returned when the current challenge was already answered.
	ErrAnswered = errors.New("challenge already answered")
)

// Reporter receives answer and completion events, typically the backend.
type Reporter interface {
	RightAnswer(ctx context.Context, challenge model.Challenge, userID int) error
	WrongAnswer(ctx context.Context, challenge model.Challenge, userID int) error
	CompleteLesson(ctx context.Context, lessonID, userID int) error
}

// NopReporter discards every event. Local lesson packs use it.
type NopReporter struct{}

func (NopReporter) RightAnswer(context.Context, model.Challenge, int) error { return nil }
func (NopReporter) WrongAnswer(context.Context, model.Challenge, int) error { return nil }
func (NopReporter) CompleteLesson(context.Context, int, int) error          { return nil }

// Options configures a Session.
type Options struct {
	LessonID       int
	UserID         int
	Practice       bool
	XPPerChallenge int
	Reporter       Reporter
	Logger         logrus.FieldLogger
}

// Session is one play-through of a lesson. The progress state is owned by
// the caller; the session replaces it after every credited answer.
type Session struct {
	opts       Options
	challenges []model.Challenge
	state      *progress.State

	index     int
	answered  bool
	correct   int
	incorrect int
	xp        int
	rewarded  bool

	startedAt time.Time
	endedAt   time.Time
	reported  bool
}

// NewSession starts a lesson at its first incomplete challenge.
func NewSession(challenges []model.Challenge, state *progress.State, opts Options, now time.Time) (*Session, error) {
	if len(challenges) == 0 {
		return nil, ErrNoChallenges
	}
	if state == nil {
		return nil, fmt.Errorf("progress state is nil")
	}
	if opts.XPPerChallenge <= 0 {
		opts.XPPerChallenge = DefaultXPPerChallenge
	}
	if opts.Reporter == nil {
		opts.Reporter = NopReporter{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	s := &Session{
		opts:       opts,
		challenges: append([]model.Challenge(nil), challenges...),
		state:      state,
		startedAt:  now,
	}
	_, first, ok := lo.FindIndexOf(s.challenges, func(c model.Challenge) bool { return !c.Completed })
	if !ok {
		first = 0
	}
	s.index = first
	return s, nil
}

// Current returns the challenge being played.
func (s *Session) Current() (model.Challenge, bool) {
	if s.Done() {
		return model.Challenge{}, false
	}
	return s.challenges[s.index], true
}

// Index returns the zero-based position of the current challenge.
func (s *Session) Index() int {
	return s.index
}

// Len returns the number of challenges in the lesson.
func (s *Session) Len() int {
	return len(s.challenges)
}

// Answer records the result of the current challenge. A correct answer
// credits XP through progress.State.IncreaseXP. Reporter failures are
// logged and do not affect the session.
func (s *Session) Answer(ctx context.Context, correct bool, now time.Time) (progress.Gain, error) {
	current, ok := s.Current()
	if !ok {
		return progress.Gain{}, ErrFinished
	}
	if s.answered {
		return progress.Gain{}, ErrAnswered
	}
	log := s.opts.Logger.WithFields(logrus.Fields{"lesson": s.opts.LessonID, "challenge": current.ID})

	if !correct {
		s.answered = true
		s.incorrect++
		if err := s.opts.Reporter.WrongAnswer(ctx, current, s.opts.UserID); err != nil {
			log.WithError(err).Warn("report wrong answer")
		}
		return progress.Gain{}, nil
	}

	next, gain, err := s.state.IncreaseXP(s.opts.XPPerChallenge, now)
	if err != nil {
		return progress.Gain{}, fmt.Errorf("failed to credit xp: %w", err)
	}
	*s.state = next
	s.answered = true
	s.correct++
	s.xp += gain.Amount
	s.challenges[s.index].Completed = true
	if gain.Rewarded {
		s.rewarded = true
		log.WithField("day", progress.KeyOf(now)).Info("daily goal reached")
	}
	if err := s.opts.Reporter.RightAnswer(ctx, current, s.opts.UserID); err != nil {
		log.WithError(err).Warn("report right answer")
	}
	return gain, nil
}

// Answered reports whether the current challenge has a result.
func (s *Session) Answered() bool {
	return s.answered
}

// Next moves to the following challenge. It reports false once the lesson
// is over.
func (s *Session) Next() bool {
	if s.Done() {
		return false
	}
	s.index++
	s.answered = false
	return !s.Done()
}

// Done reports whether every challenge has been played.
func (s *Session) Done() bool {
	return s.index >= len(s.challenges)
}

// Percentage returns the share of completed challenges, 0 to 100.
func (s *Session) Percentage() float64 {
	done := lo.CountBy(s.challenges, func(c model.Challenge) bool { return c.Completed })
	return float64(done) / float64(len(s.challenges)) * 100
}

// Rewarded reports whether the daily goal reward was paid during the session.
func (s *Session) Rewarded() bool {
	return s.rewarded
}

// Finish closes the session and, for a completed regular lesson, reports
// the completion. It is safe to call more than once.
func (s *Session) Finish(ctx context.Context, now time.Time) model.LessonRun {
	if s.endedAt.IsZero() {
		s.endedAt = now
	}
	if s.Done() && !s.opts.Practice && !s.reported {
		s.reported = true
		if err := s.opts.Reporter.CompleteLesson(ctx, s.opts.LessonID, s.opts.UserID); err != nil {
			s.opts.Logger.WithError(err).WithField("lesson", s.opts.LessonID).Warn("report lesson completion")
		}
	}
	return s.Run()
}

// Run summarizes the session so far.
func (s *Session) Run() model.LessonRun {
	ended := s.endedAt
	if ended.IsZero() {
		ended = s.startedAt
	}
	return model.LessonRun{
		LessonID:  s.opts.LessonID,
		Practice:  s.opts.Practice,
		StartedAt: s.startedAt,
		EndedAt:   ended,
		Correct:   s.correct,
		Incorrect: s.incorrect,
		XP:        s.xp,
		Completed: s.Done(),
	}
}
