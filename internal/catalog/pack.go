package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/samber/lo"

	"github.com/verte-zerg/nihongo/internal/model"
)

// Pack is an offline lesson source read from a TOML file.
//
//	[[units]]
//	id = 1
//	title = "Greetings"
//	  [[units.lessons]]
//	  id = 1
//	  name = "Hello"
//	  status = "current"
//	    [[units.lessons.challenges]]
//	    type = "ORDER"
//	    words = ["わたし", "は", "学生", "です"]
//	    answer = "わたしは学生です"
type Pack struct {
	units      []model.Unit
	challenges map[int][]model.Challenge
}

type packFile struct {
	Units []packUnit `toml:"units"`
}

type packUnit struct {
	ID          int          `toml:"id"`
	Order       int          `toml:"order"`
	Title       string       `toml:"title"`
	Description string       `toml:"description"`
	Level       string       `toml:"level"`
	Lessons     []packLesson `toml:"lessons"`
}

type packLesson struct {
	model.Lesson
	Challenges []model.Challenge `toml:"challenges"`
}

// LoadPack reads and validates a lesson pack.
func LoadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParsePack(string(data))
}

// ParsePack decodes a lesson pack from TOML text.
func ParsePack(text string) (*Pack, error) {
	var file packFile
	if _, err := toml.Decode(text, &file); err != nil {
		return nil, fmt.Errorf("failed to decode lesson pack: %w", err)
	}
	p := &Pack{challenges: map[int][]model.Challenge{}}
	for _, pu := range file.Units {
		unit := model.Unit{
			ID:           pu.ID,
			DisplayOrder: pu.Order,
			Title:        pu.Title,
			Description:  pu.Description,
			Level:        pu.Level,
		}
		for _, pl := range pu.Lessons {
			if _, dup := p.challenges[pl.ID]; dup {
				return nil, fmt.Errorf("duplicate lesson id %d", pl.ID)
			}
			lesson := pl.Lesson
			if lesson.Status == "" {
				lesson.Status = model.LessonLocked
			}
			challenges := make([]model.Challenge, 0, len(pl.Challenges))
			for i, c := range pl.Challenges {
				c.LessonID = lesson.ID
				if c.ID == 0 {
					c.ID = lesson.ID*1000 + i + 1
				}
				if err := ValidateChallenge(c); err != nil {
					return nil, fmt.Errorf("lesson %d challenge %d: %w", lesson.ID, i+1, err)
				}
				challenges = append(challenges, c)
			}
			p.challenges[lesson.ID] = challenges
			unit.Lessons = append(unit.Lessons, lesson)
		}
		p.units = append(p.units, unit)
	}
	return p, nil
}

// MaxTiles bounds the options, tiles or pairs one challenge may show; the
// player has ten keys per column.
const MaxTiles = 10

// ValidateChallenge reports why a challenge cannot be played.
func ValidateChallenge(c model.Challenge) error {
	switch c.Type {
	case model.ChallengeMultipleChoice:
		if len(c.Options) == 0 {
			return fmt.Errorf("multiple choice needs options")
		}
		if len(c.Options) > MaxTiles {
			return fmt.Errorf("multiple choice has %d options, at most %d allowed", len(c.Options), MaxTiles)
		}
		if !lo.ContainsBy(c.Options, func(o model.ChallengeOption) bool { return o.Correct }) {
			return fmt.Errorf("multiple choice needs a correct option")
		}
	case model.ChallengeOrder:
		if len(c.Words) == 0 || c.Answer == "" {
			return fmt.Errorf("ordering needs words and an answer")
		}
		if len(c.Words) > MaxTiles {
			return fmt.Errorf("ordering has %d words, at most %d allowed", len(c.Words), MaxTiles)
		}
	case model.ChallengePairs:
		seen := map[int]bool{}
		for _, pair := range c.Pairs {
			if seen[pair.ID] {
				return fmt.Errorf("duplicate pair id %d", pair.ID)
			}
			seen[pair.ID] = true
		}
		if len(c.Pairs) == 0 {
			return fmt.Errorf("pair matching needs pairs")
		}
		if len(c.Pairs) > MaxTiles {
			return fmt.Errorf("pair matching has %d pairs, at most %d allowed", len(c.Pairs), MaxTiles)
		}
	default:
		return fmt.Errorf("unknown challenge type %q", c.Type)
	}
	return nil
}

// Units implements Source. The user id is ignored.
func (p *Pack) Units(_ context.Context, _ int) ([]model.Unit, error) {
	out := make([]model.Unit, len(p.units))
	for i, u := range p.units {
		u.Lessons = append([]model.Lesson(nil), u.Lessons...)
		out[i] = u
	}
	return out, nil
}

// Challenges implements Source.
func (p *Pack) Challenges(_ context.Context, lessonID, _ int) ([]model.Challenge, error) {
	challenges, ok := p.challenges[lessonID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrLessonNotFound, lessonID)
	}
	return append([]model.Challenge(nil), challenges...), nil
}
