// Package vote models the win/loss prediction poll attached to a live game.
//
// A poll is OPEN from the moment the game is announced until the match is
// finalized, then CLOSED. Every transition goes through Apply so the rules
// live in one place and can be tested without storage.
package vote

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

type State string

const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
)

type Option string

const (
	OptionWin  Option = "win"
	OptionLoss Option = "loss"
)

func (o Option) Valid() bool {
	return o == OptionWin || o == OptionLoss
}

type ActionKind int

const (
	ActionVote ActionKind = iota
	ActionClose
)

type Action struct {
	Kind   ActionKind
	UserID string
	Option Option
	At     time.Time
}

var (
	ErrClosed        = errors.New("poll is closed")
	ErrUnknownAction = errors.New("unknown poll action")
	ErrMissingUser   = errors.New("vote requires a user id")
)

type Poll struct {
	GameID   int64
	State    State
	Votes    map[string]Option // user id -> option
	OpenedAt time.Time
	ClosedAt time.Time
}

func New(gameID int64, openedAt time.Time) Poll {
	return Poll{
		GameID:   gameID,
		State:    StateOpen,
		Votes:    make(map[string]Option),
		OpenedAt: openedAt,
	}
}

// ParseAction turns a button/action id such as "vote:win" or "close" into an
// Action for userID.
func ParseAction(actionID, userID string, at time.Time) (Action, error) {
	kind, arg, _ := strings.Cut(actionID, ":")
	switch kind {
	case "vote":
		opt := Option(arg)
		if !opt.Valid() {
			return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
		}
		return Action{Kind: ActionVote, UserID: userID, Option: opt, At: at}, nil
	case "close":
		return Action{Kind: ActionClose, UserID: userID, At: at}, nil
	default:
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, actionID)
	}
}

// Apply returns the poll after action. The input poll is not modified.
// A user voting again replaces their previous choice.
func Apply(p Poll, action Action) (Poll, error) {
	if p.State == StateClosed {
		return p, ErrClosed
	}

	next := p.clone()
	switch action.Kind {
	case ActionVote:
		if action.UserID == "" {
			return p, ErrMissingUser
		}
		if !action.Option.Valid() {
			return p, fmt.Errorf("%w: option %q", ErrUnknownAction, action.Option)
		}
		next.Votes[action.UserID] = action.Option
	case ActionClose:
		next.State = StateClosed
		next.ClosedAt = action.At
	default:
		return p, ErrUnknownAction
	}
	return next, nil
}

type Tally struct {
	Win  int
	Loss int
}

func (t Tally) Total() int {
	return t.Win + t.Loss
}

func TallyOf(p Poll) Tally {
	var t Tally
	for _, opt := range p.Votes {
		switch opt {
		case OptionWin:
			t.Win++
		case OptionLoss:
			t.Loss++
		}
	}
	return t
}

// Render formats the poll as a single line for chat output.
func Render(p Poll) string {
	t := TallyOf(p)
	var b strings.Builder
	if p.State == StateClosed {
		b.WriteString("Prediction closed: ")
	} else {
		b.WriteString("Prediction open: ")
	}
	fmt.Fprintf(&b, "%d win / %d loss", t.Win, t.Loss)
	if t.Total() > 0 {
		fmt.Fprintf(&b, " (%d%% win)", t.Win*100/t.Total())
	}
	return b.String()
}

// Voters returns the user ids that picked opt, sorted.
func Voters(p Poll, opt Option) []string {
	var users []string
	for user, o := range p.Votes {
		if o == opt {
			users = append(users, user)
		}
	}
	sort.Strings(users)
	return users
}

func (p Poll) clone() Poll {
	votes := make(map[string]Option, len(p.Votes))
	for k, v := range p.Votes {
		votes[k] = v
	}
	p.Votes = votes
	return p
}
