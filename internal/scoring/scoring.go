// Package scoring ranks one participant of a finished match against the
// other nine.
//
// Scoring runs in two passes. PerMetricRank orders the ten participants on
// each metric separately, and the weighted rank contributions plus the win
// bonus form a 0-100 score. FinalPlacement then ranks the ten scores to give
// the 1..10 placement surfaced to users.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"league-tracker/internal/constants"
	"league-tracker/internal/domain"
)

const (
	ParticipantCount = 10
	WinBonus         = 5.0
	MinScore         = 0.0
	MaxScore         = 100.0
)

var ErrParticipantCount = errors.New("scoring requires exactly ten participants")

type Metric int

const (
	MetricKDA Metric = iota
	MetricKillParticipation
	MetricDamage
	MetricGold
	MetricFarm
	MetricVision
	metricCount
)

func (m Metric) String() string {
	switch m {
	case MetricKDA:
		return "kda"
	case MetricKillParticipation:
		return "kill_participation"
	case MetricDamage:
		return "damage"
	case MetricGold:
		return "gold"
	case MetricFarm:
		return "farm"
	case MetricVision:
		return "vision"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

// Weights are indexed by Metric and sum to 1.0.
type Weights [metricCount]float64

var (
	SupportWeights = Weights{
		MetricKDA:               0.15,
		MetricKillParticipation: 0.30,
		MetricDamage:            0.10,
		MetricGold:              0.10,
		MetricFarm:              0.05,
		MetricVision:            0.30,
	}
	DefaultWeights = Weights{
		MetricKDA:               0.25,
		MetricKillParticipation: 0.15,
		MetricDamage:            0.25,
		MetricGold:              0.15,
		MetricFarm:              0.15,
		MetricVision:            0.05,
	}
)

func WeightsFor(role domain.Role) Weights {
	if role.IsSupport() {
		return SupportWeights
	}
	return DefaultWeights
}

type Result struct {
	Score     float64
	Placement int
	Ranks     [metricCount]int
}

// IsRemake reports whether a match was too short to count.
func IsRemake(durationSeconds int) bool {
	return time.Duration(durationSeconds)*time.Second < constants.RemakeThreshold
}

// PerMetricRank returns a strict 1..n rank for each value, highest value
// first. Equal values keep their original order.
func PerMetricRank(values []float64) []int {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return values[order[a]] > values[order[b]]
	})

	ranks := make([]int, len(values))
	for rank, idx := range order {
		ranks[idx] = rank + 1
	}
	return ranks
}

// FinalPlacement orders participants by score descending, breaking ties on
// the lower index, and returns each participant's 1..n placement.
func FinalPlacement(scores []float64) []int {
	return PerMetricRank(scores)
}

// Contribution converts a 1..10 rank into its normalized share: 1st is 1.0,
// 10th is 0.1.
func Contribution(rank int) float64 {
	return float64(ParticipantCount+1-rank) / ParticipantCount
}

// Combine applies role weights to the per-metric ranks of one participant
// and adds the win bonus.
func Combine(ranks [metricCount]int, weights Weights, win bool) float64 {
	var sum float64
	for m := Metric(0); m < metricCount; m++ {
		sum += weights[m] * Contribution(ranks[m])
	}

	score := sum * 100
	if win {
		score += WinBonus
	}
	return clamp(round1(score))
}

// ScoreMatch scores every participant with their own role.
func ScoreMatch(all []domain.RawParticipant) ([]Result, error) {
	roles := make([]domain.Role, len(all))
	for i, p := range all {
		roles[i] = p.Role
	}
	return scoreWithRoles(all, roles)
}

// Score returns the composite score and placement of all[target], scored
// with role. The other nine are scored with their own roles so that the
// placement is computed against comparable numbers.
func Score(target int, all []domain.RawParticipant, role domain.Role) (float64, int, error) {
	if target < 0 || target >= len(all) {
		return 0, 0, fmt.Errorf("participant index %d out of range", target)
	}

	roles := make([]domain.Role, len(all))
	for i, p := range all {
		roles[i] = p.Role
	}
	roles[target] = role

	results, err := scoreWithRoles(all, roles)
	if err != nil {
		return 0, 0, err
	}
	return results[target].Score, results[target].Placement, nil
}

func scoreWithRoles(all []domain.RawParticipant, roles []domain.Role) ([]Result, error) {
	if len(all) != ParticipantCount {
		return nil, fmt.Errorf("%w: got %d", ErrParticipantCount, len(all))
	}

	var metricRanks [metricCount][]int
	for m := Metric(0); m < metricCount; m++ {
		metricRanks[m] = PerMetricRank(metricValues(all, m))
	}

	results := make([]Result, len(all))
	scores := make([]float64, len(all))
	for i, p := range all {
		for m := Metric(0); m < metricCount; m++ {
			results[i].Ranks[m] = metricRanks[m][i]
		}
		results[i].Score = Combine(results[i].Ranks, WeightsFor(roles[i]), p.Win)
		scores[i] = results[i].Score
	}

	placements := FinalPlacement(scores)
	for i := range results {
		results[i].Placement = placements[i]
	}
	return results, nil
}

func metricValues(all []domain.RawParticipant, m Metric) []float64 {
	teamKills := make(map[int]int)
	if m == MetricKillParticipation {
		for _, p := range all {
			teamKills[p.TeamID] += p.Kills
		}
	}

	values := make([]float64, len(all))
	for i, p := range all {
		switch m {
		case MetricKDA:
			values[i] = KDA(p.Kills, p.Deaths, p.Assists)
		case MetricKillParticipation:
			values[i] = float64(p.Kills+p.Assists) / float64(atLeastOne(teamKills[p.TeamID]))
		case MetricDamage:
			values[i] = float64(p.Damage)
		case MetricGold:
			values[i] = float64(p.Gold)
		case MetricFarm:
			values[i] = float64(p.Farm)
		case MetricVision:
			values[i] = float64(p.Vision)
		}
	}
	return values
}

// KDA treats zero deaths as one.
func KDA(kills, deaths, assists int) float64 {
	return float64(kills+assists) / float64(atLeastOne(deaths))
}

func atLeastOne(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

func clamp(score float64) float64 {
	return math.Max(MinScore, math.Min(MaxScore, score))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
