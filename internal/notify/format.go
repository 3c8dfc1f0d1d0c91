package notify

import (
	"fmt"
	"strings"
	"time"

	"league-tracker/internal/domain"
	"league-tracker/internal/vote"
)

var queueNames = map[int]string{
	400: "Normal Draft",
	420: "Ranked Solo/Duo",
	440: "Ranked Flex",
	490: "Quickplay",
}

func queueName(id int) string {
	if name, ok := queueNames[id]; ok {
		return name
	}
	return fmt.Sprintf("Queue %d", id)
}

func FormatSession(session *domain.LiveSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Live: %s** (game %d)\n", queueName(session.QueueID), session.GameID)
	for _, p := range session.Participants {
		name := p.RiotID
		if name == "" {
			name = p.PUUID
		}
		fmt.Fprintf(&b, "- %s, %s side\n", name, side(p.TeamID))
	}
	if !session.GameStartTime.IsZero() {
		fmt.Fprintf(&b, "Started <t:%d:R>", session.GameStartTime.Unix())
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatMatchResult(result MatchResult) string {
	table := result.Table
	var b strings.Builder

	minutes := time.Duration(table.DurationSeconds) * time.Second
	fmt.Fprintf(&b, "**Finished: %s** %s (%s)\n", queueName(table.QueueID), table.MatchID, minutes.Round(time.Second))
	if table.Remake {
		b.WriteString("Remake, scores do not count.\n")
	}
	for _, row := range table.Rows {
		marker := " "
		if row.Tracked {
			marker = "*"
		}
		name := row.RiotID
		if name == "" {
			name = row.PUUID
		}
		fmt.Fprintf(&b, "`%2d.%s %5.1f` %s (%s, %s)\n", row.Placement, marker, row.Score, name, row.Champion, roleLabel(row.Role))
	}
	if result.Prediction != nil {
		b.WriteString(vote.Render(*result.Prediction))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatPenalty(decision domain.PenaltyDecision) string {
	return fmt.Sprintf("**Penalty level %d** on %s for %s: %s. Expires <t:%d:R>.",
		decision.Level, decision.Champion, decision.PUUID, decision.Reason, decision.ExpiresAt.Unix())
}

func side(teamID int) string {
	if teamID == 200 {
		return "red"
	}
	return "blue"
}

func roleLabel(role domain.Role) string {
	switch role {
	case domain.RoleTop:
		return "top"
	case domain.RoleJungle:
		return "jungle"
	case domain.RoleMiddle:
		return "mid"
	case domain.RoleBottom:
		return "bot"
	case domain.RoleSupport:
		return "support"
	default:
		return "?"
	}
}
