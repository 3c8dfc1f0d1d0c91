package service

import (
	"errors"
	"fmt"
	"time"

	"league-tracker/internal/api"
	"league-tracker/internal/domain"
	"league-tracker/internal/scoring"
)

// ErrExtraction marks a match payload that cannot be scored. Such matches
// are skipped and never retried.
var ErrExtraction = errors.New("malformed match payload")

// ExtractParticipants converts the ten participants of a finished match.
func ExtractParticipants(match *api.MatchDTO) ([]domain.RawParticipant, error) {
	if match == nil {
		return nil, fmt.Errorf("%w: empty match", ErrExtraction)
	}
	if n := len(match.Info.Participants); n != scoring.ParticipantCount {
		return nil, fmt.Errorf("%w: %s has %d participants", ErrExtraction, match.Metadata.MatchID, n)
	}

	seen := make(map[string]bool, scoring.ParticipantCount)
	raw := make([]domain.RawParticipant, 0, scoring.ParticipantCount)
	for i, p := range match.Info.Participants {
		if p.PUUID == "" {
			return nil, fmt.Errorf("%w: %s participant %d has no puuid", ErrExtraction, match.Metadata.MatchID, i)
		}
		if seen[p.PUUID] {
			return nil, fmt.Errorf("%w: %s lists %s twice", ErrExtraction, match.Metadata.MatchID, p.PUUID)
		}
		if p.TeamID != 100 && p.TeamID != 200 {
			return nil, fmt.Errorf("%w: %s participant %d on team %d", ErrExtraction, match.Metadata.MatchID, i, p.TeamID)
		}
		seen[p.PUUID] = true

		raw = append(raw, domain.RawParticipant{
			PUUID:      p.PUUID,
			GameName:   p.RiotIDGameName,
			TagLine:    p.RiotIDTagline,
			ChampionID: p.ChampionID,
			Champion:   p.ChampionName,
			TeamID:     p.TeamID,
			Role:       domain.Role(p.TeamPosition),
			Kills:      p.Kills,
			Deaths:     p.Deaths,
			Assists:    p.Assists,
			Damage:     p.TotalDamageDealtToChampions,
			Gold:       p.GoldEarned,
			Farm:       p.TotalMinionsKilled + p.NeutralMinionsKilled,
			Vision:     p.VisionScore,
			Win:        p.Win,
		})
	}
	return raw, nil
}

// MatchEnd is the end timestamp, falling back to start plus duration for
// payloads without one.
func MatchEnd(match *api.MatchDTO) time.Time {
	if match.Info.GameEndTimestamp > 0 {
		return time.UnixMilli(match.Info.GameEndTimestamp)
	}
	start := match.Info.GameStartTimestamp
	if start == 0 {
		start = match.Info.GameCreation
	}
	return time.UnixMilli(start).Add(time.Duration(match.Info.GameDuration) * time.Second)
}

func riotID(gameName, tagLine string) string {
	if gameName == "" {
		return ""
	}
	return gameName + "#" + tagLine
}
