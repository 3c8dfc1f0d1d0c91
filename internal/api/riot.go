package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type Family string

const (
	FamilyAccount   Family = "account"
	FamilyMatch     Family = "match"
	FamilySpectator Family = "spectator"
)

var Families = []Family{FamilyAccount, FamilyMatch, FamilySpectator}

type Endpoint struct {
	Name      string
	Family    Family
	Path      string // fmt pattern, one %s per path param
	Regional  bool   // served from americas/europe/asia/sea instead of the platform host
	Priority  bool   // shorter spacing for latency sensitive polling
	Cacheable bool
}

var (
	EndpointAccountByRiotID = Endpoint{
		Name:      "account-by-riot-id",
		Family:    FamilyAccount,
		Path:      "/riot/account/v1/accounts/by-riot-id/%s/%s",
		Regional:  true,
		Cacheable: true,
	}
	EndpointMatchIDs = Endpoint{
		Name:     "match-ids-by-puuid",
		Family:   FamilyMatch,
		Path:     "/lol/match/v5/matches/by-puuid/%s/ids",
		Regional: true,
		Priority: true,
	}
	EndpointMatch = Endpoint{
		Name:      "match-by-id",
		Family:    FamilyMatch,
		Path:      "/lol/match/v5/matches/%s",
		Regional:  true,
		Cacheable: true,
	}
	EndpointActiveGame = Endpoint{
		Name:     "active-game-by-puuid",
		Family:   FamilySpectator,
		Path:     "/lol/spectator/v5/active-games/by-summoner/%s",
		Priority: true,
	}
)

type Request struct {
	Endpoint Endpoint
	Platform string
	Params   []string
	Query    url.Values
}

func (r Request) path() string {
	args := make([]any, len(r.Params))
	for i, p := range r.Params {
		args[i] = url.PathEscape(p)
	}
	p := fmt.Sprintf(r.Endpoint.Path, args...)
	if len(r.Query) > 0 {
		p += "?" + r.Query.Encode()
	}
	return p
}

func (r Request) cacheKey() string {
	return r.Endpoint.Name + "|" + r.Platform + "|" + strings.Join(r.Params, "/") + "?" + r.Query.Encode()
}

var platformRegions = map[string]string{
	"na1":  "americas",
	"br1":  "americas",
	"la1":  "americas",
	"la2":  "americas",
	"euw1": "europe",
	"eun1": "europe",
	"tr1":  "europe",
	"ru":   "europe",
	"me1":  "europe",
	"kr":   "asia",
	"jp1":  "asia",
	"oc1":  "sea",
	"ph2":  "sea",
	"sg2":  "sea",
	"th2":  "sea",
	"tw2":  "sea",
	"vn2":  "sea",
}

// Host returns the routing value used for an endpoint on platform. Account
// lookups have no sea cluster and are served from asia.
func Host(endpoint Endpoint, platform string) (string, error) {
	platform = strings.ToLower(platform)
	region, ok := platformRegions[platform]
	if !ok {
		return "", fmt.Errorf("unknown platform %q", platform)
	}
	if !endpoint.Regional {
		return platform, nil
	}
	if endpoint.Family == FamilyAccount && region == "sea" {
		return "asia", nil
	}
	return region, nil
}

// MatchID builds the match-v5 id of a live game, e.g. EUW1_7001.
func MatchID(platform string, gameID int64) string {
	return strings.ToUpper(platform) + "_" + strconv.FormatInt(gameID, 10)
}

type AccountDTO struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

type MatchDTO struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameID             int64            `json:"gameId"`
	PlatformID         string           `json:"platformId"`
	QueueID            int              `json:"queueId"`
	GameCreation       int64            `json:"gameCreation"`
	GameStartTimestamp int64            `json:"gameStartTimestamp"`
	GameEndTimestamp   int64            `json:"gameEndTimestamp"`
	GameDuration       int              `json:"gameDuration"` // seconds
	Participants       []ParticipantDTO `json:"participants"`
}

type ParticipantDTO struct {
	PUUID                       string `json:"puuid"`
	RiotIDGameName              string `json:"riotIdGameName"`
	RiotIDTagline               string `json:"riotIdTagline"`
	ChampionID                  int    `json:"championId"`
	ChampionName                string `json:"championName"`
	TeamID                      int    `json:"teamId"`
	TeamPosition                string `json:"teamPosition"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	GoldEarned                  int    `json:"goldEarned"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	VisionScore                 int    `json:"visionScore"`
	Win                         bool   `json:"win"`
}

type ActiveGameDTO struct {
	GameID            int64                  `json:"gameId"`
	PlatformID        string                 `json:"platformId"`
	GameQueueConfigID int                    `json:"gameQueueConfigId"`
	GameStartTime     int64                  `json:"gameStartTime"` // unix ms, 0 while loading
	Participants      []ActiveParticipantDTO `json:"participants"`
}

type ActiveParticipantDTO struct {
	PUUID      string `json:"puuid"`
	RiotID     string `json:"riotId"`
	ChampionID int    `json:"championId"`
	TeamID     int    `json:"teamId"`
}

func (g *Gateway) AccountByRiotID(ctx context.Context, platform, gameName, tagLine string) (*AccountDTO, error) {
	return fetchJSON[AccountDTO](ctx, g, Request{
		Endpoint: EndpointAccountByRiotID,
		Platform: platform,
		Params:   []string{gameName, tagLine},
	})
}

func (g *Gateway) MatchIDsByPUUID(ctx context.Context, platform, puuid string, count int) ([]string, error) {
	ids, err := fetchJSON[[]string](ctx, g, Request{
		Endpoint: EndpointMatchIDs,
		Platform: platform,
		Params:   []string{puuid},
		Query:    url.Values{"start": {"0"}, "count": {strconv.Itoa(count)}},
	})
	if err != nil || ids == nil {
		return nil, err
	}
	return *ids, nil
}

func (g *Gateway) Match(ctx context.Context, platform, matchID string) (*MatchDTO, error) {
	return fetchJSON[MatchDTO](ctx, g, Request{
		Endpoint: EndpointMatch,
		Platform: platform,
		Params:   []string{matchID},
	})
}

// ActiveGame returns nil when the player is not in a game.
func (g *Gateway) ActiveGame(ctx context.Context, platform, puuid string) (*ActiveGameDTO, error) {
	return fetchJSON[ActiveGameDTO](ctx, g, Request{
		Endpoint: EndpointActiveGame,
		Platform: platform,
		Params:   []string{puuid},
	})
}

func fetchJSON[T any](ctx context.Context, g *Gateway, req Request) (*T, error) {
	body, err := g.Fetch(ctx, req)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", req.Endpoint.Name, err)
	}
	return &result, nil
}
