package domain

import (
	"time"
)

type Role string

const (
	RoleTop     Role = "TOP"
	RoleJungle  Role = "JUNGLE"
	RoleMiddle  Role = "MIDDLE"
	RoleBottom  Role = "BOTTOM"
	RoleSupport Role = "UTILITY"
	RoleUnknown Role = ""
)

func (r Role) IsSupport() bool {
	return r == RoleSupport
}

type TrackedAccount struct {
	ID        string // nanoid
	OwnerID   string // chat user that linked the account
	Platform  string // "euw1", "na1", ...
	PUUID     string
	GameName  string
	TagLine   string
	CreatedAt time.Time
}

func (a TrackedAccount) RiotID() string {
	return a.GameName + "#" + a.TagLine
}

// RawParticipant is one of the ten players of a finished match as returned
// upstream. Built per reconciliation pass and never stored.
type RawParticipant struct {
	PUUID      string
	GameName   string
	TagLine    string
	ChampionID int
	Champion   string
	TeamID     int
	Role       Role
	Kills      int
	Deaths     int
	Assists    int
	Damage     int
	Gold       int
	Farm       int
	Vision     int
	Win        bool
}

type MatchStats struct {
	PUUID           string
	MatchID         string
	Champion        string
	ChampionID      int
	Role            Role
	Score           float64
	Placement       int
	Kills           int
	Deaths          int
	Assists         int
	Damage          int
	Gold            int
	Farm            int
	Vision          int
	Win             bool
	Remake          bool
	DurationSeconds int
	QueueID         int
	PlayedAt        time.Time // game end
	CreatedAt       time.Time
}

// PlacementRow is one line of the per-match placement table handed to the
// notifier when a match is finalized.
type PlacementRow struct {
	PUUID     string
	RiotID    string
	Champion  string
	Role      Role
	TeamID    int
	Score     float64
	Placement int
	Tracked   bool
}

type PlacementTable struct {
	MatchID         string
	QueueID         int
	DurationSeconds int
	Remake          bool
	Rows            []PlacementRow // ordered by placement
}

type NotificationHandle struct {
	ChannelID string
	MessageID string
}

func (h NotificationHandle) IsZero() bool {
	return h.MessageID == ""
}

type SessionParticipant struct {
	AccountID  string
	PUUID      string
	RiotID     string
	ChampionID int
	TeamID     int
	JoinedAt   time.Time
}

type LiveSession struct {
	GameID        int64
	Platform      string
	QueueID       int
	GameStartTime time.Time
	Participants  []SessionParticipant
	Handle        NotificationHandle
	OpenedAt      time.Time
	UpdatedAt     time.Time
}

func (s *LiveSession) Has(puuid string) bool {
	for _, p := range s.Participants {
		if p.PUUID == puuid {
			return true
		}
	}
	return false
}

// Add appends participants not already present and returns the ones that
// were actually added.
func (s *LiveSession) Add(participants ...SessionParticipant) []SessionParticipant {
	var added []SessionParticipant
	for _, p := range participants {
		if s.Has(p.PUUID) {
			continue
		}
		s.Participants = append(s.Participants, p)
		added = append(added, p)
	}
	return added
}

func (s *LiveSession) PUUIDs() []string {
	ids := make([]string, len(s.Participants))
	for i, p := range s.Participants {
		ids[i] = p.PUUID
	}
	return ids
}

type PenaltyState struct {
	PUUID           string
	Champion        string
	Level           int // 0-3
	LastTriggeredAt time.Time
	ExpiresAt       time.Time
	UpdatedAt       time.Time
}

type PenaltyDecision struct {
	PUUID         string
	Champion      string
	MatchID       string
	Reason        string
	PreviousLevel int
	Level         int
	Duration      time.Duration
	ExpiresAt     time.Time
	Scores        []float64 // most recent first
}
