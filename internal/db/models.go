package db

import (
	"database/sql"
	"time"
)

type TrackedAccount struct {
	ID        string
	OwnerID   string
	Platform  string
	Puuid     string
	GameName  string
	TagLine   string
	CreatedAt time.Time
}

type MatchStat struct {
	Puuid           string
	MatchID         string
	Champion        string
	ChampionID      int64
	Role            string
	Score           float64
	Placement       int64
	Kills           int64
	Deaths          int64
	Assists         int64
	Damage          int64
	Gold            int64
	Farm            int64
	Vision          int64
	Win             bool
	Remake          bool
	DurationSeconds int64
	QueueID         int64
	PlayedAt        time.Time
	CreatedAt       time.Time
}

type LiveSession struct {
	GameID        int64
	Platform      string
	QueueID       int64
	GameStartTime time.Time
	ChannelID     string
	MessageID     string
	OpenedAt      time.Time
	UpdatedAt     time.Time
}

type LiveSessionParticipant struct {
	GameID     int64
	Puuid      string
	AccountID  string
	RiotID     string
	ChampionID int64
	TeamID     int64
	JoinedAt   time.Time
}

type PenaltyState struct {
	Puuid           string
	Champion        string
	Level           int64
	LastTriggeredAt time.Time
	ExpiresAt       time.Time
	UpdatedAt       time.Time
}

type PenaltyEvent struct {
	ID            string
	Puuid         string
	Champion      string
	MatchID       string
	Reason        string
	PreviousLevel int64
	Level         int64
	ExpiresAt     time.Time
	CreatedAt     time.Time
}

type PredictionPoll struct {
	GameID   int64
	State    string
	OpenedAt time.Time
	ClosedAt sql.NullTime
}

type PredictionVote struct {
	ID      string
	GameID  int64
	UserID  string
	Option  string
	VotedAt time.Time
}
