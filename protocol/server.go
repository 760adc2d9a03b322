package protocol

import (
	"encoding/json"

	"github.com/Dosada05/pong-arena/models"
)

// ServerMessage is the closed set of server→client events.
type ServerMessage interface {
	Event() string
	isServerMessage()
}

type Init struct {
	GuestName string         `json:"guestName"`
	Profile   models.Profile `json:"profile"`
}

type Ack struct {
	ID      int64  `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type JoinedGame struct {
	PlayerIndex int            `json:"playerIndex"`
	RoomID      string         `json:"roomId"`
	Opponent    models.Profile `json:"opponent"`
}

// Game info types.
const (
	GameStart        = "game-start"
	GameLeftScore    = "update-left-score"
	GameRightScore   = "update-right-score"
	GameOpponentMove = "opponent-input"
	GameForfeit      = "forfeit"
	GameEnd          = "end"
)

type GameInfos struct {
	Type    string          `json:"type"`
	Score   int             `json:"score,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Result  *GameResult     `json:"result,omitempty"`
}

type GameResult struct {
	Winner     models.Winner `json:"winner"`
	Forfeit    bool          `json:"forfeit"`
	ScoreLeft  int           `json:"scoreLeft"`
	ScoreRight int           `json:"scoreRight"`
	DurationMS int64         `json:"duration"`
}

// Tournament event types.
const (
	TournamentParticipants    = "participants"
	TournamentCancelled       = "cancelled"
	TournamentKicked          = "kicked"
	TournamentBanned          = "banned"
	TournamentWaitingReady    = "waiting-ready"
	TournamentReadyTimeout    = "ready-timeout"
	TournamentQualification   = "qualification-matches"
	TournamentQualifiedEnd    = "qualifications-end"
	TournamentNewMatches      = "new-matches"
	TournamentRoundWinners    = "round-winners"
	TournamentShowNextRound   = "show-next-round"
	TournamentParticipantLose = "participant-lose"
	TournamentEnd             = "tournament-end"
)

type TournamentEvent struct {
	Type            string           `json:"type"`
	TournamentID    string           `json:"tournamentId"`
	Participants    []models.Profile `json:"participants,omitempty"`
	Matches         []MatchPair      `json:"matches,omitempty"`
	Winners         []string         `json:"winners,omitempty"`
	Winner          string           `json:"winner,omitempty"`
	Participant     string           `json:"participant,omitempty"`
	Round           int              `json:"round,omitempty"`
	Qualification   bool             `json:"qualification,omitempty"`
	RoundMatchCount int              `json:"roundMatchCount,omitempty"`
}

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type RoomClosed struct {
	RoomID string `json:"roomId"`
}

type UserStatusChange struct {
	UserID int               `json:"userId"`
	Status models.UserStatus `json:"status"`
}

func (Init) Event() string             { return "init" }
func (Ack) Event() string              { return "ack" }
func (JoinedGame) Event() string       { return "joined-game" }
func (GameInfos) Event() string        { return "game-infos" }
func (TournamentEvent) Event() string  { return "tournament-event" }
func (RoomClosed) Event() string       { return "room-closed" }
func (UserStatusChange) Event() string { return "user-status-change" }

func (Init) isServerMessage()             {}
func (Ack) isServerMessage()              {}
func (JoinedGame) isServerMessage()       {}
func (GameInfos) isServerMessage()        {}
func (TournamentEvent) isServerMessage()  {}
func (RoomClosed) isServerMessage()       {}
func (UserStatusChange) isServerMessage() {}

type outbound struct {
	Event string        `json:"event"`
	Data  ServerMessage `json:"data"`
}

// Encode renders a server message as a websocket text frame.
func Encode(msg ServerMessage) ([]byte, error) {
	return json.Marshal(outbound{Event: msg.Event(), Data: msg})
}
