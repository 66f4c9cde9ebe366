package response

import (
	"slices"
	"time"

	"github.com/mcoot/votingroom/internal/model"
)

// Player represents a room participant in API responses
type Player struct {
	Index    int    `json:"index"`
	Username string `json:"username"`
	Claimed  bool   `json:"claimed"`
	IsYou    bool   `json:"is_you,omitempty"`
}

// Settings represents room settings
type Settings struct {
	MinPlayers          int  `json:"min_players"`
	ShowOnlyWinnerVotes bool `json:"show_only_winner_votes"`
	CreatorControls     bool `json:"creator_controls"`
}

// Tally is the number of ballots a player received
type Tally struct {
	Index    int    `json:"index"`
	Username string `json:"username"`
	Votes    int    `json:"votes"`
}

// Room is a room snapshot as seen by one caller. Individual ballots are never
// exposed; the caller only learns their own choice until the room completes.
type Room struct {
	RoomID          string    `json:"room_id"`
	State           string    `json:"state"`
	Version         int64     `json:"version"`
	CreatorUsername string    `json:"creator_username,omitempty"`
	IsCreator       bool      `json:"is_creator"`
	MatchID         int64     `json:"match_id,omitempty"`
	Settings        Settings  `json:"settings"`
	Players         []Player  `json:"players"`
	Order           []int     `json:"order,omitempty"`
	VotesCast       int       `json:"votes_cast"`
	VotedUsernames  []string  `json:"voted_usernames"`
	MyVote          *int      `json:"my_vote"`
	VoteCounts      []Tally   `json:"vote_counts,omitempty"`
	Winners         []int     `json:"winners,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	LastActivityAt  time.Time `json:"last_activity_at"`
}

// RoomFromModel converts a model.Room into the snapshot visible to viewer
func RoomFromModel(r *model.Room, viewer model.Fingerprint) Room {
	players := make([]Player, len(r.Players))
	for i, p := range r.Players {
		players[i] = Player{
			Index:    i,
			Username: p.Username,
			Claimed:  !p.IsSeat(),
			IsYou:    viewer != "" && p.Fingerprint == viewer,
		}
	}

	voted := r.VotedUsernames()
	if voted == nil {
		voted = []string{}
	}

	resp := Room{
		RoomID:          string(r.ID),
		State:           string(r.State),
		Version:         r.Version,
		CreatorUsername: r.CreatorUsername,
		IsCreator:       viewer != "" && viewer == r.CreatorFingerprint,
		MatchID:         r.Settings.MatchID,
		Settings: Settings{
			MinPlayers:          r.Settings.MinPlayers,
			ShowOnlyWinnerVotes: r.Settings.ShowOnlyWinnerVotes,
			CreatorControls:     r.Settings.CreatorControls,
		},
		Players:        players,
		Order:          r.Order,
		VotesCast:      len(r.Votes),
		VotedUsernames: voted,
		CreatedAt:      r.CreatedAt,
		LastActivityAt: r.LastActivityAt,
	}

	if vote, ok := r.Votes[viewer]; ok && viewer != "" {
		resp.MyVote = &vote
	}

	if r.State == model.RoomStateCompleted {
		resp.Winners = r.Winners()
		resp.VoteCounts = tallies(r, resp.Winners)
	}

	return resp
}

func tallies(r *model.Room, winners []int) []Tally {
	var out []Tally
	for i, c := range r.VoteCounts() {
		if !r.Settings.ShowOnlyWinnerVotes || slices.Contains(winners, i) {
			out = append(out, Tally{Index: i, Username: r.Players[i].Username, Votes: c})
		}
	}
	return out
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}
