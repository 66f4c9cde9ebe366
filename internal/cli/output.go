package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Room:
		o.printRoom(v)
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
		o.printf("Rooms: %d\n", v.Rooms)
	default:
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	Index    int    `json:"index"`
	Username string `json:"username"`
	Claimed  bool   `json:"claimed"`
	IsYou    bool   `json:"is_you,omitempty"`
}

// Tally response type
type Tally struct {
	Index    int    `json:"index"`
	Username string `json:"username"`
	Votes    int    `json:"votes"`
}

// RoomSettings response type
type RoomSettings struct {
	MinPlayers          int  `json:"min_players"`
	ShowOnlyWinnerVotes bool `json:"show_only_winner_votes"`
	CreatorControls     bool `json:"creator_controls"`
}

// Room response type
type Room struct {
	RoomID          string       `json:"room_id"`
	State           string       `json:"state"`
	Version         int64        `json:"version"`
	CreatorUsername string       `json:"creator_username,omitempty"`
	IsCreator       bool         `json:"is_creator"`
	MatchID         int64        `json:"match_id,omitempty"`
	Settings        RoomSettings `json:"settings"`
	Players         []Player     `json:"players"`
	Order           []int        `json:"order,omitempty"`
	VotesCast       int          `json:"votes_cast"`
	VotedUsernames  []string     `json:"voted_usernames"`
	MyVote          *int         `json:"my_vote"`
	VoteCounts      []Tally      `json:"vote_counts,omitempty"`
	Winners         []int        `json:"winners,omitempty"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
	Rooms  int    `json:"rooms"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printRoom(r Room) {
	o.printf("Room: %s\n", r.RoomID)
	o.printf("State: %s (version %d)\n", r.State, r.Version)
	if r.CreatorUsername != "" {
		creator := r.CreatorUsername
		if r.IsCreator {
			creator += " [you]"
		}
		o.printf("Creator: %s\n", creator)
	}

	o.printf("Players (%d):\n", len(r.Players))
	for _, p := range r.Players {
		tags := ""
		if !p.Claimed {
			tags += " [seat]"
		}
		if p.IsYou {
			tags += " [you]"
		}
		o.printf("  %d. %s%s\n", p.Index, p.Username, tags)
	}

	if len(r.Order) > 0 {
		names := make([]string, 0, len(r.Order))
		for _, idx := range r.Order {
			if idx >= 0 && idx < len(r.Players) {
				names = append(names, r.Players[idx].Username)
			}
		}
		o.printf("Order: %s\n", strings.Join(names, " -> "))
	}

	if r.State == "voting" {
		o.printf("Votes: %d/%d\n", r.VotesCast, len(r.Players))
		if len(r.VotedUsernames) > 0 {
			o.printf("Voted: %s\n", strings.Join(r.VotedUsernames, ", "))
		}
	}
	if r.MyVote != nil && *r.MyVote < len(r.Players) {
		o.printf("Your vote: %s\n", r.Players[*r.MyVote].Username)
	}

	if len(r.VoteCounts) > 0 {
		o.printf("Results:\n")
		for _, t := range r.VoteCounts {
			o.printf("  %s: %d\n", t.Username, t.Votes)
		}
	}
	if len(r.Winners) > 0 {
		names := make([]string, 0, len(r.Winners))
		for _, idx := range r.Winners {
			names = append(names, r.Players[idx].Username)
		}
		o.printf("Winner: %s\n", strings.Join(names, ", "))
	}
}
