package model

import (
	"maps"
	"regexp"
	"slices"
	"time"
)

// RoomID uniquely identifies a room and is the external key for all room operations
type RoomID string

// Fingerprint is the opaque per-browser identity sent in X-User-Fingerprint
type Fingerprint string

// RoomState represents the current phase of a room
type RoomState string

const (
	RoomStateCreated   RoomState = "created"   // Players may join, voting not started
	RoomStateVoting    RoomState = "voting"    // Ballots are being collected
	RoomStateCompleted RoomState = "completed" // Every player has voted
)

var roomIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidRoomID reports whether id can be used as a caller-chosen room id
func ValidRoomID(id RoomID) bool {
	return roomIDPattern.MatchString(string(id))
}

// Participant is a room member. A participant with an empty Fingerprint is a
// seat seeded at creation that nobody has claimed yet.
type Participant struct {
	Fingerprint Fingerprint
	Username    string
	JoinedAt    time.Time
}

// IsSeat returns true if nobody has claimed this participant slot
func (p Participant) IsSeat() bool {
	return p.Fingerprint == ""
}

// RoomSettings holds per-room options chosen at creation
type RoomSettings struct {
	MinPlayers          int   // Minimum players required to start voting
	ShowOnlyWinnerVotes bool  // Hide counts of non-winning players in results
	CreatorControls     bool  // Restrict start/reset/order to the creator
	MatchID             int64 // Opaque label carried for clients
}

// DefaultRoomSettings returns the default room settings
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		MinPlayers:          1,
		ShowOnlyWinnerVotes: true,
	}
}

// Room is the aggregate root for one voting session
type Room struct {
	ID       RoomID
	State    RoomState
	Settings RoomSettings

	CreatorFingerprint Fingerprint
	CreatorUsername    string

	// Players in join order, unique by fingerprint
	Players []Participant

	// Ballots: voter fingerprint -> index into Players
	Votes map[Fingerprint]int

	// Last generated order (indices into Players), nil until generated
	Order      []int
	OrderRound int // Number of orders generated so far

	Version        int64
	CreatedAt      time.Time
	LastActivityAt time.Time
}

// RegisterResult describes how registerOrGet resolved a fingerprint
type RegisterResult int

const (
	RegisterExisting    RegisterResult = iota // Fingerprint was already a player
	RegisterClaimedSeat                       // Fingerprint took over an unclaimed seat
	RegisterAppended                          // Fingerprint was added as a new player
)

// PlayerIndex returns the index of the player with the given fingerprint, or -1
func (r *Room) PlayerIndex(fp Fingerprint) int {
	if fp == "" {
		return -1
	}
	for i := range r.Players {
		if r.Players[i].Fingerprint == fp {
			return i
		}
	}
	return -1
}

// RegisterOrGet resolves fp to a player index, claiming the first open seat or
// appending a new participant when fp has not been seen by this room.
func (r *Room) RegisterOrGet(fp Fingerprint, username string, now time.Time) (int, RegisterResult) {
	if idx := r.PlayerIndex(fp); idx >= 0 {
		return idx, RegisterExisting
	}

	for i := range r.Players {
		if r.Players[i].IsSeat() {
			r.Players[i].Fingerprint = fp
			r.Players[i].JoinedAt = now
			if username != "" {
				r.Players[i].Username = username
			}
			return i, RegisterClaimedSeat
		}
	}

	r.Players = append(r.Players, Participant{
		Fingerprint: fp,
		Username:    username,
		JoinedAt:    now,
	})
	return len(r.Players) - 1, RegisterAppended
}

// ValidPlayerIndex returns true if idx refers to a current player
func (r *Room) ValidPlayerIndex(idx int) bool {
	return idx >= 0 && idx < len(r.Players)
}

// AllVoted returns true if the number of distinct voters equals the number of players
func (r *Room) AllVoted() bool {
	return len(r.Players) > 0 && len(r.Votes) == len(r.Players)
}

// VoteCounts returns the number of ballots cast for each player index
func (r *Room) VoteCounts() []int {
	counts := make([]int, len(r.Players))
	for _, idx := range r.Votes {
		if idx >= 0 && idx < len(counts) {
			counts[idx]++
		}
	}
	return counts
}

// Winners returns the player indices sharing the highest vote count.
// Returns nil when no ballots have been cast.
func (r *Room) Winners() []int {
	counts := r.VoteCounts()
	best := 0
	for _, c := range counts {
		best = max(best, c)
	}
	if best == 0 {
		return nil
	}
	var winners []int
	for i, c := range counts {
		if c == best {
			winners = append(winners, i)
		}
	}
	return winners
}

// VotedUsernames returns the display names of players who have cast a ballot, in join order
func (r *Room) VotedUsernames() []string {
	var names []string
	for _, p := range r.Players {
		if p.IsSeat() {
			continue
		}
		if _, ok := r.Votes[p.Fingerprint]; ok && p.Username != "" {
			names = append(names, p.Username)
		}
	}
	return names
}

// Clone returns a deep copy of the room
func (r *Room) Clone() *Room {
	c := *r
	c.Players = slices.Clone(r.Players)
	c.Votes = maps.Clone(r.Votes)
	if c.Votes == nil {
		c.Votes = make(map[Fingerprint]int)
	}
	c.Order = slices.Clone(r.Order)
	return &c
}
