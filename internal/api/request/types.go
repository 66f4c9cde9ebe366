package request

// CreateRoomRequest is the request body for creating a room
type CreateRoomRequest struct {
	RoomID              string   `json:"room_id,omitempty"`
	CreatorUsername     string   `json:"creator_username,omitempty"`
	Players             []string `json:"players,omitempty"`
	MinPlayers          int      `json:"min_players,omitempty"`
	ShowOnlyWinnerVotes *bool    `json:"show_only_winner_votes,omitempty"`
	CreatorControls     bool     `json:"creator_controls,omitempty"`
	MatchID             int64    `json:"match_id,omitempty"`
}

// JoinRoomRequest is the request body for joining a room
type JoinRoomRequest struct {
	Username string `json:"username"`
}

// VoteRequest is the request body for casting a ballot
type VoteRequest struct {
	PlayerIndex *int   `json:"player_index"`
	Username    string `json:"username,omitempty"`
}
