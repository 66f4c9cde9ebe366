package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room operations",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomStartCmd())
	cmd.AddCommand(newRoomVoteCmd())
	cmd.AddCommand(newRoomResetCmd())
	cmd.AddCommand(newRoomOrderCmd())

	return cmd
}

func roomPath(id string, action string) string {
	p := "/api/rooms/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

// versionHeaders turns --if-version into the precondition header
func versionHeaders(cmd *cobra.Command) []string {
	if !cmd.Flags().Changed("if-version") {
		return nil
	}
	v, _ := cmd.Flags().GetInt64("if-version")
	return []string{"X-Room-Version", strconv.FormatInt(v, 10)}
}

func addIfVersionFlag(cmd *cobra.Command) {
	cmd.Flags().Int64("if-version", 0, "Fail with VERSION_CONFLICT unless the room is at this version")
}

func printRoom(cmd *cobra.Command, room Room) {
	NewOutput(cfg.Output, cmd.OutOrStdout()).Print(room)
}

func newRoomCreateCmd() *cobra.Command {
	var (
		roomID          string
		username        string
		players         []string
		minPlayers      int
		showAllVotes    bool
		creatorControls bool
		matchID         int64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"room_id":          roomID,
				"creator_username": username,
				"players":          players,
				"min_players":      minPlayers,
				"creator_controls": creatorControls,
				"match_id":         matchID,
			}
			if cmd.Flags().Changed("show-all-votes") {
				body["show_only_winner_votes"] = !showAllVotes
			}

			var room Room
			if err := client.Post(cmd.Context(), "/api/rooms", body, &room); err != nil {
				return err
			}

			printRoom(cmd, room)
			return nil
		},
	}

	cmd.Flags().StringVar(&roomID, "id", "", "Room id (generated when empty)")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Your display name")
	cmd.Flags().StringSliceVarP(&players, "players", "p", nil, "Seat names to pre-register, in order")
	cmd.Flags().IntVar(&minPlayers, "min-players", 0, "Players required before voting can start")
	cmd.Flags().BoolVar(&showAllVotes, "show-all-votes", false, "Reveal every player's tally on completion")
	cmd.Flags().BoolVar(&creatorControls, "creator-controls", false, "Only the creator may start, reset, or order")
	cmd.Flags().Int64Var(&matchID, "match-id", 0, "Match this room belongs to")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <room-id>",
		Short: "Show a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var room Room
			if err := client.Get(cmd.Context(), roomPath(args[0], ""), &room); err != nil {
				return err
			}

			printRoom(cmd, room)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "join <room-id>",
		Short: "Join a room or change your name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"username": username}

			var room Room
			if err := client.Post(cmd.Context(), roomPath(args[0], "join"), body, &room, versionHeaders(cmd)...); err != nil {
				return err
			}

			printRoom(cmd, room)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Your display name")
	addIfVersionFlag(cmd)

	return cmd
}

func newRoomVoteCmd() *cobra.Command {
	var username string

	cmd := &cobra.Command{
		Use:   "vote <room-id> <player-index>",
		Short: "Vote for a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid player index %q: %w", args[1], err)
			}

			body := map[string]any{"player_index": idx}
			if username != "" {
				body["username"] = username
			}

			var room Room
			if err := client.Post(cmd.Context(), roomPath(args[0], "vote"), body, &room, versionHeaders(cmd)...); err != nil {
				return err
			}

			printRoom(cmd, room)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Your display name, if not yet registered")
	addIfVersionFlag(cmd)

	return cmd
}

// newRoomActionCmd builds a body-less room mutation
func newRoomActionCmd(use, short, action string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <room-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var room Room
			if err := client.Post(cmd.Context(), roomPath(args[0], action), nil, &room, versionHeaders(cmd)...); err != nil {
				return err
			}

			printRoom(cmd, room)
			return nil
		},
	}

	addIfVersionFlag(cmd)
	return cmd
}

func newRoomStartCmd() *cobra.Command {
	return newRoomActionCmd("start", "Start voting", "start")
}

func newRoomResetCmd() *cobra.Command {
	return newRoomActionCmd("reset", "Discard all votes and vote again", "reset")
}

func newRoomOrderCmd() *cobra.Command {
	return newRoomActionCmd("order", "Generate a new player order", "generate-order")
}
