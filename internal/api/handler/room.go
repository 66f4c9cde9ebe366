package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/votingroom/internal/api/apierr"
	"github.com/mcoot/votingroom/internal/api/events"
	"github.com/mcoot/votingroom/internal/api/middleware"
	"github.com/mcoot/votingroom/internal/api/request"
	"github.com/mcoot/votingroom/internal/api/response"
	"github.com/mcoot/votingroom/internal/model"
	"github.com/mcoot/votingroom/internal/services/room"
)

// VersionHeader carries the room version on responses and, optionally, the
// expected version on mutating requests
const VersionHeader = "X-Room-Version"

// RoomHandler handles room endpoints
type RoomHandler struct {
	controller *room.Controller
	hubs       *events.HubManager
}

// NewRoomHandler creates a new room handler. hubs may be nil, which disables
// the event stream endpoint.
func NewRoomHandler(controller *room.Controller, hubs *events.HubManager) *RoomHandler {
	return &RoomHandler{controller: controller, hubs: hubs}
}

// Create handles POST /api/rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	settings := model.DefaultRoomSettings()
	settings.MinPlayers = req.MinPlayers
	settings.CreatorControls = req.CreatorControls
	settings.MatchID = req.MatchID
	if req.ShowOnlyWinnerVotes != nil {
		settings.ShowOnlyWinnerVotes = *req.ShowOnlyWinnerVotes
	}

	fp := middleware.GetFingerprint(r.Context())
	rm, err := h.controller.CreateRoom(r.Context(), room.CreateParams{
		RoomID:             model.RoomID(req.RoomID),
		CreatorFingerprint: fp,
		CreatorUsername:    req.CreatorUsername,
		Players:            req.Players,
		Settings:           settings,
	})
	if err != nil {
		WriteError(w, err)
		return
	}

	writeRoom(w, http.StatusCreated, rm, fp)
}

// Get handles GET /api/rooms/{id}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	rm, err := h.controller.GetRoom(r.Context(), roomID(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	writeRoom(w, http.StatusOK, rm, middleware.GetFingerprint(r.Context()))
}

// Join handles POST /api/rooms/{id}/join
func (h *RoomHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinRoomRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	h.mutate(w, r, func(fp model.Fingerprint, opts []room.Option) (*model.Room, error) {
		return h.controller.JoinRoom(r.Context(), roomID(r), fp, req.Username, opts...)
	})
}

// Start handles POST /api/rooms/{id}/start
func (h *RoomHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(fp model.Fingerprint, opts []room.Option) (*model.Room, error) {
		return h.controller.StartVoting(r.Context(), roomID(r), fp, opts...)
	})
}

// Vote handles POST /api/rooms/{id}/vote
func (h *RoomHandler) Vote(w http.ResponseWriter, r *http.Request) {
	var req request.VoteRequest
	if err := decode(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if req.PlayerIndex == nil {
		WriteError(w, NewValidationError("player_index is required"))
		return
	}

	h.mutate(w, r, func(fp model.Fingerprint, opts []room.Option) (*model.Room, error) {
		result, err := h.controller.Vote(r.Context(), roomID(r), fp, *req.PlayerIndex, req.Username, opts...)
		if err != nil {
			return nil, err
		}
		return result.Room, nil
	})
}

// Reset handles POST /api/rooms/{id}/reset
func (h *RoomHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(fp model.Fingerprint, opts []room.Option) (*model.Room, error) {
		return h.controller.ResetVoting(r.Context(), roomID(r), fp, opts...)
	})
}

// GenerateOrder handles POST /api/rooms/{id}/generate-order
func (h *RoomHandler) GenerateOrder(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, func(fp model.Fingerprint, opts []room.Option) (*model.Room, error) {
		return h.controller.GeneratePlayerOrder(r.Context(), roomID(r), fp, opts...)
	})
}

// Events handles GET /api/rooms/{id}/events. The stream opens with the
// current version and then sends one room-updated event per committed change.
func (h *RoomHandler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hubs == nil {
		WriteError(w, apierr.NewUnavailableError("event streams are disabled"))
		return
	}

	// Subscribe before reading so no change between the two is missed
	client := h.hubs.Subscribe(roomID(r), r.RemoteAddr)
	if client == nil {
		WriteError(w, apierr.NewUnavailableError("server is shutting down"))
		return
	}

	rm, err := h.controller.GetRoom(r.Context(), roomID(r))
	if err != nil {
		client.Close()
		WriteError(w, err)
		return
	}

	events.Serve(w, r, client, rm)
}

// Health handles GET /api/health
func (h *RoomHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok", Rooms: h.controller.RoomCount()})
}

func (h *RoomHandler) mutate(w http.ResponseWriter, r *http.Request, op func(model.Fingerprint, []room.Option) (*model.Room, error)) {
	var opts []room.Option
	if v := r.Header.Get(VersionHeader); v != "" {
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			WriteError(w, NewValidationError("X-Room-Version must be an integer"))
			return
		}
		opts = append(opts, room.IfVersion(version))
	}

	fp := middleware.GetFingerprint(r.Context())
	rm, err := op(fp, opts)
	if err != nil {
		WriteError(w, err)
		return
	}

	writeRoom(w, http.StatusOK, rm, fp)
}

func writeRoom(w http.ResponseWriter, status int, rm *model.Room, viewer model.Fingerprint) {
	w.Header().Set(VersionHeader, strconv.FormatInt(rm.Version, 10))
	response.JSON(w, status, response.RoomFromModel(rm, viewer))
}

func roomID(r *http.Request) model.RoomID {
	return model.RoomID(mux.Vars(r)["id"])
}

// decode reads a JSON body into dst. An empty body leaves dst unchanged.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return NewValidationError("Request body must be valid JSON")
	}
	return nil
}
