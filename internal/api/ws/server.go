package ws

import (
	"net/http"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/melodeck/internal/app/notify"
	"github.com/osa030/melodeck/internal/app/playback"
	"github.com/osa030/melodeck/internal/library"
)

// Errors
var (
	ErrUnknownAction = errors.New("unknown action")
)

// Server serves the UI websocket endpoint. Each connection receives an
// initial state frame, then every published snapshot, and may send
// commands that resolve to coordinator or library calls.
type Server struct {
	coordinator *playback.Coordinator
	lib         *library.Library
	notifier    *notify.Notifier
	upgrader    websocket.Upgrader
}

// NewServer creates a websocket server around the given player.
func NewServer(coordinator *playback.Coordinator, lib *library.Library, notifier *notify.Notifier) *Server {
	return &Server{
		coordinator: coordinator,
		lib:         lib,
		notifier:    notifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Local UI only; the listener binds to loopback.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Msgf("ws: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	subID, snapshots := s.notifier.Subscribe()
	zlog.Debug().Msgf("ws: client connected sub=%s", subID)

	// Writer mutex: the snapshot pump and command replies share the
	// connection.
	var writeMu sync.Mutex
	write := func(m Message) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(m)
	}

	if err := write(newStateMessage(s.coordinator.Snapshot())); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for snap := range snapshots {
			if err := write(newStateMessage(snap)); err != nil {
				return
			}
		}
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			zlog.Debug().Msgf("ws: client disconnected sub=%s: %v", subID, err)
			break
		}

		reply, err := s.dispatch(cmd)
		if err != nil {
			zlog.Debug().Msgf("ws: command %q failed: %v", cmd.Action, err)
			if werr := write(newErrorMessage(err)); werr != nil {
				break
			}
			continue
		}
		if reply != nil {
			if werr := write(*reply); werr != nil {
				break
			}
		}
	}

	// Closing the subscription ends the snapshot pump.
	s.notifier.Unsubscribe(subID)
	<-done
}

// dispatch resolves a command to an engine, coordinator or library call.
// Most commands have no direct reply; their effect arrives as the next
// broadcast state frame.
func (s *Server) dispatch(cmd Command) (*Message, error) {
	switch cmd.Action {
	case "play":
		s.coordinator.Play()
	case "pause":
		s.coordinator.Pause()
	case "toggle":
		s.coordinator.TogglePlay()
	case "next":
		s.coordinator.Next()
	case "previous":
		s.coordinator.Previous()
	case "play_index":
		return nil, s.coordinator.PlayIndex(cmd.Index)
	case "play_tracks":
		tracks := s.lib.GetMany(cmd.TrackIDs)
		s.coordinator.PlayTracks(tracks, cmd.StartIndex)
	case "enqueue":
		t, err := s.lib.Get(cmd.TrackID)
		if err != nil {
			return nil, err
		}
		s.coordinator.Enqueue(t)
	case "remove":
		return nil, s.coordinator.RemoveAt(cmd.Index)
	case "reorder":
		return nil, s.coordinator.Reorder(cmd.From, cmd.To)
	case "clear":
		s.coordinator.Clear()
	case "shuffle":
		s.coordinator.ToggleShuffle()
	case "loop":
		s.coordinator.CycleLoop()
	case "seek":
		s.coordinator.Seek(cmd.Fraction)
	case "volume":
		s.coordinator.SetVolume(cmd.Volume)
	case "mute":
		s.coordinator.ToggleMute()
	case "favorite":
		if _, err := s.lib.ToggleFavorite(cmd.TrackID); err != nil {
			return nil, err
		}
	case "queue":
		m := newTracksMessage(s.coordinator.QueueTracks())
		return &m, nil
	case "library":
		m := newTracksMessage(s.lib.All())
		return &m, nil
	case "search":
		m := newTracksMessage(s.lib.Search(cmd.Query))
		return &m, nil
	case "favorites":
		m := newTracksMessage(s.lib.Favorites())
		return &m, nil
	default:
		return nil, errors.Wrapf(ErrUnknownAction, "%q", cmd.Action)
	}
	return nil, nil
}
