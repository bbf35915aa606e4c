// Package main provides a command line remote for a running player.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/osa030/melodeck/internal/api/ws"
)

var (
	app    = kingpin.New("melodeck-ctl", "melodeck player remote control")
	server = app.Flag("server", "Player websocket address").Default("ws://127.0.0.1:8707/ws").String()

	statusCmd = app.Command("status", "Show the current playback state")

	playCmd   = app.Command("play", "Start or resume playback")
	pauseCmd  = app.Command("pause", "Pause playback")
	toggleCmd = app.Command("toggle", "Toggle play/pause")
	nextCmd   = app.Command("next", "Skip to the next track")
	prevCmd   = app.Command("prev", "Go back to the previous track")

	seekCmd      = app.Command("seek", "Seek within the current track")
	seekFraction = seekCmd.Arg("fraction", "Position as a fraction 0.0-1.0").Required().Float64()

	volumeCmd = app.Command("volume", "Set the volume")
	volumePct = volumeCmd.Arg("percent", "Volume percentage 0-100").Required().Int()

	muteCmd    = app.Command("mute", "Toggle mute")
	shuffleCmd = app.Command("shuffle", "Toggle shuffle mode")
	loopCmd    = app.Command("loop", "Cycle the loop mode")

	queueCmd = app.Command("queue", "List the playback queue")

	searchCmd   = app.Command("search", "Search the library")
	searchQuery = searchCmd.Arg("query", "Search text").Required().String()

	watchCmd = app.Command("watch", "Stream state changes until interrupted")
)

func main() {
	_ = godotenv.Load()
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	conn, resp, err := websocket.DefaultDialer.Dial(*server, nil)
	if err != nil {
		fmt.Printf("Error: cannot reach player at %s: %v\n", *server, err)
		os.Exit(1)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Every connection opens with the current state.
	initial := readState(conn)

	switch command {
	case statusCmd.FullCommand():
		printState(initial)
	case playCmd.FullCommand():
		send(conn, ws.Command{Action: "play"})
	case pauseCmd.FullCommand():
		send(conn, ws.Command{Action: "pause"})
	case toggleCmd.FullCommand():
		send(conn, ws.Command{Action: "toggle"})
	case nextCmd.FullCommand():
		send(conn, ws.Command{Action: "next"})
	case prevCmd.FullCommand():
		send(conn, ws.Command{Action: "previous"})
	case seekCmd.FullCommand():
		send(conn, ws.Command{Action: "seek", Fraction: *seekFraction})
	case volumeCmd.FullCommand():
		send(conn, ws.Command{Action: "volume", Volume: *volumePct})
	case muteCmd.FullCommand():
		send(conn, ws.Command{Action: "mute"})
	case shuffleCmd.FullCommand():
		send(conn, ws.Command{Action: "shuffle"})
	case loopCmd.FullCommand():
		send(conn, ws.Command{Action: "loop"})
	case queueCmd.FullCommand():
		printTracks(request(conn, ws.Command{Action: "queue"}), initial.QueueIndex)
	case searchCmd.FullCommand():
		printTracks(request(conn, ws.Command{Action: "search", Query: *searchQuery}), -1)
	case watchCmd.FullCommand():
		printState(initial)
		watch(conn)
	}
}

// send fires a command and waits for the state frame that reflects it,
// so the terminal shows the outcome.
func send(conn *websocket.Conn, cmd ws.Command) {
	if err := conn.WriteJSON(cmd); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	printState(readState(conn))
}

// request fires a query command and returns its tracks reply.
func request(conn *websocket.Conn, cmd ws.Command) []ws.TrackPayload {
	if err := conn.WriteJSON(cmd); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	for {
		m := readMessage(conn)
		switch m.Type {
		case "tracks":
			return m.Tracks
		case "error":
			fmt.Printf("Error: %s\n", m.Error)
			os.Exit(1)
		}
	}
}

func watch(conn *websocket.Conn) {
	for {
		m := readMessage(conn)
		if m.Type == "state" && m.State != nil {
			printState(m.State)
		}
	}
}

func readMessage(conn *websocket.Conn) ws.Message {
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	var m ws.Message
	if err := conn.ReadJSON(&m); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	return m
}

func readState(conn *websocket.Conn) *ws.StatePayload {
	for {
		m := readMessage(conn)
		if m.Type == "state" && m.State != nil {
			return m.State
		}
		if m.Type == "error" {
			fmt.Printf("Error: %s\n", m.Error)
			os.Exit(1)
		}
	}
}

func printState(s *ws.StatePayload) {
	fmt.Printf("State:   %s\n", s.State)
	if s.Track != nil {
		fmt.Printf("Track:   %s - %s\n", strings.Join(s.Track.Artists, ", "), s.Track.Title)
		fmt.Printf("Time:    %s / %s\n", formatMs(s.PositionMs), formatMs(s.DurationMs))
	}
	fmt.Printf("Queue:   %d/%d\n", s.QueueIndex+1, s.QueueLength)
	fmt.Printf("Volume:  %d%%%s\n", s.Volume, muteSuffix(s.Muted))
	fmt.Printf("Modes:   shuffle=%v loop=%s\n", s.Shuffle, s.Loop)
}

func printTracks(tracks []ws.TrackPayload, currentIndex int) {
	if len(tracks) == 0 {
		fmt.Println("(empty)")
		return
	}
	for i, t := range tracks {
		marker := "  "
		if i == currentIndex {
			marker = "> "
		}
		fmt.Printf("%s%3d. %s - %s (%s)\n", marker, i+1,
			strings.Join(t.Artists, ", "), t.Title, formatMs(t.DurationMs))
	}
}

func muteSuffix(muted bool) string {
	if muted {
		return " (muted)"
	}
	return ""
}

func formatMs(ms int64) string {
	if ms <= 0 {
		return "-:--"
	}
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
