package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	gorillaWS "github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "full":
		fullCmd(apiURL, args)
	case "status":
		statusCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Room Simulator - Development tool for testing mahjong rooms

USAGE:
  simulator <command> [options]

COMMANDS:
  full      Create a room with fake players joined and readied up
  status    Print the current state of a room
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Create a room with 3 fake players, leaving 1 seat for you
  simulator full

  # Create a room with 2 fake players
  simulator full --count=2

  # Create a room but leave the fake players un-readied
  simulator full --skip-ready

  # Inspect a room
  simulator status --room=AB12`)
}

func fullCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("full", flag.ExitOnError)
	count := fs.Int("count", 3, "Number of fake players to create (default 3, leaving 1 seat for you)")
	skipReady := fs.Bool("skip-ready", false, "Leave the fake players un-readied")
	fs.Parse(args)

	if *count < 1 || *count > 4 {
		fmt.Println("Error: --count must be between 1 and 4")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	suffix := uuid.New().String()[:6]

	host, err := client.Register(fmt.Sprintf("sim_host_%s", suffix), "simulator123")
	if err != nil {
		fatal("register host: %v", err)
	}

	room, err := client.CreateRoom(host.AccessToken)
	if err != nil {
		fatal("create room: %v", err)
	}
	fmt.Printf("Created room %s (host %s)\n", room.Code, host.User.DisplayName)

	tokens := []string{}
	for i := 1; i < *count; i++ {
		guest, err := client.Register(fmt.Sprintf("sim_guest%d_%s", i, suffix), "simulator123")
		if err != nil {
			fatal("register guest %d: %v", i, err)
		}
		if _, err := client.JoinRoom(guest.AccessToken, room.Code); err != nil {
			fatal("join room as %s: %v", guest.User.DisplayName, err)
		}
		fmt.Printf("Joined %s\n", guest.User.DisplayName)
		tokens = append(tokens, guest.AccessToken)
	}

	if !*skipReady {
		// Disconnecting marks a player offline, so the fake players'
		// sockets stay open until the simulator exits.
		conns := make([]*gorillaWS.Conn, 0, len(tokens))
		for i, token := range tokens {
			conn, err := readyOverWebsocket(apiURL, token, room.Code)
			if err != nil {
				fatal("ready guest %d: %v", i+1, err)
			}
			defer conn.Close()
			conns = append(conns, conn)
		}
		fmt.Printf("Readied %d fake players\n", len(conns))

		fmt.Printf("\nRoom %s is ready. Join it and start the game as the host:\n", room.Code)
		fmt.Printf("  host token: %s\n", host.AccessToken)
		fmt.Println("\nPress Ctrl-C to disconnect the fake players.")

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		return
	}

	fmt.Printf("\nRoom %s is waiting. Join it as the host:\n", room.Code)
	fmt.Printf("  host token: %s\n", host.AccessToken)
}

func statusCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	code := fs.String("room", "", "Room code")
	fs.Parse(args)

	if *code == "" {
		fmt.Println("Error: --room is required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	suffix := uuid.New().String()[:6]

	viewer, err := client.Register(fmt.Sprintf("sim_viewer_%s", suffix), "simulator123")
	if err != nil {
		fatal("register viewer: %v", err)
	}

	room, err := client.GetRoom(viewer.AccessToken, *code)
	if err != nil {
		fatal("get room: %v", err)
	}

	fmt.Printf("Room %s  phase=%s round=%d\n", room.Code, room.Game.Phase, room.Game.Round)
	for _, p := range room.Players {
		role := ""
		if p.IsHost {
			role = " (host)"
		}
		fmt.Printf("  %-20s%s ready=%v online=%v\n", p.DisplayName, role, p.IsReady, p.IsOnline)
	}
}

// readyOverWebsocket attaches the player and sends TOGGLE_READY. The caller
// owns the returned connection.
func readyOverWebsocket(apiURL, token, code string) (*gorillaWS.Conn, error) {
	wsURL := "ws" + apiURL[4:] + "/api/v1/ws?token=" + token

	conn, _, err := gorillaWS.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return nil, err
	}

	send := func(msgType string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		msg := map[string]interface{}{
			"type":      msgType,
			"payload":   json.RawMessage(data),
			"timestamp": time.Now().UnixMilli(),
		}
		return conn.WriteJSON(msg)
	}

	if err := send("JOIN_ROOM", map[string]string{"code": code}); err != nil {
		conn.Close()
		return nil, err
	}
	if err := send("TOGGLE_READY", struct{}{}); err != nil {
		conn.Close()
		return nil, err
	}

	// Drain server broadcasts so the connection does not back up.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return conn, nil
}

func fatal(format string, args ...interface{}) {
	fmt.Printf("Error: "+format+"\n", args...)
	os.Exit(1)
}
