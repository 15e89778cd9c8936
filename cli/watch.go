package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/pokr/internal/protocol"
)

var watchCmd = &cobra.Command{
	Use:   "watch [CODE...]",
	Short: "Stream live events of one or more sessions",
	Long:  `watch connects to the WebSocket endpoint, joins the event group of every CODE given and prints each event as it arrives. Type /join CODE or /leave CODE to change the watched sessions, /quit to exit.`,
	RunE:  runWatch,
}

var watchAddr string

func init() {
	watchCmd.Flags().StringVar(&watchAddr, "addr", "", "WebSocket address (defaults to the /ws endpoint of --server)")
	rootCmd.AddCommand(watchCmd)
}

// Client represents a WebSocket client.
type Client struct {
	conn *websocket.Conn
	out  io.Writer
	done chan struct{}
}

// NewClient creates a new client and connects to the server.
func NewClient(addr string, out io.Writer) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &Client{
		conn: conn,
		out:  out,
		done: make(chan struct{}),
	}, nil
}

// Close closes the client connection.
func (c *Client) Close() error {
	close(c.done)
	return c.conn.Close()
}

// Join asks to receive the events of a session.
func (c *Client) Join(code string) error {
	return c.conn.WriteJSON(protocol.SessionGroupMessage{
		BaseMessage: protocol.NewBase(protocol.TypeJoinSessionGroup, strings.ToUpper(code)),
	})
}

// Leave stops the events of a session.
func (c *Client) Leave(code string) error {
	return c.conn.WriteJSON(protocol.SessionGroupMessage{
		BaseMessage: protocol.NewBase(protocol.TypeLeaveSessionGroup, strings.ToUpper(code)),
	})
}

// ReadMessages reads and prints messages from the server.
func (c *Client) ReadMessages() {
	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Read error: %v", err)
				}
				return
			}

			var base protocol.BaseMessage
			if err := json.Unmarshal(data, &base); err != nil {
				log.Printf("Unmarshal error: %v", err)
				continue
			}

			fmt.Fprint(c.out, format(base, data))
		}
	}
}

// format renders one server message for the terminal.
func format(base protocol.BaseMessage, data []byte) string {
	switch base.Type {
	case protocol.TypeJoinedSessionGroup:
		return fmt.Sprintf("\n[%s] watching session\n", base.SessionCode)
	case protocol.TypeLeftSessionGroup:
		return fmt.Sprintf("\n[%s] stopped watching\n", base.SessionCode)
	case protocol.TypeSessionError:
		var errMsg protocol.SessionErrorMessage
		json.Unmarshal(data, &errMsg)
		return fmt.Sprintf("\n[%s] error: %s (%s)\n", base.SessionCode, errMsg.Message, errMsg.Code)
	}

	var ev protocol.Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return fmt.Sprintf("\n[%s] %s\n", base.Type, data)
	}
	var payload interface{}
	json.Unmarshal(ev.Payload, &payload)
	formatted, _ := json.MarshalIndent(payload, "", "  ")
	return fmt.Sprintf("\n[%s] %s:\n%s\n", ev.SessionCode, ev.Type, formatted)
}

// wsAddress derives the WebSocket endpoint from the HTTP base URL.
func wsAddress(base string) string {
	base = strings.TrimRight(base, "/")
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	return base + "/ws"
}

func runWatch(cmd *cobra.Command, args []string) error {
	addr := watchAddr
	if addr == "" {
		addr = wsAddress(serverURL)
	}
	out := cmd.OutOrStdout()
	log.SetFlags(log.Ltime)

	fmt.Fprintf(out, "Connecting to %s...\n", addr)

	client, err := NewClient(addr, out)
	if err != nil {
		return err
	}
	defer client.Close()

	go client.ReadMessages()

	for _, code := range args {
		if err := client.Join(code); err != nil {
			return fmt.Errorf("join %s: %w", code, err)
		}
	}

	fmt.Fprintln(out, "Connected.")
	fmt.Fprintln(out, "Commands: /join CODE, /leave CODE, /quit")

	// Handle Ctrl+C
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		fmt.Fprint(out, "> ")
		select {
		case <-interrupt:
			fmt.Fprintln(out, "\nInterrupted")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			fields := strings.Fields(line)
			if len(fields) == 0 {
				continue
			}

			switch {
			case fields[0] == "/quit":
				fmt.Fprintln(out, "Bye!")
				return nil
			case fields[0] == "/join" && len(fields) == 2:
				err = client.Join(fields[1])
			case fields[0] == "/leave" && len(fields) == 2:
				err = client.Leave(fields[1])
			default:
				fmt.Fprintln(out, "Commands: /join CODE, /leave CODE, /quit")
				continue
			}
			if err != nil {
				log.Printf("Send error: %v", err)
			}
		}
	}
}
