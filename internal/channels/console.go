package channels

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/npcgate/npcgate/internal/bus"
)

const consoleActor = "console"

// ConsoleChannel is an interactive stdin/stdout session for local testing.
// Commands: "/agent <id>" switches the agent, "/end" ends the current
// session, "exit" quits.
type ConsoleChannel struct {
	Base
	agentID string
	replies chan bus.OutboundReply
}

func NewConsoleChannel(b bus.Bus, defaultAgent string) *ConsoleChannel {
	if defaultAgent == "" {
		defaultAgent = "npc"
	}
	return &ConsoleChannel{
		Base:    NewBase("console", b, nil),
		agentID: defaultAgent,
		replies: make(chan bus.OutboundReply, 8),
	}
}

func (c *ConsoleChannel) Name() string { return "console" }

// Start runs the read loop. It returns when stdin closes, "exit" is typed,
// or ctx is cancelled.
func (c *ConsoleChannel) Start(ctx context.Context) error {
	fmt.Printf("npcgate console. Talking to %q. Commands: /agent <id>, /end, exit\n", c.agentID)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		fmt.Printf("%s> ", c.agentID)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if done := c.handleLine(ctx, line); done {
				return nil
			}
		}
	}
}

// handleLine processes one console line; returns true when the loop should exit.
func (c *ConsoleChannel) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "exit" || line == "quit":
		c.PublishActorEnd(consoleActor)
		return true
	case line == "/end":
		c.PublishSessionEnd(consoleActor, c.agentID)
		fmt.Println("(session ended)")
		return false
	case strings.HasPrefix(line, "/agent "):
		c.agentID = strings.TrimSpace(strings.TrimPrefix(line, "/agent "))
		fmt.Printf("(now talking to %q)\n", c.agentID)
		return false
	}

	c.PublishTurn(consoleActor, c.agentID, "", line, "", nil)

	select {
	case <-ctx.Done():
		return true
	case reply := <-c.replies:
		fmt.Printf("[%s] %s\n", reply.AgentID, reply.Content)
	}
	return false
}

// Send feeds the reply back to the read loop waiting on it.
func (c *ConsoleChannel) Send(ctx context.Context, reply bus.OutboundReply) error {
	select {
	case c.replies <- reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
