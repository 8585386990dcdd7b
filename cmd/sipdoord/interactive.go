package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/chzyer/readline"

	"github.com/sipdoor/sipdoor-go/pkg/actuator"
	"github.com/sipdoor/sipdoor-go/pkg/netlink"
	"github.com/sipdoor/sipdoor-go/pkg/sip"
)

// consoleDeps are the handles the simulation console drives.
type consoleDeps struct {
	driver    *simDriver
	client    *sip.Client
	readiness *netlink.Readiness
	presses   chan<- struct{}
	opener    *actuator.Handler
	cancel    context.CancelFunc
}

// console is the interactive simulation shell.
type console struct {
	deps consoleDeps
}

func newConsole(deps consoleDeps) *console {
	return &console{deps: deps}
}

// Run reads commands until exit or context cancellation.
func (c *console) Run(ctx context.Context) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sipdoor> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("console unavailable: %v\n", err)
		return
	}
	defer rl.Close()

	c.printHelp(rl)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			c.deps.cancel()
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp(rl)

		case "press", "p":
			select {
			case c.deps.presses <- struct{}{}:
				fmt.Fprintln(rl.Stdout(), "bell button pressed")
			default:
				fmt.Fprintln(rl.Stdout(), "press already pending")
			}

		case "link":
			c.cmdLink(rl, args)

		case "open":
			c.deps.opener.Trigger()
			fmt.Fprintln(rl.Stdout(), "door strike triggered")

		case "status", "s":
			fmt.Fprintf(rl.Stdout(), "link ready:  %v\n", c.deps.readiness.IsSet())
			fmt.Fprintf(rl.Stdout(), "session:     initialized=%v registered=%v\n",
				c.deps.client.IsInitialized(), c.deps.client.IsRegistered())
			fmt.Fprintf(rl.Stdout(), "door strike: active=%v\n", c.deps.opener.Active())

		case "quit", "exit", "q":
			fmt.Fprintln(rl.Stdout(), "Exiting...")
			c.deps.cancel()
			return

		default:
			fmt.Fprintf(rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *console) cmdLink(rl *readline.Instance, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(rl.Stdout(), "usage: link up [local [gateway]] | link down")
		return
	}
	switch args[0] {
	case "up":
		local, gateway := "192.168.1.40", "192.168.1.1"
		if len(args) > 1 {
			local = args[1]
		}
		if len(args) > 2 {
			gateway = args[2]
		}
		c.deps.driver.LinkUp(local, gateway)
		fmt.Fprintf(rl.Stdout(), "link up: local=%s gateway=%s\n", local, gateway)
	case "down":
		c.deps.driver.LinkDown()
		fmt.Fprintln(rl.Stdout(), "link down")
	default:
		fmt.Fprintln(rl.Stdout(), "usage: link up [local [gateway]] | link down")
	}
}

func (c *console) printHelp(rl *readline.Instance) {
	fmt.Fprintln(rl.Stdout(), `
Doorbell Simulation Commands:
  press, p                   - Press the bell button
  link up [local [gateway]]  - Simulate address acquisition
  link down                  - Simulate link loss
  open                       - Trigger the door strike directly
  status, s                  - Show link/session/strike state
  help, ?                    - Show this help
  quit, exit, q              - Stop the daemon`)
}
