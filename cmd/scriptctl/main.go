// scriptctl drives a running scripthost through its console.
//
//	scriptctl -addr 127.0.0.1:8090 status
//	scriptctl reload
//	scriptctl config Box
//	scriptctl remove 12
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/zeusync/scripthost/internal/core/events/bus"
	"github.com/zeusync/scripthost/sdk/go/client"
)

func main() {
	cfg := client.DefaultClientConfig()
	flag.StringVar(&cfg.ServerAddr, "addr", cfg.ServerAddr, "console address")
	flag.StringVar(&cfg.Token, "token", os.Getenv("SCRIPTHOST_CONSOLE_TOKEN"), "console token")
	timeout := flag.Duration("timeout", 30*time.Second, "command timeout")
	flag.Parse()
	cfg.CommandTimeout = *timeout

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: scriptctl [flags] status|reload|types|config TYPE|remove ID|position ID|watch")
		os.Exit(2)
	}
	if err := run(cfg, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "scriptctl:", err)
		os.Exit(1)
	}
}

func run(cfg client.Config, args []string) error {
	ctx := context.Background()
	c := client.NewClient(cfg)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	var (
		out any
		err error
	)
	switch args[0] {
	case "status":
		out, err = c.Status(ctx)
	case "reload":
		out, err = c.Reload(ctx)
	case "types":
		out, err = c.Types(ctx)
	case "config":
		if len(args) < 2 {
			return fmt.Errorf("config needs a type name")
		}
		out, err = c.Config(ctx, args[1])
	case "remove", "position":
		if len(args) < 2 {
			return fmt.Errorf("%s needs an entity id", args[0])
		}
		id, perr := strconv.ParseUint(args[1], 10, 32)
		if perr != nil {
			return fmt.Errorf("entity id: %w", perr)
		}
		if args[0] == "remove" {
			err = c.Remove(ctx, uint32(id), false)
		} else {
			out, err = c.Position(ctx, uint32(id))
		}
	case "watch":
		return watch(c)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	if err != nil || out == nil {
		return err
	}
	return printJSON(out)
}

// watch prints pushed events until interrupted.
func watch(c *client.Client) error {
	events := make(chan client.Event, 16)
	c.On(bus.Wildcard, func(e client.Event) { events <- e })
	for e := range events {
		if err := printJSON(map[string]any{"event": e.Type, "generation": e.Generation, "data": e.Data}); err != nil {
			return err
		}
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
