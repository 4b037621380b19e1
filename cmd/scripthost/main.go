// Profiling:
// scripthost -profile cpu
// go tool pprof -http=":8000" ./scripthost cpu.pprof

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"

	"github.com/zeusync/scripthost/internal/injector"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration")
	profileMode := flag.String("profile", "off", "profile mode: cpu, mem or off")
	flag.Parse()

	var p interface{ Stop() }
	switch *profileMode {
	case "cpu":
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	case "off", "":
	default:
		fmt.Fprintf(os.Stderr, "unknown profile mode %q\n", *profileMode)
		os.Exit(2)
	}

	err := run(*configPath)
	if p != nil {
		p.Stop()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "scripthost:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	a, cleanup, err := injector.InitializeApp(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reloads := make(chan os.Signal, 1)
	signal.Notify(reloads, syscall.SIGHUP)
	defer signal.Stop(reloads)

	return a.Run(ctx, reloads)
}
