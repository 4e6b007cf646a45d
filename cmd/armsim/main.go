// armsim - joint-state simulator for the Ned2 3D viewer
//
// Serves GET /get_state, POST /home, POST /rest and /ws/state.
//
// With -home, -rest or -state it acts as a client of an already running
// simulator instead (URL from -url, ARMSIM_URL or the config file).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-nedvision/internal/config"
	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/armsim"
)

func main() {
	addr := flag.String("addr", armsim.DefaultAddr, "Listen address")
	duration := flag.Duration("move-duration", armsim.DefaultMoveDuration, "Duration of named-pose moves")
	logLevel := flag.String("log-level", log.EnvLevel("info"), "Log level: debug, info, warn, error")
	configPath := flag.String("config", "nedvision.yml", "YAML configuration file (client mode, optional)")
	url := flag.String("url", "", "Simulator URL for client mode (overrides config)")
	home := flag.Bool("home", false, "Send a running simulator to HOME and exit")
	rest := flag.Bool("rest", false, "Send a running simulator to REST and exit")
	state := flag.Bool("state", false, "Print the joints of a running simulator and exit")
	flag.Parse()

	log.Init(*logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cmd := clientCommand(*home, *rest, *state); cmd != "" {
		cfg, err := config.Load(*configPath)
		if err == nil {
			err = cfg.ApplyEnv()
		}
		if err != nil {
			log.Error("config", "error", err)
			os.Exit(2)
		}
		base := cfg.ArmSimURL
		if *url != "" {
			base = *url
		}
		if err := runClient(ctx, armsim.NewClient(base), cmd, os.Stdout); err != nil {
			log.Error("armsim client", "url", base, "error", err)
			os.Exit(1)
		}
		return
	}

	sim := armsim.New(log.L())
	srv := armsim.NewServer(sim, log.L())
	srv.MoveDuration = *duration

	errc := make(chan error, 1)
	go func() { errc <- srv.Listen(*addr) }()

	select {
	case err := <-errc:
		if err != nil {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		done := make(chan struct{})
		go func() {
			if err := srv.Shutdown(); err != nil {
				log.Warn("shutdown error", "error", err)
			}
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			log.Warn("shutdown timed out")
		}
	}
}

// clientCommand picks the client action. The first set flag wins.
func clientCommand(home, rest, state bool) string {
	switch {
	case home:
		return "home"
	case rest:
		return "rest"
	case state:
		return "state"
	}
	return ""
}

func runClient(ctx context.Context, c *armsim.Client, cmd string, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cmd {
	case "home", "rest":
		move := c.Home
		if cmd == "rest" {
			move = c.Rest
		}
		reply, err := move(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, reply)
		return nil
	case "state":
		j, err := c.GetState(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, j)
		return nil
	}
	return errors.New("unknown command " + cmd)
}
