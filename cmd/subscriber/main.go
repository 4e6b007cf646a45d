// subscriber - prints detection records from a nedvision broker
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-nedvision/internal/log"
	"github.com/teslashibe/go-nedvision/pkg/pubsub"
)

func main() {
	server := flag.String("server", "http://127.0.0.1:8080", "Broker base URL")
	topic := flag.String("topic", pubsub.DefaultTopic, "Topic prefix to subscribe to")
	raw := flag.Bool("raw", false, "Print the JSON payload instead of a summary")
	flag.Parse()

	log.Init(log.EnvLevel("info"))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	for ctx.Err() == nil {
		if err := listen(ctx, *server, *topic, *raw); err != nil && ctx.Err() == nil {
			log.Warn("connection lost, retrying", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func listen(ctx context.Context, server, topic string, raw bool) error {
	sub, err := pubsub.Dial(ctx, server, topic, log.L())
	if err != nil {
		return err
	}
	defer sub.Close()

	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if raw {
			data, _ := msg.Record.Marshal()
			fmt.Fprintf(os.Stdout, "%s %s\n", msg.Topic, data)
			continue
		}
		fmt.Fprintln(os.Stdout, msg.Record.String())
	}
}
