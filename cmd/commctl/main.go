package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/danmuck/xhrcomm/internal/channel"
	"github.com/danmuck/xhrcomm/internal/logging"
	"github.com/danmuck/xhrcomm/internal/protocol"
	"github.com/danmuck/xhrcomm/internal/transport"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.ConfigureRuntime()
	configPath := flag.String("config", "", "client config path (TOML)")
	endpoint := flag.String("endpoint", "", "override the poll endpoint")
	namespace := flag.String("ns", "", "namespace stdin commands are sent to (default: first configured)")
	listen := flag.String("listen", "echo,pong", "comma-separated event names to print")
	flag.Parse()

	raw, err := readClientFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load commctl config")
	}
	if *endpoint != "" {
		raw.Endpoint = strings.TrimSpace(*endpoint)
	}
	if *namespace != "" {
		raw.Namespaces = preferNamespace(raw.Namespaces, *namespace)
	}
	cfg, err := resolveClientConfig(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid commctl config")
	}

	tr, err := transport.NewHTTP(cfg.Transport)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid transport config")
	}
	client := channel.NewClient(cfg.Channel, tr)
	defer client.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	names := append([]string{
		protocol.EventConnect, protocol.EventDisconnect, protocol.EventReconnect, protocol.EventError,
	}, splitList(*listen)...)

	var target *channel.Channel
	for _, ns := range cfg.Namespaces {
		ch, err := client.Connect(ctx, ns)
		if err != nil {
			log.Fatal().Err(err).Str("ns", ns).Msg("connect failed")
		}
		attachPrinters(ch, os.Stdout, names)
		if target == nil {
			target = ch
		}
	}
	log.Info().Str("endpoint", tr.Endpoint()).Strs("namespaces", client.Namespaces()).Msg("commctl started")

	lines := make(chan string)
	go readLines(os.Stdin, lines)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			name, args, ok := parseLine(line)
			if !ok {
				continue
			}
			target.Emit(name, args...)
		}
	}
}

func readLines(r io.Reader, out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		out <- scanner.Text()
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("stdin read failed")
	}
}

func attachPrinters(ch *channel.Channel, w io.Writer, names []string) {
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		ch.On(name, func(args protocol.Args) error {
			_, err := fmt.Fprintln(w, formatEvent(ch.Namespace(), protocol.Event{Name: name, Args: args}))
			return err
		})
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
