package main

import (
	"flag"

	"github.com/danmuck/xhrcomm/internal/config"
	"github.com/danmuck/xhrcomm/internal/logging"
	"github.com/rs/zerolog/log"
)

var defaultPaths = map[string]string{
	"server": "cmd/commd/config.toml",
	"client": "cmd/commctl/config.toml",
}

func main() {
	logging.ConfigureRuntime()
	kind := flag.String("kind", "server", "config kind: server|client")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	defaultPath, ok := defaultPaths[*kind]
	if !ok {
		log.Fatal().Str("kind", *kind).Msg("unknown config kind")
	}

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath
		}
		if err := validateFile(*kind, path); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("config invalid")
		}
		log.Info().Str("kind", *kind).Str("path", path).Msg("validated config")
		return
	}

	target := *output
	if target == "" {
		target = defaultPath
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal().Err(err).Msg("write template failed")
	}
	log.Info().Str("kind", *kind).Str("path", target).Msg("wrote config template")
}

func validateFile(kind, path string) error {
	switch kind {
	case "client":
		_, err := config.LoadClientConfig(path)
		return err
	default:
		_, err := config.LoadServerConfig(path)
		return err
	}
}
