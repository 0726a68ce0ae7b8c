package main

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/artofey/livecoding/internal/config"
	"github.com/artofey/livecoding/internal/hub"
	"github.com/artofey/livecoding/internal/logging"
	"github.com/artofey/livecoding/internal/server"
)

func main() {
	cfg, err := config.LoadServer(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.File = cfg.LogFile
	logging.Setup(logCfg)

	h := hub.New()

	log.Info().Str("addr", cfg.ListenAddr).Msg("signaling server listening")

	// Failing to bind the port is the only process-fatal condition.
	if err := http.ListenAndServe(cfg.ListenAddr, server.Routes(h)); err != nil {
		log.Fatal().Err(err).Msg("listen")
	}
}
