package main

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"jockey-agent/internal/agent"
	"jockey-agent/internal/chat"
	"jockey-agent/internal/config"
	"jockey-agent/internal/decision"
	"jockey-agent/internal/health"
	"jockey-agent/internal/logging"
	"jockey-agent/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.Open(cfg.Agent.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := chat.New(cfg.Chat.GatewayURL, cfg.Chat.Email, cfg.Chat.Password)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	archetype := decision.ParseArchetype(cfg.Agent.Personality)
	ag := agent.New(client, st, cfg.Agent.TargetBotID, archetype, rng)

	client.OnConnected = ag.Reader().MarkReconnected
	if err := client.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("chat connect failed")
	}
	defer client.Close()

	if cfg.Health.Enabled {
		go func() {
			router := health.NewRouter(ag.Status, st)
			log.Info().Str("addr", cfg.Health.Addr).Msg("health listening")
			if err := health.Serve(ctx, cfg.Health.Addr, router); err != nil {
				log.Error().Err(err).Msg("health server stopped")
			}
		}()
	}

	log.Info().
		Str("archetype", string(archetype)).
		Int64("target_bot", cfg.Agent.TargetBotID).
		Msg("agent starting")

	if err := ag.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("agent stopped")
	}
	log.Info().Msg("agent stopped cleanly")
}
