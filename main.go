package main

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"

	"github.com/powpow420-boom/HRTversaryBot/api"
	"github.com/powpow420-boom/HRTversaryBot/checker"
	"github.com/powpow420-boom/HRTversaryBot/commands"
	"github.com/powpow420-boom/HRTversaryBot/config"
	"github.com/powpow420-boom/HRTversaryBot/dal"
)

const configPath = "config.yaml"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	publicKey, err := hex.DecodeString(cfg.Discord.PublicKey)
	if err != nil {
		log.Fatalf("Failed to decode public key: %v", err)
	}

	db, err := dal.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	store := dal.NewStore(db)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("Failed to create discord session: %v", err)
	}
	// The session is used purely as a REST client; no gateway connection
	// is opened. Interactions arrive over the webhook instead.
	session.Client.Timeout = 10 * time.Second

	if err := commands.Register(session, cfg.Discord.AppID, cfg.Discord.GuildID); err != nil {
		log.Fatalf("Failed to register commands: %v", err)
	}

	chk := checker.New(store, checker.NewNotifier(session))
	done := make(chan struct{})
	go chk.Run(done)

	server := api.NewServer(store, chk, ed25519.PublicKey(publicKey))
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Listening on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down.")
	close(done)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
}
