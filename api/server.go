// Package api exposes the bot's HTTP surface: the Discord interactions
// webhook and a liveness route.
package api

import (
	"crypto/ed25519"
	"encoding/json"
	"log"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/powpow420-boom/HRTversaryBot/checker"
	"github.com/powpow420-boom/HRTversaryBot/dal"
)

// Server handles the interactions webhook. Discord signs every payload;
// requests that fail the Ed25519 check are rejected before parsing.
type Server struct {
	store     dal.Store
	checker   *checker.Checker
	publicKey ed25519.PublicKey
}

// NewServer returns a Server over the given store and checker.
func NewServer(store dal.Store, chk *checker.Checker, publicKey ed25519.PublicKey) *Server {
	return &Server{
		store:     store,
		checker:   chk,
		publicKey: publicKey,
	}
}

// Router builds the HTTP route table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.handleLiveness)
	r.Post("/interactions", s.handleInteractions)

	return r
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("Discord bot server is running! 🤖"))
}

func (s *Server) handleInteractions(w http.ResponseWriter, r *http.Request) {
	if !discordgo.VerifyInteraction(r, s.publicKey) {
		http.Error(w, "invalid request signature", http.StatusUnauthorized)
		return
	}

	var interaction discordgo.Interaction
	if err := json.NewDecoder(r.Body).Decode(&interaction); err != nil {
		http.Error(w, "malformed interaction payload", http.StatusBadRequest)
		return
	}

	switch interaction.Type {
	case discordgo.InteractionPing:
		respond(w, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponsePong,
		})
	case discordgo.InteractionApplicationCommand:
		respond(w, s.handleCommand(r.Context(), &interaction))
	case discordgo.InteractionApplicationCommandAutocomplete:
		respond(w, s.handleAutocomplete(&interaction))
	default:
		log.Printf("Unknown interaction type: %v", interaction.Type)
		http.Error(w, "unknown interaction type", http.StatusBadRequest)
	}
}

func respond(w http.ResponseWriter, response *discordgo.InteractionResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("Error writing interaction response: %v", err)
	}
}

// ephemeral wraps a reply text in a message response only the invoking
// user can see.
func ephemeral(content string) *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	}
}
