package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/powpow420-boom/HRTversaryBot/anniversary"
	"github.com/powpow420-boom/HRTversaryBot/commands"
	"github.com/powpow420-boom/HRTversaryBot/dal"
	"github.com/powpow420-boom/HRTversaryBot/models"
)

const localTimeLayout = "Monday, 02 Jan 2006 15:04"

func (s *Server) handleCommand(ctx context.Context, i *discordgo.Interaction) *discordgo.InteractionResponse {
	userID, ok := interactionUserID(i)
	if !ok {
		return ephemeral("❌ Could not work out who sent this command.")
	}

	opts := optionValues(i.ApplicationCommandData().Options)

	switch name := i.ApplicationCommandData().Name; name {
	case commands.Show:
		return s.showAnniversary(ctx, userID, i.GuildID)
	case commands.Add:
		if resp := requireGuild(i.GuildID); resp != nil {
			return resp
		}
		return s.addAnniversary(ctx, userID, i.GuildID, i.ChannelID, opts["date"], opts["timezone"])
	case commands.Change:
		if resp := requireGuild(i.GuildID); resp != nil {
			return resp
		}
		return s.changeAnniversary(ctx, userID, i.GuildID, i.ChannelID, opts["date"], opts["timezone"])
	case commands.Verify:
		return s.verifyTimezone(ctx, userID, i.GuildID)
	case commands.Check:
		if resp := requireGuild(i.GuildID); resp != nil {
			return resp
		}
		return s.checkAnniversaries()
	default:
		log.Printf("Unknown command: %v", name)
		return ephemeral("❌ Unknown command.")
	}
}

func (s *Server) showAnniversary(ctx context.Context, userID, guildID string) *discordgo.InteractionResponse {
	rec, err := s.store.FindByIdentity(ctx, userID, guildID)
	if errors.Is(err, dal.ErrNotFound) {
		return ephemeral("You have not set your HRTversary date yet. Use /add_hrtversary to set it!")
	}
	if err != nil {
		log.Printf("Error fetching HRTversary data: %v", err)
		return ephemeral("An error occurred while fetching your HRTversary information.")
	}

	reply := fmt.Sprintf(
		"🏳️‍⚧️ **Your HRTversary Information** 💉\n\n"+
			"📅 HRT Start Date: %s\n"+
			"🌍 Timezone: %s\n"+
			"👤 User ID: %s",
		rec.AnniversaryDate,
		rec.Timezone,
		rec.UserID,
	)
	if start, err := anniversary.StartDate(*rec); err == nil {
		reply += fmt.Sprintf("\n⏳ Started %s", humanize.Time(start))
	}
	return ephemeral(reply)
}

func (s *Server) addAnniversary(ctx context.Context, userID, guildID, channelID, date, timezone string) *discordgo.InteractionResponse {
	if resp := validateInput(date, timezone); resp != nil {
		return resp
	}

	_, err := s.store.Insert(ctx, &models.Anniversary{
		UserID:          userID,
		GuildID:         guildID,
		AnniversaryDate: date,
		Timezone:        timezone,
		ChannelID:       channelID,
	})
	if errors.Is(err, dal.ErrDuplicateIdentity) {
		reply := "❌ You already have an HRTversary set!\n\n"
		if existing, findErr := s.store.FindByIdentity(ctx, userID, guildID); findErr == nil {
			reply += fmt.Sprintf(
				"📅 Current date: %s\n🌍 Timezone: %s\n\n",
				existing.AnniversaryDate,
				existing.Timezone,
			)
		}
		reply += "Use /change_hrtversary to update it, or /show_hrtversary to view it."
		return ephemeral(reply)
	}
	if err != nil {
		log.Printf("Error saving HRTversary: %v", err)
		return ephemeral("❌ Error saving your HRTversary. Please try again.")
	}

	return ephemeral(fmt.Sprintf(
		"✅ 🏳️‍⚧️ **HRTversary Set!** 💉\n\n"+
			"📅 HRT Start Date: %s\n"+
			"🌍 Timezone: %s\n\n"+
			"I'll announce your HRTversary in this channel every year! 💖",
		date,
		timezone,
	))
}

func (s *Server) changeAnniversary(ctx context.Context, userID, guildID, channelID, date, timezone string) *discordgo.InteractionResponse {
	if resp := validateInput(date, timezone); resp != nil {
		return resp
	}

	_, err := s.store.Update(ctx, userID, guildID, date, timezone, channelID)
	if errors.Is(err, dal.ErrNotFound) {
		return ephemeral("❌ You haven't set an HRTversary yet! Use /add_hrtversary first.")
	}
	if err != nil {
		log.Printf("Error updating HRTversary: %v", err)
		return ephemeral("❌ Error updating your HRTversary. Please try again.")
	}

	return ephemeral(fmt.Sprintf(
		"✅ 🏳️‍⚧️ **HRTversary Updated!** 💉\n\n"+
			"📅 New HRT Start Date: %s\n"+
			"🌍 Timezone: %s\n\n"+
			"Your HRTversary has been updated! 💖",
		date,
		timezone,
	))
}

func (s *Server) verifyTimezone(ctx context.Context, userID, guildID string) *discordgo.InteractionResponse {
	rec, err := s.store.FindByIdentity(ctx, userID, guildID)
	if errors.Is(err, dal.ErrNotFound) {
		return ephemeral("You have not set your HRTversary date yet. Use /add_hrtversary to set it!")
	}
	if err != nil {
		log.Printf("Error fetching HRTversary data: %v", err)
		return ephemeral("An error occurred while fetching your HRTversary information.")
	}

	loc, err := time.LoadLocation(rec.Timezone)
	if err != nil {
		return ephemeral(fmt.Sprintf(
			"❌ Your stored timezone %q does not resolve to a known IANA zone. "+
				"Use /change_hrtversary to fix it.",
			rec.Timezone,
		))
	}

	return ephemeral(fmt.Sprintf(
		"✅ 🌍 Timezone **%s** verified!\n\n"+
			"Your current local time is %s.\n"+
			"Announcements fire at %02d:00 local time.",
		rec.Timezone,
		time.Now().In(loc).Format(localTimeLayout),
		anniversary.AnnounceHour,
	))
}

func (s *Server) checkAnniversaries() *discordgo.InteractionResponse {
	if err := s.checker.Sweep(time.Now()); err != nil {
		log.Printf("Manual anniversary check failed: %v", err)
		return ephemeral("❌ Anniversary check failed. Please try again.")
	}
	return ephemeral("✅ Anniversary check completed.")
}

func validateInput(date, timezone string) *discordgo.InteractionResponse {
	if _, err := anniversary.ParseDate(date); err != nil {
		return ephemeral(fmt.Sprintf(
			"❌ Invalid date format. Please use %v (e.g., %v)",
			anniversary.DateFormat,
			anniversary.DateExample,
		))
	}
	if err := anniversary.ValidateTimezone(timezone); err != nil {
		return ephemeral(fmt.Sprintf(
			"❌ Unknown timezone %q. Please use an IANA zone name (e.g., Europe/London).",
			timezone,
		))
	}
	return nil
}

// requireGuild rejects commands that arrived outside a server. Discord
// already hides those commands from DMs, but the check keeps a stray DM
// invocation from touching records that belong to other guilds.
func requireGuild(guildID string) *discordgo.InteractionResponse {
	if guildID == "" {
		return ephemeral("❌ This command can only be used in a server.")
	}
	return nil
}

// interactionUserID extracts the invoking user, whether the command came
// from a guild or a DM.
func interactionUserID(i *discordgo.Interaction) (string, bool) {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID, true
	}
	if i.User != nil {
		return i.User.ID, true
	}
	return "", false
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]string {
	values := make(map[string]string, len(opts))
	for _, opt := range opts {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			values[opt.Name] = opt.StringValue()
		}
	}
	return values
}
