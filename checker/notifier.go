package checker

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/powpow420-boom/HRTversaryBot/anniversary"
	"github.com/powpow420-boom/HRTversaryBot/models"
)

// ErrNotAuthorized is returned when the pre-send check finds the target
// channel no longer belongs to the record's guild, or the user is no
// longer a member of it.
var ErrNotAuthorized = errors.New("record is not authorized for announcement")

// DiscordAPI is the slice of the Discord REST client the notifier needs.
// *discordgo.Session satisfies it.
type DiscordAPI interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier formats and sends the yearly announcement for a due record.
type Notifier struct {
	discord DiscordAPI
}

// NewNotifier returns a Notifier sending through the given client.
func NewNotifier(discord DiscordAPI) *Notifier {
	return &Notifier{discord: discord}
}

// Notify authorizes and announces a due record: the destination channel
// must still belong to the record's guild and the user must still be a
// member of it. Stale or spoofed records fail the check and nothing is
// sent. Exactly one message goes out per successful call.
func (n *Notifier) Notify(rec models.Anniversary, now time.Time) error {
	if err := n.authorize(rec); err != nil {
		return err
	}

	years, err := anniversary.Years(rec, now)
	if err != nil {
		return err
	}

	_, err = n.discord.ChannelMessageSend(rec.ChannelID, Message(rec.UserID, years, rec.AnniversaryDate))
	if err != nil {
		return fmt.Errorf("sending announcement to channel %v: %w", rec.ChannelID, err)
	}
	return nil
}

func (n *Notifier) authorize(rec models.Anniversary) error {
	channel, err := n.discord.Channel(rec.ChannelID)
	if err != nil {
		return fmt.Errorf("%w: fetching channel %v: %v", ErrNotAuthorized, rec.ChannelID, err)
	}
	if channel.GuildID != rec.GuildID {
		return fmt.Errorf("%w: channel %v is not in guild %v", ErrNotAuthorized, rec.ChannelID, rec.GuildID)
	}

	if _, err := n.discord.GuildMember(rec.GuildID, rec.UserID); err != nil {
		return fmt.Errorf("%w: user %v is not a member of guild %v: %v", ErrNotAuthorized, rec.UserID, rec.GuildID, err)
	}
	return nil
}

// Message renders the announcement for the given user, elapsed-year
// count and original start date.
func Message(userID string, years int, startDate string) string {
	plural := ""
	if years != 1 {
		plural = "s"
	}
	return fmt.Sprintf(
		"🏳️‍⚧️ 💉 **HAPPY HRTVERSARY!** 💉 🏳️‍⚧️\n\n"+
			"@everyone\n\n"+
			"🎉 Today marks **%d year%s** since <@%s> started their HRT journey! 🎉\n\n"+
			"Started: %s\n\n"+
			"Let's celebrate this amazing milestone! You're valid, you're loved, and you're amazing! 💖✨🌈",
		years,
		plural,
		userID,
		startDate,
	)
}
