// Package commands defines the bot's slash commands and registers them
// with Discord.
package commands

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/powpow420-boom/HRTversaryBot/anniversary"
)

// Command names dispatched by the interactions endpoint.
const (
	Show   = "show_hrtversary"
	Add    = "add_hrtversary"
	Change = "change_hrtversary"
	Verify = "verify_timezone"
	Check  = "check_anniversary"
)

var dateOption = &discordgo.ApplicationCommandOption{
	Type: discordgo.ApplicationCommandOptionString,
	Name: "date",
	Description: fmt.Sprintf(
		"Your HRT start date (%v)",
		anniversary.DateFormat,
	),
	Required: true,
}

var timezoneOption = &discordgo.ApplicationCommandOption{
	Type:         discordgo.ApplicationCommandOptionString,
	Name:         "timezone",
	Description:  "Your timezone (e.g., America/New_York, Europe/London, Asia/Tokyo)",
	Required:     true,
	Autocomplete: true,
}

// Commands that write records or trigger announcements only make sense
// inside a server, so Discord hides them from DMs.
var guildOnly = false

// All lists every command the bot installs.
var All = []*discordgo.ApplicationCommand{
	{
		Name:        Show,
		Description: "Show your HRT anniversary information",
	}, {
		Name:         Add,
		Description:  "Set your HRT anniversary date",
		DMPermission: &guildOnly,
		Options: []*discordgo.ApplicationCommandOption{
			dateOption,
			timezoneOption,
		},
	}, {
		Name:         Change,
		Description:  "Update your HRT anniversary date",
		DMPermission: &guildOnly,
		Options: []*discordgo.ApplicationCommandOption{
			dateOption,
			timezoneOption,
		},
	}, {
		Name:        Verify,
		Description: "Verify selected timezone for HRT anniversary",
	}, {
		Name:         Check,
		Description:  "Manually run the anniversary check now",
		DMPermission: &guildOnly,
	},
}

// Register overwrites the application's command set. An empty guildID
// registers the commands globally.
func Register(session *discordgo.Session, appID, guildID string) error {
	registered, err := session.ApplicationCommandBulkOverwrite(appID, guildID, All)
	if err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	for _, command := range registered {
		log.Printf("Registered %v command.", command.Name)
	}
	return nil
}
