package api

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Discord allows at most 25 autocomplete choices per response.
const maxChoices = 25

// knownTimezones is the curated IANA zone list offered by the timezone
// option's autocomplete. Anything resolvable by time.LoadLocation is
// still accepted on submit; this list only drives suggestions.
var knownTimezones = []string{
	"Africa/Cairo",
	"Africa/Johannesburg",
	"Africa/Lagos",
	"Africa/Nairobi",
	"America/Anchorage",
	"America/Argentina/Buenos_Aires",
	"America/Bogota",
	"America/Chicago",
	"America/Denver",
	"America/Halifax",
	"America/Lima",
	"America/Los_Angeles",
	"America/Mexico_City",
	"America/New_York",
	"America/Phoenix",
	"America/Santiago",
	"America/Sao_Paulo",
	"America/St_Johns",
	"America/Toronto",
	"America/Vancouver",
	"Asia/Bangkok",
	"Asia/Dubai",
	"Asia/Hong_Kong",
	"Asia/Jakarta",
	"Asia/Jerusalem",
	"Asia/Karachi",
	"Asia/Kolkata",
	"Asia/Manila",
	"Asia/Seoul",
	"Asia/Shanghai",
	"Asia/Singapore",
	"Asia/Taipei",
	"Asia/Tokyo",
	"Atlantic/Reykjavik",
	"Australia/Adelaide",
	"Australia/Brisbane",
	"Australia/Melbourne",
	"Australia/Perth",
	"Australia/Sydney",
	"Europe/Amsterdam",
	"Europe/Athens",
	"Europe/Berlin",
	"Europe/Brussels",
	"Europe/Dublin",
	"Europe/Helsinki",
	"Europe/Istanbul",
	"Europe/Kyiv",
	"Europe/Lisbon",
	"Europe/London",
	"Europe/Madrid",
	"Europe/Moscow",
	"Europe/Oslo",
	"Europe/Paris",
	"Europe/Prague",
	"Europe/Rome",
	"Europe/Stockholm",
	"Europe/Vienna",
	"Europe/Warsaw",
	"Pacific/Auckland",
	"Pacific/Honolulu",
	"UTC",
}

func (s *Server) handleAutocomplete(i *discordgo.Interaction) *discordgo.InteractionResponse {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Focused && opt.Name == "timezone" {
			query = opt.StringValue()
			break
		}
	}

	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: matchTimezones(query),
		},
	}
}

// matchTimezones returns the zones containing the query, case
// insensitively, in list order.
func matchTimezones(query string) []*discordgo.ApplicationCommandOptionChoice {
	query = strings.ToLower(query)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, maxChoices)
	for _, tz := range knownTimezones {
		if query != "" && !strings.Contains(strings.ToLower(tz), query) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  tz,
			Value: tz,
		})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}
