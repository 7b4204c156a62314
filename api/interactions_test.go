package api

import (
	"context"
	"crypto/ed25519"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/powpow420-boom/HRTversaryBot/checker"
	"github.com/powpow420-boom/HRTversaryBot/dal"
	"github.com/powpow420-boom/HRTversaryBot/models"
)

type memStore struct {
	recs      []models.Anniversary
	nextID    uint
	findCalls int
	listErr   error
}

var _ dal.Store = (*memStore)(nil)

func (m *memStore) find(userID, guildID string) *models.Anniversary {
	var best *models.Anniversary
	for i := range m.recs {
		rec := &m.recs[i]
		if rec.UserID != userID {
			continue
		}
		if guildID != "" {
			if rec.GuildID == guildID {
				return rec
			}
			continue
		}
		if best == nil || rec.ID > best.ID {
			best = rec
		}
	}
	return best
}

func (m *memStore) Insert(_ context.Context, rec *models.Anniversary) (uint, error) {
	if m.find(rec.UserID, rec.GuildID) != nil {
		return 0, dal.ErrDuplicateIdentity
	}
	m.nextID++
	rec.ID = m.nextID
	m.recs = append(m.recs, *rec)
	return rec.ID, nil
}

func (m *memStore) FindByIdentity(_ context.Context, userID, guildID string) (*models.Anniversary, error) {
	m.findCalls++
	if rec := m.find(userID, guildID); rec != nil {
		found := *rec
		return &found, nil
	}
	return nil, dal.ErrNotFound
}

func (m *memStore) Update(_ context.Context, userID, guildID, date, timezone, channelID string) (int64, error) {
	rec := m.find(userID, guildID)
	if rec == nil {
		return 0, dal.ErrNotFound
	}
	rec.AnniversaryDate = date
	rec.Timezone = timezone
	rec.ChannelID = channelID
	return 1, nil
}

func (m *memStore) ListAll(_ context.Context) ([]models.Anniversary, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.recs, nil
}

type stubDiscord struct {
	sent map[string]string
}

func (s *stubDiscord) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: channelID, GuildID: "guild-1"}, nil
}

func (s *stubDiscord) GuildMember(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	return &discordgo.Member{User: &discordgo.User{ID: userID}}, nil
}

func (s *stubDiscord) ChannelMessageSend(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if s.sent == nil {
		s.sent = make(map[string]string)
	}
	s.sent[channelID] = content
	return &discordgo.Message{}, nil
}

func newTestServer(store *memStore) (*Server, *stubDiscord) {
	discord := &stubDiscord{}
	chk := checker.New(store, checker.NewNotifier(discord))
	pub, _, _ := ed25519.GenerateKey(nil)
	return NewServer(store, chk, pub), discord
}

func commandInteraction(name string, opts map[string]string) *discordgo.Interaction {
	var options []*discordgo.ApplicationCommandInteractionDataOption
	for optName, value := range opts {
		options = append(options, &discordgo.ApplicationCommandInteractionDataOption{
			Type:  discordgo.ApplicationCommandOptionString,
			Name:  optName,
			Value: value,
		})
	}
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "guild-1",
		ChannelID: "chan-1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "user-1"}},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: options,
		},
	}
}

func content(resp *discordgo.InteractionResponse) string {
	return resp.Data.Content
}

func TestAddCommand(t *testing.T) {
	store := &memStore{}
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("add_hrtversary", map[string]string{
		"date":     "25/12/2020",
		"timezone": "Europe/London",
	}))

	assert.Contains(t, content(resp), "HRTversary Set!")
	require.Len(t, store.recs, 1)
	rec := store.recs[0]
	assert.Equal(t, "user-1", rec.UserID)
	assert.Equal(t, "guild-1", rec.GuildID)
	assert.Equal(t, "chan-1", rec.ChannelID)
	assert.Equal(t, "25/12/2020", rec.AnniversaryDate)
	assert.Equal(t, "Europe/London", rec.Timezone)
	assert.Zero(t, store.findCalls, "a fresh add should not need a lookup")
}

func TestAddCommandRejectsBadDate(t *testing.T) {
	store := &memStore{}
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("add_hrtversary", map[string]string{
		"date":     "2020-12-25",
		"timezone": "Europe/London",
	}))

	assert.Contains(t, content(resp), "Invalid date format")
	assert.Empty(t, store.recs)
}

func TestAddCommandRejectsBadTimezone(t *testing.T) {
	store := &memStore{}
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("add_hrtversary", map[string]string{
		"date":     "25/12/2020",
		"timezone": "Mars/Olympus_Mons",
	}))

	assert.Contains(t, content(resp), "Unknown timezone")
	assert.Empty(t, store.recs)
}

func TestAddCommandRejectsDuplicate(t *testing.T) {
	store := &memStore{}
	server, _ := newTestServer(store)

	first := server.handleCommand(context.Background(), commandInteraction("add_hrtversary", map[string]string{
		"date":     "25/12/2020",
		"timezone": "Europe/London",
	}))
	require.Contains(t, content(first), "HRTversary Set!")

	second := server.handleCommand(context.Background(), commandInteraction("add_hrtversary", map[string]string{
		"date":     "01/01/2021",
		"timezone": "UTC",
	}))

	assert.Contains(t, content(second), "already have an HRTversary")
	assert.Contains(t, content(second), "25/12/2020")
	require.Len(t, store.recs, 1)
	assert.Equal(t, "25/12/2020", store.recs[0].AnniversaryDate)
	assert.Equal(t, 1, store.findCalls, "only the duplicate reply needs a lookup")
}

func dmInteraction(name string, opts map[string]string) *discordgo.Interaction {
	i := commandInteraction(name, opts)
	i.GuildID = ""
	i.Member = nil
	i.User = &discordgo.User{ID: "user-1"}
	return i
}

func TestMutatingCommandsRejectedOutsideGuild(t *testing.T) {
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: "25/12/2020", Timezone: "UTC", ChannelID: "chan-0",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	for _, name := range []string{"add_hrtversary", "change_hrtversary", "check_anniversary"} {
		resp := server.handleCommand(context.Background(), dmInteraction(name, map[string]string{
			"date":     "01/01/2019",
			"timezone": "UTC",
		}))
		assert.Contains(t, content(resp), "only be used in a server", name)
	}

	require.Len(t, store.recs, 1)
	rec := store.recs[0]
	assert.Equal(t, "25/12/2020", rec.AnniversaryDate)
	assert.Equal(t, "chan-0", rec.ChannelID)
}

func TestShowCommandStillWorksFromDM(t *testing.T) {
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: "25/12/2020", Timezone: "Europe/London", ChannelID: "chan-1",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), dmInteraction("show_hrtversary", nil))

	assert.Contains(t, content(resp), "25/12/2020")
}

func TestChangeCommand(t *testing.T) {
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: "25/12/2020", Timezone: "UTC", ChannelID: "chan-0",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("change_hrtversary", map[string]string{
		"date":     "01/06/2019",
		"timezone": "Asia/Tokyo",
	}))

	assert.Contains(t, content(resp), "HRTversary Updated!")
	rec := store.recs[0]
	assert.Equal(t, "01/06/2019", rec.AnniversaryDate)
	assert.Equal(t, "Asia/Tokyo", rec.Timezone)
	assert.Equal(t, "chan-1", rec.ChannelID)
}

func TestChangeCommandWithoutRecord(t *testing.T) {
	server, _ := newTestServer(&memStore{})

	resp := server.handleCommand(context.Background(), commandInteraction("change_hrtversary", map[string]string{
		"date":     "01/06/2019",
		"timezone": "Asia/Tokyo",
	}))

	assert.Contains(t, content(resp), "haven't set an HRTversary yet")
}

func TestShowCommand(t *testing.T) {
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: "25/12/2020", Timezone: "Europe/London", ChannelID: "chan-1",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("show_hrtversary", nil))

	assert.Contains(t, content(resp), "25/12/2020")
	assert.Contains(t, content(resp), "Europe/London")
	assert.Contains(t, content(resp), "user-1")
	assert.Contains(t, content(resp), "years ago")
}

func TestShowCommandWithoutRecord(t *testing.T) {
	server, _ := newTestServer(&memStore{})

	resp := server.handleCommand(context.Background(), commandInteraction("show_hrtversary", nil))

	assert.Contains(t, content(resp), "not set your HRTversary date yet")
}

func TestVerifyTimezoneCommand(t *testing.T) {
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: "25/12/2020", Timezone: "Europe/London", ChannelID: "chan-1",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("verify_timezone", nil))

	assert.Contains(t, content(resp), "Europe/London")
	assert.Contains(t, content(resp), "verified")
}

func TestVerifyTimezoneCommandGarbageZone(t *testing.T) {
	// A record written before timezone validation was added.
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: "25/12/2020", Timezone: "Nowhere/Nonsense", ChannelID: "chan-1",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("verify_timezone", nil))

	assert.Contains(t, content(resp), "does not resolve")
}

func TestCheckCommand(t *testing.T) {
	store := &memStore{}
	_, err := store.Insert(context.Background(), &models.Anniversary{
		UserID: "user-1", GuildID: "guild-1",
		AnniversaryDate: time.Now().UTC().Format("02/01/2006"), Timezone: "UTC", ChannelID: "chan-1",
	})
	require.NoError(t, err)
	server, _ := newTestServer(store)

	resp := server.handleCommand(context.Background(), commandInteraction("check_anniversary", nil))

	assert.Contains(t, content(resp), "check completed")
}

func TestCheckCommandStoreFailure(t *testing.T) {
	server, _ := newTestServer(&memStore{listErr: errors.New("disk on fire")})

	resp := server.handleCommand(context.Background(), commandInteraction("check_anniversary", nil))

	assert.Contains(t, content(resp), "check failed")
}

func TestUnknownCommand(t *testing.T) {
	server, _ := newTestServer(&memStore{})

	resp := server.handleCommand(context.Background(), commandInteraction("challenge", nil))

	assert.Contains(t, content(resp), "Unknown command")
}

func TestLivenessRoute(t *testing.T) {
	server, _ := newTestServer(&memStore{})
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInteractionsRejectsUnsignedRequest(t *testing.T) {
	server, _ := newTestServer(&memStore{})
	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/interactions", "application/json", strings.NewReader(`{"type":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
