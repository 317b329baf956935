package discord

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

type mockSession struct {
	userChannelCreateFn  func(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	channelMessageSendFn func(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

func (m *mockSession) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if m.userChannelCreateFn != nil {
		return m.userChannelCreateFn(recipientID, options...)
	}
	return &discordgo.Channel{ID: "dm-1"}, nil
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.channelMessageSendFn != nil {
		return m.channelMessageSendFn(channelID, content, options...)
	}
	return &discordgo.Message{}, nil
}

func newTestNotifier(ms *mockSession) *Notifier {
	return &Notifier{
		session:     ms,
		liveURLBase: "https://chzzk.naver.com/live",
		logger:      zap.NewNop(),
	}
}

func testStream(channelID, name, title string) domain.EnrichedStream {
	return domain.EnrichedStream{
		LiveStream: domain.LiveStream{
			ChannelID:   channelID,
			ChannelName: name,
			Title:       title,
			Category:    "game",
		},
	}
}

func TestSend_FormatsMessageWithLiveURL(t *testing.T) {
	ms := &mockSession{}
	var sentChannel, sentContent string
	ms.channelMessageSendFn = func(channelID, content string, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
		sentChannel = channelID
		sentContent = content
		return &discordgo.Message{}, nil
	}

	n := newTestNotifier(ms)
	err := n.Send(context.Background(), "user-1", []domain.EnrichedStream{
		testStream("ch1", "streamer", "late night run"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sentChannel != "dm-1" {
		t.Errorf("unexpected channel %q", sentChannel)
	}
	if !strings.Contains(sentContent, "streamer") || !strings.Contains(sentContent, "late night run") {
		t.Errorf("message missing stream details: %q", sentContent)
	}
	if !strings.Contains(sentContent, "https://chzzk.naver.com/live/ch1") {
		t.Errorf("message missing live URL: %q", sentContent)
	}
}

func TestSend_EmptyStreamsIsNoop(t *testing.T) {
	ms := &mockSession{}
	ms.userChannelCreateFn = func(_ string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
		t.Fatal("no DM channel expected for empty stream set")
		return nil, nil
	}

	n := newTestNotifier(ms)
	if err := n.Send(context.Background(), "user-1", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSend_ChannelCreateError(t *testing.T) {
	ms := &mockSession{}
	ms.userChannelCreateFn = func(_ string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
		return nil, errors.New("cannot DM user")
	}

	n := newTestNotifier(ms)
	err := n.Send(context.Background(), "user-1", []domain.EnrichedStream{testStream("ch1", "a", "b")})
	if err == nil {
		t.Fatal("expected error")
	}
}
