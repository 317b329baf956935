package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// session is the consumer interface over discordgo for tests.
type session interface {
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier delivers match notifications as Discord DMs.
type Notifier struct {
	session     session
	liveURLBase string
	logger      *zap.Logger
}

// New creates a Discord notifier from a bot token.
func New(token, liveURLBase string, logger *zap.Logger) (*Notifier, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &Notifier{session: s, liveURLBase: liveURLBase, logger: logger}, nil
}

// Send delivers one DM listing the matched streams. Best effort: the
// returned error is for observability, the caller must not escalate it.
func (n *Notifier) Send(ctx context.Context, subscriberID string, streams []domain.EnrichedStream) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(streams) == 0 {
		return nil
	}

	channel, err := n.session.UserChannelCreate(subscriberID)
	if err != nil {
		return fmt.Errorf("open DM channel for %s: %w", subscriberID, err)
	}

	if _, err := n.session.ChannelMessageSend(channel.ID, n.formatMessage(streams)); err != nil {
		return fmt.Errorf("send DM to %s: %w", subscriberID, err)
	}

	n.logger.Debug("notification delivered",
		zap.String("subscriber_id", subscriberID),
		zap.Int("streams", len(streams)),
	)
	return nil
}

func (n *Notifier) formatMessage(streams []domain.EnrichedStream) string {
	var b strings.Builder
	b.WriteString("🔴 Live now, matching your tags:\n")
	for _, s := range streams {
		fmt.Fprintf(&b, "- **%s** | %s (%s)\n  %s/%s\n",
			s.ChannelName, s.Title, s.Category, n.liveURLBase, s.ChannelID)
	}
	return b.String()
}
