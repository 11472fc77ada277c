// Package notify posts listings to a Discord channel as rich embeds.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"github.com/swang373/zillowbot/internal/domain"
	"github.com/swang373/zillowbot/internal/logging"
)

// DeliveryError means the channel send failed. The record is dropped;
// there is no requeue.
type DeliveryError struct {
	ChannelID string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver to channel %s: %v", e.ChannelID, e.Err)
}
func (e *DeliveryError) Unwrap() error { return e.Err }

// embedSender is the slice of *discordgo.Session the notifier uses.
type embedSender interface {
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type Discord struct {
	session   embedSender
	channelID string
	limiter   *rate.Limiter
	log       *logging.Logger
}

// NewDiscord builds a notifier backed by the Discord REST API; the bot
// never opens a gateway connection, it only sends. Sends are paced to
// perMinute messages to stay under Discord's channel rate limits.
func NewDiscord(token, channelID string, perMinute int, lg *logging.Logger) (*Discord, error) {
	if token == "" {
		return nil, errors.New("discord bot token is required")
	}
	if channelID == "" {
		return nil, errors.New("discord channel id is required")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	if perMinute <= 0 {
		perMinute = 30
	}
	return &Discord{
		session:   s,
		channelID: channelID,
		limiter:   rate.NewLimiter(rate.Limit(float64(perMinute)/60), 1),
		log:       lg,
	}, nil
}

// Notify renders and sends one listing. Sequential calls preserve the
// caller's emission order.
func (d *Discord) Notify(ctx context.Context, l domain.Listing) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	embed := renderEmbed(l)
	d.log.Debugf("[notify] posting %q to channel %s", embed.Title, d.channelID)
	if _, err := d.session.ChannelMessageSendEmbed(d.channelID, embed); err != nil {
		return &DeliveryError{ChannelID: d.channelID, Err: err}
	}
	return nil
}

func renderEmbed(l domain.Listing) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("A new listing at %s has appeared!", l.Address),
		Description: renderDescription(l),
		URL:         l.URL,
	}
	if l.ImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: l.ImageURL}
	}
	return embed
}

// renderDescription tolerates partially populated records: missing
// facts or price are simply left out.
func renderDescription(l domain.Listing) string {
	var parts []string
	if l.Facts != "" {
		parts = append(parts, "Features: "+l.Facts)
	}
	if l.Price != "" {
		parts = append(parts, "Price: "+l.Price)
	}
	return strings.Join(parts, " ")
}
