package notify

import (
	"context"
	"fmt"

	pubnub "github.com/pubnub/go/v7"
)

// PubNubNotifier publishes lifecycle events to per-actor channels.
type PubNubNotifier struct {
	pn *pubnub.PubNub
}

func NewPubNubNotifier(publishKey, subscribeKey, secretKey string) *PubNubNotifier {
	cfg := pubnub.NewConfigWithUserId(pubnub.UserId("ticketdesk-server"))
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	cfg.SecretKey = secretKey

	return &PubNubNotifier{pn: pubnub.NewPubNub(cfg)}
}

func (n *PubNubNotifier) PublishLifecycleEvent(ctx context.Context, subjectID string, event Event) error {
	channel := fmt.Sprintf("user-%s", subjectID)
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(map[string]any{
			"type":       event.Type,
			"channel_id": event.ChannelID,
			"message":    event.Message,
		}).
		Execute()
	return err
}
