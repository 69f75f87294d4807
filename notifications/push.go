// Package notifications sends best-effort web-push messages to subscribed
// residents when new announcements are published.
package notifications

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"vecindario/models"
)

// SubscriptionStore is what the broadcaster needs from persistence.
type SubscriptionStore interface {
	All(ctx context.Context) ([]models.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type Broadcaster struct {
	store   SubscriptionStore
	public  string
	private string
	contact string
}

func NewBroadcaster(store SubscriptionStore, publicKey, privateKey, contact string) *Broadcaster {
	return &Broadcaster{store: store, public: publicKey, private: privateKey, contact: contact}
}

// Enabled reports whether VAPID keys are configured.
func (b *Broadcaster) Enabled() bool {
	return b != nil && b.public != "" && b.private != ""
}

// PublicKey returns the VAPID public key clients subscribe with.
func (b *Broadcaster) PublicKey() string {
	return b.public
}

type pushPayload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// NotifyNewPost fans the announcement out to every subscriber on a
// background goroutine. Failures are logged; subscriptions the push service
// reports as gone are dropped.
func (b *Broadcaster) NotifyNewPost(post *models.Post) {
	if !b.Enabled() {
		return
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[Push] panic while broadcasting: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		subs, err := b.store.All(ctx)
		if err != nil {
			log.Printf("[Push] loading subscriptions failed: %v", err)
			return
		}
		if len(subs) == 0 {
			return
		}

		payload, err := json.Marshal(pushPayload{
			Title: "Nueva publicación",
			Body:  post.Title,
			URL:   "/posts/" + post.ID.Hex(),
		})
		if err != nil {
			return
		}

		opts := &webpush.Options{
			TTL:             60,
			Subscriber:      b.contact,
			VAPIDPublicKey:  b.public,
			VAPIDPrivateKey: b.private,
		}

		sent := 0
		for _, sub := range subs {
			resp, err := webpush.SendNotification(payload, &sub.Sub, opts)
			if err != nil {
				log.Printf("[Push] send to %s failed: %v", sub.Sub.Endpoint, err)
				continue
			}
			if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
				// Subscription expired on the push service side.
				if err := b.store.DeleteByEndpoint(ctx, sub.Sub.Endpoint); err != nil {
					log.Printf("[Push] dropping stale subscription failed: %v", err)
				}
			} else {
				sent++
			}
			resp.Body.Close()
		}
		log.Printf("[Push] post %s broadcast to %d/%d subscribers", post.ID.Hex(), sent, len(subs))
	}()
}
