package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/roomtin/hyprconnect/internal/model"
)

// PushClient defines the interface for sending a web push notification.
type PushClient interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type webpushClient struct{}

func (webpushClient) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// pushPayload is the JSON document a service worker receives.
type pushPayload struct {
	Title      string               `json:"title"`
	Body       string               `json:"body"`
	DeviceID   string               `json:"device_id"`
	Kind       model.TransitionKind `json:"kind"`
	ObservedAt string               `json:"observed_at"`
}

// WebPushSender delivers transitions to every browser subscribed to the device.
type WebPushSender struct {
	db      *gorm.DB
	options *webpush.Options
	client  PushClient
}

func NewWebPushSender(db *gorm.DB, options *webpush.Options) *WebPushSender {
	return &WebPushSender{db: db, options: options, client: webpushClient{}}
}

func (s *WebPushSender) Name() string { return "webpush" }

// Notify sends t to the device's subscriptions. Subscriptions answered with
// 410 Gone are deleted.
func (s *WebPushSender) Notify(ctx context.Context, t model.Transition) error {
	var subscriptions []model.PushSubscription
	err := s.db.WithContext(ctx).
		Joins("JOIN subscription_device_mapping sdm ON sdm.push_subscription_endpoint = push_subscriptions.endpoint").
		Where("sdm.known_device_id = ?", t.DeviceID).
		Find(&subscriptions).Error
	if err != nil {
		return errors.Wrapf(err, "fetch subscriptions for device %s", t.DeviceID)
	}
	if len(subscriptions) == 0 {
		return nil
	}

	payload, err := json.Marshal(pushPayload{
		Title:      t.DeviceName,
		Body:       t.Body(),
		DeviceID:   t.DeviceID,
		Kind:       t.Kind,
		ObservedAt: t.ObservedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return errors.Wrap(err, "encode push payload")
	}

	log.Debug().Int("subscriptions", len(subscriptions)).Str("device", t.DeviceID).Msg("sending web push")
	var failed int
	for _, sub := range subscriptions {
		if err := s.send(ctx, sub, payload); err != nil {
			failed++
			log.Warn().Err(err).Str("endpoint", sub.Endpoint).Msg("web push failed")
		}
	}
	if failed > 0 {
		return errors.Errorf("%d of %d web push deliveries failed", failed, len(subscriptions))
	}
	return nil
}

func (s *WebPushSender) send(ctx context.Context, sub model.PushSubscription, payload []byte) error {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := s.client.Send(payload, wpSub, s.options)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		log.Info().Str("endpoint", sub.Endpoint).Msg("push subscription expired; deleting")
		if err := s.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			return errors.Wrapf(err, "delete expired subscription %s", sub.Endpoint)
		}
	}
	return nil
}
