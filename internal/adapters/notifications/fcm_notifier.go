package notifications

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/messaging"

	"github.com/snacktacular/backend/internal/domain/entities"
	"github.com/snacktacular/backend/internal/domain/providers"
	"github.com/snacktacular/backend/internal/infrastructure/observability"
	apperrors "github.com/snacktacular/backend/pkg/errors"
)

// messageSender is the part of the FCM client used here
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMReviewNotifier publishes a push message to the spot owner's topic
// whenever someone else reviews their spot.
type FCMReviewNotifier struct {
	client messageSender
}

var _ providers.ReviewNotifier = (*FCMReviewNotifier)(nil)

// NewFCMReviewNotifier creates a notifier over a Firebase messaging client
func NewFCMReviewNotifier(client *messaging.Client) *FCMReviewNotifier {
	return &FCMReviewNotifier{client: client}
}

// OwnerTopic is the FCM topic a spot owner's devices subscribe to
func OwnerTopic(userID string) string {
	return "user-" + userID
}

// NotifyReviewPosted sends the notification. Reviews by the owner and
// spots without an owner are skipped.
func (n *FCMReviewNotifier) NotifyReviewPosted(ctx context.Context, spot *entities.Spot, review *entities.Review) error {
	if spot.PostingUserID == "" || spot.PostingUserID == review.ReviewUserID {
		return nil
	}

	message := &messaging.Message{
		Topic: OwnerTopic(spot.PostingUserID),
		Notification: &messaging.Notification{
			Title: fmt.Sprintf("New review of %s", spot.Name),
			Body:  fmt.Sprintf("%s rated it %d: %s", review.ReviewUserEmail, review.Rating, review.Title),
		},
		Data: map[string]string{
			"spotId":   spot.ID,
			"reviewId": review.ID,
			"link":     fmt.Sprintf("/spots/%s", spot.ID),
		},
	}

	id, err := n.client.Send(ctx, message)
	if err != nil {
		return apperrors.NewExternalError("failed to send review notification", err)
	}

	observability.LoggerFromContext(ctx).Debug().
		Str("message_id", id).
		Str("spot_id", spot.ID).
		Msg("Sent review notification")
	return nil
}
