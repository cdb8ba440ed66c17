package notifications

import (
	"context"
	"testing"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snacktacular/backend/internal/domain/entities"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func TestFCMReviewNotifier_SendsToOwnerTopic(t *testing.T) {
	sender := new(mockSender)
	sender.On("Send", mock.Anything, mock.MatchedBy(func(m *messaging.Message) bool {
		return m.Topic == "user-owner" && m.Data["spotId"] == "s1" && m.Data["reviewId"] == "r1"
	})).Return("msg-1", nil)

	notifier := &FCMReviewNotifier{client: sender}
	spot := &entities.Spot{ID: "s1", Name: "Deli", PostingUserID: "owner"}
	review := &entities.Review{ID: "r1", Title: "Yum", Rating: 5, ReviewUserID: "guest", ReviewUserEmail: "g@bc.edu"}

	require.NoError(t, notifier.NotifyReviewPosted(context.Background(), spot, review))
	sender.AssertExpectations(t)
}

func TestFCMReviewNotifier_SkipsOwnReview(t *testing.T) {
	sender := new(mockSender)
	notifier := &FCMReviewNotifier{client: sender}

	spot := &entities.Spot{ID: "s1", PostingUserID: "owner"}
	review := &entities.Review{ID: "r1", ReviewUserID: "owner"}

	assert.NoError(t, notifier.NotifyReviewPosted(context.Background(), spot, review))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
