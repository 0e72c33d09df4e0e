package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stayloop/stays-service/internal/models"
	"github.com/stayloop/stays-service/internal/utils"
	"github.com/stretchr/testify/require"
)

func newMessageFixture(t *testing.T) (*MessageService, *fakeUserRepo, *recordingMessageNotifier) {
	t.Helper()
	userRepo := newFakeUserRepo()
	notifier := &recordingMessageNotifier{}
	svc := NewMessageService(newFakeMessageRepo(), userRepo, notifier)
	return svc, userRepo, notifier
}

func seedUser(t *testing.T, repo *fakeUserRepo, first, last, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: first,
		LastName:  last,
		Role:      models.RoleGuest,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestSendMessage_NotifiesRecipient(t *testing.T) {
	svc, userRepo, notifier := newMessageFixture(t)
	ctx := context.Background()

	alice := seedUser(t, userRepo, "Alice", "Ng", "alice@example.com")
	bob := seedUser(t, userRepo, "Bob", "Reyes", "bob@example.com")

	msg, err := svc.Send(ctx, alice.ID, bob.ID, "is early check-in possible?")
	require.NoError(t, err)
	require.NotNil(t, msg)

	require.Len(t, notifier.notified, 1)
	require.Equal(t, msg.ID, notifier.notified[0].ID)
	require.Equal(t, bob.ID, notifier.notified[0].RecipientID)
}

func TestSendMessage_NotifierFailureDoesNotFailSend(t *testing.T) {
	svc, userRepo, notifier := newMessageFixture(t)
	ctx := context.Background()

	alice := seedUser(t, userRepo, "Alice", "Ng", "alice@example.com")
	bob := seedUser(t, userRepo, "Bob", "Reyes", "bob@example.com")

	notifier.failErr = errors.New("sendgrid: 503")

	msg, err := svc.Send(ctx, alice.ID, bob.ID, "hello?")
	require.NoError(t, err)
	require.NotNil(t, msg)

	// The message is still stored and readable.
	thread, err := svc.Conversation(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, thread, 1)
}

func TestSendMessage_Validation(t *testing.T) {
	svc, userRepo, notifier := newMessageFixture(t)
	ctx := context.Background()

	alice := seedUser(t, userRepo, "Alice", "Ng", "alice@example.com")

	_, err := svc.Send(ctx, alice.ID, alice.ID, "note to self")
	require.ErrorIs(t, err, utils.ErrSelfMessage)

	missing, err := svc.Send(ctx, alice.ID, uuid.New(), "anyone there?")
	require.NoError(t, err)
	require.Nil(t, missing)

	require.Empty(t, notifier.notified)
}

func TestTruncateBody(t *testing.T) {
	require.Equal(t, "short", truncateBody("short", 200))

	long := make([]rune, 0, 250)
	for i := 0; i < 250; i++ {
		long = append(long, 'a')
	}
	got := truncateBody(string(long), 200)
	require.Len(t, []rune(got), 203)
	require.Equal(t, "...", got[len(got)-3:])
}
