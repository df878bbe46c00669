package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"civic/internal/notifications/models"
	id "civic/pkg/domain"
)

type creator interface {
	Create(ctx context.Context, n *models.Notification) error
}

func seed(t *testing.T, s creator, userID id.UserID, minute int) *models.Notification {
	t.Helper()
	at := time.Date(2026, 5, 4, 9, minute, 0, 0, time.UTC)
	n, err := models.NewNotification(id.NewNotificationID(), userID, models.KindSystem, "Welcome", "", "", at)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), n))
	return n
}
