package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/gift-portal/internal/config"
	"github.com/spec-kit/gift-portal/internal/domain"
	"github.com/spec-kit/gift-portal/internal/events"
)

func TestNotificationService_LogsSubmissionEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{
		EmailFrom:  "gifts@example.com",
		WebhookURL: "https://hooks.example.com/gifts",
	})

	ctx := context.Background()
	require.NoError(t, n.Handle(ctx, events.Event{Type: events.EventSubmissionCreated, SubmissionID: "s1"}))
	require.Equal(t, 1, logs.FilterMessage("SubmissionCreated").Len())
	require.Equal(t, 1, logs.FilterMessage("email notification").Len())
	require.Equal(t, 1, logs.FilterMessage("webhook notification").Len())

	require.NoError(t, n.Handle(ctx, events.Event{
		Type:         events.EventSubmissionStatusChanged,
		SubmissionID: "s1",
		Payload: events.SubmissionStatusChangedPayload{
			OldStatus: domain.SubmissionStatusPending,
			NewStatus: domain.SubmissionStatusProcessed,
		},
	}))
	require.Equal(t, 2, logs.FilterMessage("email notification").Len())
	require.Equal(t, 2, logs.FilterMessage("webhook notification").Len())
}

func TestNotificationService_SkipsUnconfiguredChannels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{})

	require.NoError(t, n.Handle(context.Background(), events.Event{Type: events.EventSubmissionDeleted, SubmissionID: "s9"}))
	require.Equal(t, 1, logs.FilterMessage("SubmissionDeleted").Len())
	require.Zero(t, logs.FilterMessage("webhook notification").Len())
}

func TestNotificationService_IgnoresOtherEvents(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	n := NewNotificationService(zap.New(core), config.NotificationConfig{WebhookURL: "https://hooks.example.com/gifts"})

	require.NoError(t, n.Handle(context.Background(), events.Event{Type: events.EventSubmissionUpdated, SubmissionID: "s2"}))
	require.Zero(t, logs.Len())
	require.NotContains(t, n.EventTypes(), events.EventSubmissionUpdated)
}
