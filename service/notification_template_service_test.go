package service

import (
	"context"
	"testing"

	"skillswap/model"
	"skillswap/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	out := RenderTemplate("{{peer_name}} scored {{score}} with {{peer_name}}", map[string]string{
		"peer_name": "Alice",
		"score":     "0.75",
	})
	assert.Equal(t, "Alice scored 0.75 with Alice", out)
	assert.Equal(t, "{{unknown}}", RenderTemplate("{{unknown}}", nil))
}

func TestNotificationTemplateService_CRUD(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewNotificationTemplateService(db)

	require.NoError(t, svc.InitDefaultTemplates(ctx))
	require.NoError(t, svc.InitDefaultTemplates(ctx), "idempotent")

	templates, err := svc.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 3)
	assert.Equal(t, model.NotificationMatchAccepted, templates[0].Type)

	_, err = svc.CreateTemplate(ctx, &model.NotificationTemplate{Type: model.NotificationSystem, Title: "dup"})
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.CreateTemplate(ctx, &model.NotificationTemplate{Type: "weekly_digest"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.CreateTemplate(ctx, &model.NotificationTemplate{Type: "weekly_digest", Title: "Digest", Priority: 5})
	assert.ErrorIs(t, err, ErrValidation)

	created, err := svc.CreateTemplate(ctx, &model.NotificationTemplate{Type: "weekly_digest", Title: "Digest"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	assert.ErrorIs(t, svc.UpdateTemplate(ctx, created.ID, map[string]interface{}{}), ErrValidation)
	assert.ErrorIs(t, svc.UpdateTemplate(ctx, created.ID, map[string]interface{}{"type": "other"}), ErrValidation)
	assert.ErrorIs(t, svc.UpdateTemplate(ctx, uuid.New(), map[string]interface{}{"title": "x"}), ErrNotFound)
	require.NoError(t, svc.UpdateTemplate(ctx, created.ID, map[string]interface{}{"title": "Your week"}))

	got, err := svc.GetTemplate(ctx, "weekly_digest")
	require.NoError(t, err)
	assert.Equal(t, "Your week", got.Title)

	require.NoError(t, svc.DeleteTemplate(ctx, created.ID))
	assert.ErrorIs(t, svc.DeleteTemplate(ctx, created.ID), ErrNotFound)
	_, err = svc.GetTemplate(ctx, "weekly_digest")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNotificationTemplateService_Render(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	svc := NewNotificationTemplateService(db)
	require.NoError(t, svc.InitDefaultTemplates(ctx))

	msg, ok := svc.Render(ctx, model.NotificationMatchRequest, map[string]string{"peer_name": "Alice"})
	require.True(t, ok)
	assert.Equal(t, "New match request", msg.Title)
	require.NotNil(t, msg.Content)
	assert.Equal(t, "Alice wants to swap skills with you", *msg.Content)
	assert.Equal(t, 1, msg.Priority)
	assert.True(t, msg.EnableWebsocket)

	tmpl, err := svc.GetTemplate(ctx, model.NotificationMatchRequest)
	require.NoError(t, err)
	require.NoError(t, svc.UpdateTemplate(ctx, tmpl.ID, map[string]interface{}{"is_active": false}))

	_, ok = svc.Render(ctx, model.NotificationMatchRequest, nil)
	assert.False(t, ok, "inactive templates are not rendered")
}

func TestNotificationService_Templates(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	st := store.NewGormStore(db)

	alice := &model.UserProfile{Name: "Alice", Email: "alice@test.local", ProfileComplete: true}
	bob := &model.UserProfile{Name: "Bob", Email: "bob@test.local", ProfileComplete: true}
	require.NoError(t, st.SaveProfile(ctx, alice))
	require.NoError(t, st.SaveProfile(ctx, bob))

	templates := NewNotificationTemplateService(db)
	require.NoError(t, templates.InitDefaultTemplates(ctx))

	tmpl, err := templates.GetTemplate(ctx, model.NotificationMatchRequest)
	require.NoError(t, err)
	require.NoError(t, templates.UpdateTemplate(ctx, tmpl.ID, map[string]interface{}{
		"title":            "{{peer_name}} is interested",
		"content_template": "Compatibility {{score}}",
		"enable_websocket": false,
	}))

	svc := NewNotificationService(db, st, nil)
	svc.SetTemplateRenderer(templates)
	hub := newFakeHub(alice.ID, bob.ID)
	svc.SetHubNotifier(hub)

	require.NoError(t, svc.PublishMatchEvent(ctx, MatchEvent{Type: EventMatchRequest, UserA: alice.ID, UserB: bob.ID, Score: 0.5}))

	list, err := svc.GetNotifications(ctx, bob.ID, 20, 0, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice is interested", list[0].Title)
	require.NotNil(t, list[0].Content)
	assert.Equal(t, "Compatibility 0.50", *list[0].Content)
	assert.Empty(t, hub.pushed[bob.ID], "push disabled by the template")

	// missing template falls back to the built-in wording and still pushes
	accepted, err := templates.GetTemplate(ctx, model.NotificationMatchAccepted)
	require.NoError(t, err)
	require.NoError(t, templates.DeleteTemplate(ctx, accepted.ID))

	require.NoError(t, svc.PublishMatchEvent(ctx, MatchEvent{Type: EventMutualMatch, UserA: bob.ID, UserB: alice.ID, Score: 1}))
	list, err = svc.GetNotifications(ctx, alice.ID, 20, 0, false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "It's a match!", list[0].Title)
	assert.Len(t, hub.pushed[alice.ID], 1)
}
