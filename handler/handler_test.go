package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"skillswap/middleware"
	"skillswap/model"
	"skillswap/service"
	"skillswap/store"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "handler-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
	middleware.InitAuth(testSecret)
}

// envelope decoded response body
type envelope struct {
	Code      int             `json:"code"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

func tokenFor(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := middleware.GenerateToken(userID, time.Hour)
	require.NoError(t, err)
	return token
}

// call performs a request as userID (no auth header when userID is nil)
func call(t *testing.T, r http.Handler, method, path string, userID uuid.UUID, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, userID))
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v), string(env.Data))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, store.NewGormStore(db).AutoMigrate())
	require.NoError(t, db.AutoMigrate(&model.Notification{}, &model.NotificationTemplate{}, &model.UserRelationship{}, &model.SystemSettings{}))
	return db
}

// app full router over sqlite, no redis
type app struct {
	router   *gin.Engine
	store    *store.GormStore
	notifSvc *service.NotificationService
	sysSvc   *service.SystemSettingsService
	hub      *Hub
	admin    uuid.UUID // listed in AdminIDs
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := newTestDB(t)
	ctx := context.Background()

	st := store.NewGormStore(db)
	sysSvc := service.NewSystemSettingsService(db)
	require.NoError(t, sysSvc.SeedDefaults(ctx))

	relSvc := service.NewRelationshipService(db)
	matchSvc := service.NewMatchService(st, service.NewConsistencyGuard(st, service.NewLocalPairLocker(0, time.Second), 3), relSvc)
	notifSvc := service.NewNotificationService(db, st, sysSvc)
	templateSvc := service.NewNotificationTemplateService(db)
	require.NoError(t, templateSvc.InitDefaultTemplates(ctx))
	notifSvc.SetTemplateRenderer(templateSvc)

	hub := NewHub(nil, sysSvc, st)
	hub.SetNotificationService(notifSvc)
	notifSvc.SetHubNotifier(hub)
	matchSvc.AddEventSink(notifSvc)
	matchSvc.AddEventSink(hub)

	admin := uuid.New()
	r := NewRouter(Handlers{
		Match:        NewMatchHandler(matchSvc),
		Notification: NewNotificationHandler(notifSvc),
		Relationship: NewRelationshipHandler(relSvc),
		Settings:     NewSystemSettingsHandler(sysSvc),
		Templates:    NewNotificationTemplateHandler(templateSvc),
		Hub:          hub,
		AdminIDs:     []uuid.UUID{admin},
	})
	return &app{router: r, store: st, notifSvc: notifSvc, sysSvc: sysSvc, hub: hub, admin: admin}
}

func (a *app) user(t *testing.T, name string, teach, learn model.SubjectList) *model.UserProfile {
	t.Helper()
	u := &model.UserProfile{
		ID:              uuid.New(),
		Name:            name,
		Email:           name + "@test.local",
		TeachSubjects:   teach,
		LearnSubjects:   learn,
		ProfileComplete: true,
		LastActive:      time.Now(),
	}
	require.NoError(t, a.store.SaveProfile(context.Background(), u))
	return u
}

func subjects(pairs ...interface{}) model.SubjectList {
	var list model.SubjectList
	for i := 0; i+1 < len(pairs); i += 2 {
		list = append(list, model.SubjectSkill{Subject: pairs[i].(string), Level: pairs[i+1].(int)})
	}
	return list
}
