package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cagedesk/internal/adapters/chatlink"
	"cagedesk/internal/adapters/http/middleware"
	"cagedesk/internal/config"
	"cagedesk/internal/pkg/fingerprint"
	"cagedesk/internal/testutil"
)

const (
	testSecret   = "959510"
	staffDigits  = "9130368298"
	masterDigits = "9595107293"
	deviceA      = "TC-DEV-AAAA1111"
	deviceB      = "TC-DEV-BBBB2222"
	chromeUA     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0 Safari/537.36"
)

var kolkata, _ = time.LoadLocation("Asia/Kolkata")

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Field   string          `json:"field"`
	Code    string          `json:"code"`
}

type testServer struct {
	app       *fiber.App
	container *Container
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	fingerprint.Cost = bcrypt.MinCost

	cfg := &config.Config{
		AppMode: "dev",
		JWT:     config.JWTConfig{Secret: "routes-test", SessionTokenDays: 7},
		Gym: config.GymConfig{
			Name:          "The Cage MMA Gym & RS Fitness Academy",
			Timezone:      "Asia/Kolkata",
			Location:      kolkata,
			CountryPrefix: "+91",
		},
		Staff: config.StaffConfig{
			Roster: map[string]string{
				staffDigits:  "Shrikant Sathe",
				masterDigits: "Vishwajeet Bhangare",
			},
			MasterPhone:    masterDigits,
			FallbackSecret: testSecret,
		},
		Schedule: config.ScheduleConfig{
			RotationWeekday:   time.Sunday,
			RotationHour:      5,
			RotationMinute:    5,
			StaleSessionHours: 24,
		},
	}

	db := testutil.NewDB(t)
	c := NewContainer(db, cfg, chatlink.NewLinkDispatcher())
	require.NoError(t, c.Secrets.Seed(context.Background()))

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	middleware.Setup(app, cfg)
	Setup(app, c, cfg)
	return &testServer{app: app, container: c}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope, *http.Response) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", chromeUA)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env, resp
}

func (s *testServer) login(t *testing.T, phone, device string) string {
	t.Helper()
	status, env, _ := s.do(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"phone": phone, "secret": testSecret, "device_id": device,
	})
	require.Equal(t, fiber.StatusOK, status, env.Error)

	var result struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.NotEmpty(t, result.Token)
	return result.Token
}

func memberBody(name string) fiber.Map {
	return fiber.Map{
		"full_name":        name,
		"phone_number":     "98765 43210",
		"membership_type":  "SINGLE",
		"service_category": "GYM",
		"package_id":       "gym-1",
		"joining_date":     time.Now().In(kolkata).Format("2006-01-02"),
		"payment_received": "1000",
	}
}

func TestCatalogIsPublicAndCached(t *testing.T) {
	s := newTestServer(t)

	status, env, resp := s.do(t, fiber.MethodGet, "/api/v1/catalog?category=mma&type=couple", "", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "public, max-age=3600", resp.Header.Get(fiber.HeaderCacheControl))

	var pkgs []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &pkgs))
	require.Len(t, pkgs, 1)
	assert.Equal(t, "mma-12-2-c", pkgs[0].ID)

	status, env, _ = s.do(t, fiber.MethodGet, "/api/v1/catalog?category=YOGA", "", nil)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "category", env.Field)
}

func TestProtectedRoutesNeedSession(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, fiber.MethodGet, "/api/v1/members", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _, _ = s.do(t, fiber.MethodGet, "/api/v1/members", "not-a-token", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
}

func TestLoginRejections(t *testing.T) {
	s := newTestServer(t)

	status, env, _ := s.do(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"phone": staffDigits, "secret": "000000", "device_id": deviceA,
	})
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "INVALID CREDENTIALS OR PHONE", env.Error)

	s.login(t, "+91 91303 68298", deviceA)

	status, env, _ = s.do(t, fiber.MethodPost, "/api/v1/auth/login", "", fiber.Map{
		"phone": staffDigits, "secret": testSecret, "device_id": deviceB,
	})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Contains(t, env.Error, "SECURITY: This phone is not authorized for this account.")
	assert.Contains(t, env.Error, "Vishwajeet Bhangare")
}

func TestMemberLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, staffDigits, deviceA)

	status, env, _ := s.do(t, fiber.MethodPost, "/api/v1/members", token, memberBody("Asha Patil"))
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var created struct {
		ID             string  `json:"id"`
		PhoneNumber    string  `json:"phone_number"`
		Status         string  `json:"status"`
		PendingBalance float64 `json:"pending_balance"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "+919876543210", created.PhoneNumber)
	assert.Equal(t, "ACTIVE", created.Status)
	assert.Equal(t, float64(500), created.PendingBalance)

	status, env, _ = s.do(t, fiber.MethodGet, "/api/v1/members?tab=active&q=asha", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var list struct {
		Members []struct {
			ID string `json:"id"`
		} `json:"members"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Members, 1)
	assert.Equal(t, created.ID, list.Members[0].ID)
	assert.Equal(t, 1, list.Counts["ALL"])

	bad := memberBody("Asha 2")
	status, env, _ = s.do(t, fiber.MethodPut, "/api/v1/members/"+created.ID, token, bad)
	assert.Equal(t, fiber.StatusUnprocessableEntity, status)
	assert.Equal(t, "full_name", env.Field)

	status, _, _ = s.do(t, fiber.MethodGet, "/api/v1/members/missing", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env, _ = s.do(t, fiber.MethodPost, "/api/v1/members/"+created.ID+"/welcome", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Only Vishwajeet Bhangare is authorized to send Welcome Messages.", env.Error)

	status, env, _ = s.do(t, fiber.MethodPost, "/api/v1/members/"+created.ID+"/reminders/pending", token, nil)
	require.Equal(t, fiber.StatusOK, status, env.Error)
	var sent struct {
		Link             string `json:"link"`
		CounterPersisted bool   `json:"counter_persisted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sent))
	assert.Contains(t, sent.Link, "https://wa.me/919876543210?text=")
	assert.True(t, sent.CounterPersisted)

	status, env, _ = s.do(t, fiber.MethodGet, "/api/v1/feed?since=0&wait=0", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	var batch struct {
		Events []struct {
			Topic string `json:"topic"`
		} `json:"events"`
		Head uint64 `json:"head"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &batch))
	assert.NotEmpty(t, batch.Events)
	assert.Equal(t, s.container.Hub.Head(), batch.Head)
}

func TestWelcomeIsMasterOnlyAndOnce(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, masterDigits, deviceA)

	status, env, _ := s.do(t, fiber.MethodPost, "/api/v1/members", token, memberBody("Rohan Kulkarni"))
	require.Equal(t, fiber.StatusCreated, status, env.Error)
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	status, _, _ = s.do(t, fiber.MethodPost, "/api/v1/members/"+created.ID+"/welcome", token, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _, _ = s.do(t, fiber.MethodPost, "/api/v1/members/"+created.ID+"/welcome", token, nil)
	assert.Equal(t, fiber.StatusConflict, status)
}

func TestAdminRoutesAndForcedLogout(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, staffDigits, deviceA)
	master := s.login(t, masterDigits, deviceB)

	status, _, _ := s.do(t, fiber.MethodGet, "/api/v1/admin/devices", staff, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, env, _ := s.do(t, fiber.MethodGet, "/api/v1/admin/secret", master, nil)
	require.Equal(t, fiber.StatusOK, status)
	var secret struct {
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &secret))
	assert.Equal(t, testSecret, secret.Value)

	status, env, _ = s.do(t, fiber.MethodGet, "/api/v1/sessions", master, nil)
	require.Equal(t, fiber.StatusOK, status)
	var sessions []struct {
		ID        string `json:"id"`
		UserPhone string `json:"user_phone"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &sessions))
	require.Len(t, sessions, 2)

	var staffSession string
	for _, sess := range sessions {
		if sess.UserPhone == "+91"+staffDigits {
			staffSession = sess.ID
		}
	}
	require.NotEmpty(t, staffSession)

	status, _, _ = s.do(t, fiber.MethodPost, "/api/v1/auth/heartbeat", staff, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, _, _ = s.do(t, fiber.MethodDelete, "/api/v1/admin/sessions/"+staffSession, master, nil)
	assert.Equal(t, fiber.StatusOK, status)

	status, env, _ = s.do(t, fiber.MethodPost, "/api/v1/auth/heartbeat", staff, nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "Session ended", env.Error)

	status, _, _ = s.do(t, fiber.MethodDelete, "/api/v1/admin/devices/"+staffDigits, master, nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _, _ = s.do(t, fiber.MethodDelete, "/api/v1/admin/devices/"+staffDigits, master, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	status, _, _ := s.do(t, fiber.MethodGet, "/", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
}
