package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_MODE", "DB_DRIVER", "GYM_TIMEZONE", "STAFF_ROSTER", "MASTER_PHONE",
		"MONITORED_PHONES", "CROSS_BINDING_BLOCKED", "ROTATION_WEEKDAY", "ROTATION_HOUR",
		"ROTATION_MINUTE", "MASS_LOGOUT_MINUTE", "HEARTBEAT_SECONDS", "SEED_DEMO_MEMBERS",
	} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.True(t, cfg.IsDev())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, 30*time.Second, cfg.HeartbeatInterval())
	assert.Equal(t, 24*time.Hour, cfg.StaleSessionAfter())
	assert.Equal(t, "959510", cfg.Staff.FallbackSecret)
	assert.False(t, cfg.SeedDemo)

	roster := cfg.Roster()
	staff, ok := roster.Resolve("+91 95951-07293")
	require.True(t, ok)
	assert.Equal(t, "Vishwajeet Bhangare", staff.Name)
	assert.True(t, roster.IsMaster(staff.Phone))
	assert.Len(t, roster.Members(), 3)

	rot := cfg.RotationSchedule()
	assert.Equal(t, time.Sunday, rot.Weekday)
	assert.Equal(t, 5, rot.Minute)
	assert.Equal(t, 0, cfg.MassLogoutSchedule().Minute)
	assert.Equal(t, "CRON_TZ=Asia/Kolkata 5 5 * * 0", rot.CronSpec())
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("STAFF_ROSTER", "9000000001:Asha, broken ,9000000002 : Ravi ")
	t.Setenv("CROSS_BINDING_BLOCKED", "9000000001, 9000000002")
	t.Setenv("SEED_DEMO_MEMBERS", "true")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, map[string]string{"9000000001": "Asha", "9000000002": "Ravi"}, cfg.Staff.Roster)
	assert.Equal(t, []string{"9000000001", "9000000002"}, cfg.Staff.CrossBindingBlocked)
	assert.True(t, cfg.SeedDemo)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"APP_MODE":         "staging",
		"DB_DRIVER":        "oracle",
		"GYM_TIMEZONE":     "Mars/Olympus",
		"ROTATION_WEEKDAY": "7",
		"ROTATION_HOUR":    "24",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
