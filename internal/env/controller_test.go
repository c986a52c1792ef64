package env

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// testController stubs out exec, DB, and sleeping so Reset runs
// instantly and every issued command is recorded.
func testController(t *testing.T) (*Controller, *[]string) {
	t.Helper()

	c := NewController(DefaultConfig(t.TempDir()), quietLogger())
	c.readyAttempts = 2
	c.readyDelay = 0
	c.sleep = func(context.Context, time.Duration) {}

	var commands []string
	c.runCmd = func(_ context.Context, _, name string, args ...string) error {
		commands = append(commands, name+" "+strings.Join(args, " "))
		return nil
	}
	// No reachable database by default; clearing falls back to exec.
	c.openDB = func() (*sql.DB, error) {
		return nil, errors.New("no database in tests")
	}
	return c, &commands
}

func TestResetCommandSequence(t *testing.T) {
	c, commands := testController(t)

	res := c.Reset(context.Background(), false)
	require.True(t, res.OK)

	want := []string{
		"docker compose down",
		"docker compose up -d",
		"docker exec -i load_balancer_db psql -U testuser -d testdb -c TRUNCATE TABLE todos RESTART IDENTITY CASCADE;",
	}
	assert.Equal(t, want, *commands)
}

func TestResetFullWipesVolumes(t *testing.T) {
	c, commands := testController(t)

	res := c.Reset(context.Background(), true)
	require.True(t, res.OK)
	assert.Contains(t, *commands, "docker compose down -v")
}

func TestResetFailsWhenComposeFails(t *testing.T) {
	c, _ := testController(t)
	c.runCmd = func(_ context.Context, _, _ string, args ...string) error {
		if len(args) > 0 && args[len(args)-1] == "-d" {
			return fmt.Errorf("exit status 1")
		}
		return nil
	}

	res := c.Reset(context.Background(), false)
	assert.False(t, res.OK)
}

func TestResetWarnsWhenDatasetNotCleared(t *testing.T) {
	c, _ := testController(t)
	c.runCmd = func(_ context.Context, _, _ string, args ...string) error {
		if args[0] == "exec" {
			return fmt.Errorf("psql: connection refused")
		}
		return nil
	}

	res := c.Reset(context.Background(), false)

	// Clearing failed on both paths, but the reset itself still worked.
	require.True(t, res.OK)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[len(res.Warnings)-1], "dataset not cleared")
}

func TestRestartProxy(t *testing.T) {
	c, commands := testController(t)

	res := c.RestartProxy(context.Background())
	require.True(t, res.OK)
	assert.Equal(t, []string{"docker compose restart nginx"}, *commands)
}

func TestRestartProxyFailure(t *testing.T) {
	c, _ := testController(t)
	c.runCmd = func(context.Context, string, string, ...string) error {
		return fmt.Errorf("exit status 1")
	}

	res := c.RestartProxy(context.Background())
	assert.False(t, res.OK)
}
