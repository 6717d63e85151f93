// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/poiesic/fitment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// captureApp returns an app whose run command records the parsed options
// instead of running.
func captureApp(got *fitment.RunOptions) *cli.App {
	return &cli.App{
		Name: "fitment",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Flags: runFlags(),
				Action: func(c *cli.Context) error {
					opts, err := runOptions(c)
					*got = opts
					return err
				},
			},
		},
	}
}

func TestRunCommandFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var opts fitment.RunOptions
		require.NoError(t, captureApp(&opts).Run([]string{"fitment", "run"}))

		assert.Equal(t, 100, opts.Params.Limit)
		assert.Equal(t, 10, opts.Params.BatchSize)
		assert.Equal(t, time.Second, opts.Params.Delay)
		assert.Equal(t, 1, opts.Retry.MaxAttempts)
		assert.False(t, opts.StrictItems)
		assert.False(t, opts.SaveReport)
		assert.Nil(t, opts.Observer)
	})

	t.Run("overrides", func(t *testing.T) {
		var opts fitment.RunOptions
		err := captureApp(&opts).Run([]string{"fitment", "run",
			"--limit", "500",
			"--batch-size", "25",
			"--batch-delay", "250ms",
			"--max-attempts", "3",
			"--retry-delay", "2s",
			"--strict-items",
			"--save-report",
			"--report-dir", "/tmp/reports",
			"--progress",
		})
		require.NoError(t, err)

		assert.Equal(t, 500, opts.Params.Limit)
		assert.Equal(t, 25, opts.Params.BatchSize)
		assert.Equal(t, 250*time.Millisecond, opts.Params.Delay)
		assert.Equal(t, 3, opts.Retry.MaxAttempts)
		assert.Equal(t, 2*time.Second, opts.Retry.BaseDelay)
		assert.True(t, opts.StrictItems)
		assert.True(t, opts.SaveReport)
		assert.Equal(t, "/tmp/reports", opts.ReportDir)
		assert.NotNil(t, opts.Observer)
	})
}

func TestRunCommandValidation(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero batch size", []string{"--batch-size", "0"}, "batch-size must be greater than 0"},
		{"negative limit", []string{"--limit", "-1"}, "limit cannot be negative"},
		{"negative delay", []string{"--batch-delay", "-1s"}, "batch-delay cannot be negative"},
		{"zero attempts", []string{"--max-attempts", "0"}, "max-attempts must be greater than 0"},
		{"zero report interval", []string{"--progress", "--report-interval", "0"}, "report-interval must be greater than 0"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var opts fitment.RunOptions
			err := captureApp(&opts).Run(append([]string{"fitment", "run"}, tc.args...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestReplayRequiresFile(t *testing.T) {
	app := newApp()
	app.Before = nil

	err := app.Run([]string{"fitment", "replay"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file")
}

func TestReplayRejectsStartWithResume(t *testing.T) {
	app := newApp()
	app.Before = nil

	err := app.Run([]string{"fitment", "replay", "--file", "failed.json", "--start", "2", "--resume"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start and resume cannot be combined")
}

func TestParseRowID(t *testing.T) {
	rowID, err := parseRowID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), rowID)

	rowID, err = parseRowID(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, int64(7), rowID)

	for _, bad := range []string{"", "-3", "abc", "1.5"} {
		_, err := parseRowID(bad)
		assert.Error(t, err, bad)
	}
}

func setTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("FITMENT_SOURCE_DRIVER", "sqlite")
	t.Setenv("FITMENT_SOURCE_DSN", filepath.Join(dir, "records.db"))
	t.Setenv("FITMENT_PROVIDER", "openai")
	t.Setenv("FITMENT_PROVIDER_URL", "http://127.0.0.1:1")
	t.Setenv("FITMENT_SINK_TARGET", filepath.Join(dir, "results"))
	t.Setenv("FITMENT_CHECKPOINT_FILE", filepath.Join(dir, "lastRecord.txt"))
	t.Setenv("FITMENT_REPLAY_CHECKPOINT_FILE", filepath.Join(dir, "lastReplay.txt"))
	return dir
}

func TestCheckpointCommands(t *testing.T) {
	dir := setTestEnv(t)

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	require.NoError(t, app.Run([]string{"fitment", "checkpoint", "show"}))
	assert.Equal(t, "0", strings.TrimSpace(out.String()))

	require.NoError(t, app.Run([]string{"fitment", "checkpoint", "set", "1234"}))
	data, err := os.ReadFile(filepath.Join(dir, "lastRecord.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1234", string(data))

	out.Reset()
	require.NoError(t, app.Run([]string{"fitment", "checkpoint", "show"}))
	assert.Equal(t, "1234", strings.TrimSpace(out.String()))

	require.NoError(t, app.Run([]string{"fitment", "checkpoint", "set", "--replay", "9"}))
	out.Reset()
	require.NoError(t, app.Run([]string{"fitment", "checkpoint", "show", "--replay"}))
	assert.Equal(t, "9", strings.TrimSpace(out.String()))

	err = app.Run([]string{"fitment", "checkpoint", "set", "oops"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid row id")
}

func TestResultsCommand_UnknownRun(t *testing.T) {
	setTestEnv(t)

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	require.NoError(t, app.Run([]string{"fitment", "results", "--run", "no-such-run"}))
	assert.Empty(t, out.String())
}

func TestCommandsFailWithoutConfig(t *testing.T) {
	t.Setenv("FITMENT_SOURCE_DSN", "")
	t.Setenv("FITMENT_SINK_TARGET", "")

	app := newApp()
	err := app.Run([]string{"fitment", "checkpoint", "show"})
	assert.Error(t, err)
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "log-level", Value: "info"},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error { return nil },
				}
				require.NoError(t, app.Run([]string{"test", "--log-level", level}))
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}

		err := app.Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := newApp()
		app.Commands = nil
		app.Action = func(c *cli.Context) error {
			assert.Equal(t, "debug", c.String("log-level"))
			return nil
		}
		require.NoError(t, app.Run([]string{"fitment", "-l", "debug"}))
	})
}
