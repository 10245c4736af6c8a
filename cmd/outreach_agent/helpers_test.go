package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/outreach-agent/internal/campaign"
	"github.com/jonathan/outreach-agent/internal/config"
	"github.com/jonathan/outreach-agent/internal/jobs"
)

func TestCompletionWaiter_SignalsAfterRunStops(t *testing.T) {
	w := newCompletionWaiter()

	// Idle snapshots before the run starts must not complete the waiter.
	w.onState(campaign.Snapshot{Running: false, Streaming: false})
	select {
	case <-w.done:
		t.Fatal("waiter completed before any run was observed")
	default:
	}

	w.onState(campaign.Snapshot{Running: true, Streaming: true})
	w.onState(campaign.Snapshot{Running: false, Streaming: true})
	select {
	case <-w.done:
		t.Fatal("waiter completed while still streaming")
	default:
	}

	w.onState(campaign.Snapshot{Running: false, Streaming: false})
	select {
	case <-w.done:
	default:
		t.Fatal("waiter did not complete after the run stopped")
	}

	// Further snapshots are harmless.
	w.onState(campaign.Snapshot{Running: false, Streaming: false})
}

func TestRefreshWaiter_ErrorStateFinishes(t *testing.T) {
	w := newRefreshWaiter()

	w.onState(jobs.RefreshState{Status: jobs.RefreshRunning})
	select {
	case <-w.done:
		t.Fatal("waiter completed while refresh was running")
	default:
	}

	w.onState(jobs.RefreshState{Status: jobs.RefreshError})
	select {
	case <-w.done:
	default:
		t.Fatal("waiter did not complete on error state")
	}
	assert.True(t, w.failed())
}

func TestRefreshWaiter_FeedFinishes(t *testing.T) {
	w := newRefreshWaiter()
	w.onState(jobs.RefreshState{Status: jobs.RefreshCompleted})
	w.finish()
	select {
	case <-w.done:
	default:
		t.Fatal("waiter did not complete after feed delivery")
	}
	assert.False(t, w.failed())
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Platform Engineer at Acme", firstLine("Platform Engineer at Acme\nRemote, full time"))
	assert.Equal(t, "", firstLine("   \n"))
	long := "This posting title keeps going well past the point where a history entry stays readable"
	assert.LessOrEqual(t, len(firstLine(long)), 60)
}

func TestUseBrowserSetting(t *testing.T) {
	cfg := &config.Config{UseBrowser: true}
	cmd := &cobra.Command{}
	cmd.Flags().BoolVar(&generateUseBrowser, "use-browser", false, "")

	assert.True(t, useBrowserSetting(cmd, cfg), "config value applies when the flag is not given")

	require.NoError(t, cmd.Flags().Set("use-browser", "false"))
	assert.False(t, useBrowserSetting(cmd, cfg), "explicit flag wins over config")
}

func TestValidTheme(t *testing.T) {
	for _, name := range []string{"system", "light", "dark"} {
		assert.True(t, validTheme(name), name)
	}
	assert.False(t, validTheme("neon"))
	assert.False(t, validTheme(""))
}

func TestTruncateToken(t *testing.T) {
	assert.Equal(t, "short", truncateToken("short"))
	assert.Equal(t, "abcdefghijkl...", truncateToken("abcdefghijklmnopqrstuvwxyz"))
}
