package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/russo2100/bob-2/utils/dotenv"
)

func TestGetEnvList(t *testing.T) {
	t.Setenv("PIPELINE_TEST_LIST", "https://a/feed, https://b/feed ,,https://c/feed")
	assert.Equal(t,
		[]string{"https://a/feed", "https://b/feed", "https://c/feed"},
		GetEnvList("PIPELINE_TEST_LIST"))

	assert.Nil(t, GetEnvList("PIPELINE_TEST_LIST_UNSET"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PIPELINE_TEST_INT", "7")
	assert.Equal(t, 7, GetEnvInt("PIPELINE_TEST_INT", 4))

	t.Setenv("PIPELINE_TEST_INT", "not a number")
	assert.Equal(t, 4, GetEnvInt("PIPELINE_TEST_INT", 4))

	assert.Equal(t, 4, GetEnvInt("PIPELINE_TEST_INT_UNSET", 4))
}

func TestLoadReadsDotEnvTest(t *testing.T) {
	require.NoError(t, dotenv.LoadDotEnvsInTests())

	cfg := Load()
	assert.Equal(t, "@bob2_test_channel", cfg.TelegramChannel)
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "openai/gpt-4o-mini", cfg.TextModel)
	assert.Equal(t, 5, cfg.TopTrendsCount)
	assert.Equal(t, 4, cfg.PostsCount)
	assert.Equal(t, "Europe/Samara", cfg.SchedulerTimezone)
	assert.Equal(t, 9, cfg.SchedulerHour)
	assert.Equal(t, 30, cfg.SchedulerMinute)
	assert.Equal(t, "data", cfg.DataDir)
}
