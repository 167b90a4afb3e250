package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv_Fallback(t *testing.T) {
	t.Setenv("VELORA_TEST_KEY", "set")
	assert.Equal(t, "set", GetEnv("VELORA_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("VELORA_TEST_MISSING", "fallback"))
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("VELORA_TEST_LIST", "a:9092, b:9092 ,,c:9092")
	assert.Equal(t, []string{"a:9092", "b:9092", "c:9092"}, GetEnvList("VELORA_TEST_LIST"))
	assert.Nil(t, GetEnvList("VELORA_TEST_LIST_MISSING"))
}
