package ai

import (
	"context"
	"strings"
	"testing"

	"freightmatch/internal/config"
)

func TestGenerateResponseRequiresAPIKey(t *testing.T) {
	c := NewClient(config.Config{AIRateLimitRPS: 10})
	_, err := c.GenerateResponse(context.Background(), "ping")
	if err == nil {
		t.Fatal("missing api key accepted")
	}
	if !strings.Contains(err.Error(), "AI_API_KEY") {
		t.Fatalf("error does not name the env var: %v", err)
	}
}
