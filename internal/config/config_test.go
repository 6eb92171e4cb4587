package config

import "testing"

func TestRequire(t *testing.T) {
	cfg := Config{}
	if err := cfg.Require("AI_API_KEY", "sk-test"); err != nil {
		t.Fatalf("set value rejected: %v", err)
	}
	if err := cfg.Require("AI_API_KEY", "   "); err == nil {
		t.Fatal("blank value accepted")
	}
	if err := cfg.Require("AI_API_KEY", ""); err == nil {
		t.Fatal("empty value accepted")
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("TEST_FLAG", "yes")
	if !getEnvBool("TEST_FLAG", false) {
		t.Fatal("yes not read as true")
	}
	t.Setenv("TEST_FLAG", "off")
	if getEnvBool("TEST_FLAG", true) {
		t.Fatal("off not read as false")
	}
	t.Setenv("TEST_FLAG", "maybe")
	if !getEnvBool("TEST_FLAG", true) {
		t.Fatal("garbage must fall back")
	}
}
