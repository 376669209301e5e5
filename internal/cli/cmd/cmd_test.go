package cmd

import (
	"strings"
	"testing"

	"github.com/seatwise-systems/seatwise/internal/cli/config"
)

// Test command initialization and registration
func TestCommandsRegistered(t *testing.T) {
	cfg = config.Default()

	if rootCmd == nil {
		t.Fatal("rootCmd should not be nil")
	}

	expected := map[string]bool{
		"auth":       false,
		"events":     false,
		"register":   false,
		"unregister": false,
		"seed":       false,
	}

	for _, cmd := range rootCmd.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := expected[name]; ok {
			expected[name] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("expected command '%s' to be registered with root command", name)
		}
	}
}

func TestAuthSubcommands(t *testing.T) {
	expected := map[string]bool{
		"signup": false,
		"login":  false,
		"logout": false,
	}

	for _, cmd := range authCmd.Commands() {
		name := strings.Fields(cmd.Use)[0]
		if _, ok := expected[name]; ok {
			expected[name] = true
		}
	}

	for name, found := range expected {
		if !found {
			t.Errorf("expected auth subcommand '%s'", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, flag := range []string{"config", "profile", "output"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("expected persistent flag '%s'", flag)
		}
	}
}
