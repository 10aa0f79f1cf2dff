package tui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/trvl/internal/config"
)

func TestBannerText(t *testing.T) {
	out := BannerText("1.0.0-test")

	if !strings.Contains(out, "spacetraveling reader") {
		t.Errorf("Expected banner to contain tagline, got: %s", out)
	}
	if !strings.Contains(out, "╔") || !strings.Contains(out, "╝") {
		t.Errorf("Expected banner to contain border characters, got: %s", out)
	}
	if !strings.Contains(out, "v1.0.0-test") {
		t.Errorf("Expected banner to contain version 'v1.0.0-test', got: %s", out)
	}
	if strings.Contains(BannerText("dev"), "vdev") {
		t.Error("dev builds should not get a version tag")
	}
}

func TestGetCompactBanner(t *testing.T) {
	message := "Test message"
	result := GetCompactBanner(message)

	if !strings.Contains(result, message) {
		t.Errorf("Expected compact banner to contain '%s', got: %s", message, result)
	}
	if !strings.Contains(result, "▄▄▄▄▄") {
		t.Errorf("Expected compact banner to contain logo elements, got: %s", result)
	}
}

func TestGetEmptyMessage(t *testing.T) {
	if !strings.Contains(GetEmptyMessage(), MsgNoPosts) {
		t.Errorf("Expected empty message to mention %q", MsgNoPosts)
	}
}

func TestApplyColors(t *testing.T) {
	orig := PrimaryColor
	t.Cleanup(func() {
		PrimaryColor = orig
		buildStyles()
	})

	ApplyColors(config.UIColors{Primary: "#000000"})
	if PrimaryColor != lipgloss.Color("#000000") {
		t.Errorf("Expected primary color override, got %v", PrimaryColor)
	}
	if SecondaryColor == "" {
		t.Error("Empty overrides must keep the existing color")
	}
}
