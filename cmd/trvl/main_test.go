package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/trvl/internal/cms/cmstest"
	"github.com/pders01/trvl/internal/config"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()

	w.Close()
	os.Stdout = old
	return <-outC
}

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configPath, previewRef, logLevel = "", "", ""
		quiet, listJSON = false, false
		listPages = 1
	})
}

// writeTestConfig points a config file at the fake CMS and a temp database.
func writeTestConfig(t *testing.T, endpoint string) string {
	t.Helper()
	dir := t.TempDir()
	cfg := config.TestConfig()
	cfg.CMS.Endpoint = endpoint
	cfg.Database.Path = filepath.Join(dir, "seeds.db")
	cfg.Log.File = filepath.Join(dir, "trvl.log")

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.Save(cfg, path))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	resetFlags(t)
	quiet = true

	out := captureStdout(t, func() { versionCmd.Run(nil, nil) })

	if !strings.Contains(out, "trvl dev") {
		t.Errorf("Expected version output to contain 'trvl dev', got: %s", out)
	}
	if !strings.Contains(out, "github.com/pders01/trvl") {
		t.Errorf("Expected version output to contain 'github.com/pders01/trvl', got: %s", out)
	}
	if strings.Contains(out, "╔") {
		t.Errorf("Expected --quiet to suppress the banner, got: %s", out)
	}
}

func TestGenerateConfigCommand(t *testing.T) {
	resetFlags(t)
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configFile := filepath.Join(tmpDir, ".config", "trvl", "config.toml")

	var runErr error
	out := captureStdout(t, func() { runErr = configGenCmd.RunE(nil, nil) })
	require.NoError(t, runErr)

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		t.Errorf("Config file was not created at %s", configFile)
	}
	if !strings.Contains(out, "Generated default configuration at:") {
		t.Errorf("Expected output to contain 'Generated default configuration at:', got: %s", out)
	}
}

func TestListCommand_Text(t *testing.T) {
	srv := cmstest.NewServer(t, cmstest.Posts(3), 2)
	cfgPath := writeTestConfig(t, srv.Endpoint())

	out, err := runCLI(t, "list", "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "01 Mar 2021  Post 1")
	assert.Contains(t, out, "02 Mar 2021  Post 2")
	assert.NotContains(t, out, "Post 3")
	assert.Contains(t, out, "2 posts")
	assert.Contains(t, out, "Carregar mais posts: trvl list --pages 2")
}

func TestListCommand_AllPagesJSON(t *testing.T) {
	srv := cmstest.NewServer(t, cmstest.Posts(5), 2)
	cfgPath := writeTestConfig(t, srv.Endpoint())

	out, err := runCLI(t, "list", "--config", cfgPath, "--pages", "5", "--json")
	require.NoError(t, err)

	var got listOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Results, 5)
	for i, p := range got.Results {
		assert.Equal(t, fmt.Sprintf("post-%d", i+1), p.ID)
	}
	assert.Nil(t, got.NextPage)
	assert.False(t, got.Preview)

	// three pages cover five posts; the loop stops once the cursor is exhausted
	assert.Equal(t, 3, srv.SearchCalls())
}

func TestListCommand_UsesSeedSnapshot(t *testing.T) {
	srv := cmstest.NewServer(t, cmstest.Posts(2), 2)
	cfgPath := writeTestConfig(t, srv.Endpoint())

	_, err := runCLI(t, "generate", "--config", cfgPath)
	require.NoError(t, err)
	require.Equal(t, 1, srv.SearchCalls())

	out, err := runCLI(t, "list", "--config", cfgPath, "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"post-1"`)
	assert.Equal(t, 1, srv.SearchCalls(), "fresh snapshot should be served without a fetch")
}

func TestListCommand_PageFailure(t *testing.T) {
	srv := cmstest.NewServer(t, cmstest.Posts(4), 2)
	srv.FailPage(2, 502)
	cfgPath := writeTestConfig(t, srv.Endpoint())

	_, err := runCLI(t, "list", "--config", cfgPath, "--pages", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading page 2")
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestListCommand_InvalidPages(t *testing.T) {
	_, err := runCLI(t, "list", "--pages", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pages")
}

func TestListCommand_PreviewRef(t *testing.T) {
	srv := cmstest.NewServer(t, cmstest.Posts(1), 2)
	cfgPath := writeTestConfig(t, srv.Endpoint())

	out, err := runCLI(t, "list", "--config", cfgPath, "--preview-ref", "YPreview")
	require.NoError(t, err)
	assert.Contains(t, out, "Modo preview")
	assert.Contains(t, out, "Post 1")
	assert.Zero(t, srv.RootCalls(), "preview ref must bypass master ref lookup")
}
