package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamdir/internal/roster"
)

func TestServeCommandFlags(t *testing.T) {
	cmd := NewServeCommand(testRootOptions("text"))
	for _, name := range []string{"addr", "db", "seed"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
}

func TestServeCommand_ServesSeededDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "teamdir.db")
	listening := make(chan net.Addr, 1)

	opts := &ServeOptions{
		RootOptions: testRootOptions("text"),
		OnListen:    func(a net.Addr) { listening <- a },
	}
	cmd := newServeCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0", "--db", db, "--seed", "12"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cmd.SetContext(ctx)

	done := make(chan error, 1)
	go func() { done <- cmd.Execute() }()

	var addr net.Addr
	select {
	case addr = <-listening:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	resp, err := http.Get("http://" + addr.String() + "/api/team-members?limit=5&role=Admin")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	var page roster.Page
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Equal(t, []string{"member-1", "member-4", "member-7", "member-10"}, roster.IDs(page.Members))
	assert.Equal(t, 4, page.Info.TotalCount)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	assert.Equal(t, 12, countMembers(t, db))
}

func TestServeCommand_KeepsExistingRoster(t *testing.T) {
	db := filepath.Join(t.TempDir(), "teamdir.db")
	_, err := executeSeed(t, "text", "--db", db, "--count", "3")
	require.NoError(t, err)

	// Stop the server as soon as it is listening.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	opts := &ServeOptions{
		RootOptions: testRootOptions("text"),
		OnListen:    func(net.Addr) { cancel() },
	}
	cmd := newServeCommand(opts)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--addr", "127.0.0.1:0", "--db", db, "--seed", "50"})
	cmd.SetContext(ctx)

	require.NoError(t, cmd.Execute())
	assert.Equal(t, 3, countMembers(t, db))
}

func TestServeCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative seed", []string{"--seed=-1"}, "--seed must not be negative"},
		{"bad database", []string{"--db", "/nonexistent/dir/teamdir.db"}, "failed to open database"},
		{"bad address", []string{"--db", filepath.Join(t.TempDir(), "x.db"), "--addr", "256.0.0.1:99999"}, "failed to listen"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := NewServeCommand(testRootOptions("text"))
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
