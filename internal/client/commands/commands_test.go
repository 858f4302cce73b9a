package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	serverauth "github.com/bekosirs/bekoctl/internal/auth"
	"github.com/bekosirs/bekoctl/internal/cli"
	"github.com/bekosirs/bekoctl/internal/client/auth"
	clierrors "github.com/bekosirs/bekoctl/internal/client/errors"
	"github.com/bekosirs/bekoctl/internal/client/output"
	"github.com/bekosirs/bekoctl/internal/config"
	"github.com/bekosirs/bekoctl/internal/logging"
)

type cliFixture struct {
	url       string
	credsPath string
}

// newCLIFixture starts a stub service and points bekoctl at it with a file
// credential backend in a temp directory. ayse owns nothing; mehmet owns
// products 1 and 3.
func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	hash, err := serverauth.HashPassword("secret2")
	require.NoError(t, err)
	usersFile := filepath.Join(t.TempDir(), "users.yaml")
	users := fmt.Sprintf(`users:
  - username: mehmet
    password: %q
    email: mehmet@example.com
    products: [1, 3]
`, hash)
	require.NoError(t, os.WriteFile(usersFile, []byte(users), 0600))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Auth.SeedUsers = []string{"ayse:secret1"}
	cfg.Auth.UsersFile = usersFile
	cfg.RateLimit.LoginPerMinute = 0
	require.NoError(t, cfg.Validate())

	srv, err := cli.NewStubServer(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	f := &cliFixture{
		url:       ts.URL,
		credsPath: filepath.Join(t.TempDir(), "credentials.yaml"),
	}
	t.Setenv("BEKOSIRS_CONFIG_FILE", "")
	t.Setenv("BEKOSIRS_API_BASE_URL", f.url)
	t.Setenv("BEKOSIRS_STORAGE_BACKEND", auth.BackendFile)
	t.Setenv("BEKOSIRS_STORAGE_PATH", f.credsPath)
	return f
}

func (f *cliFixture) run(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, Streams{
		In:  strings.NewReader(stdin),
		Out: &stdout,
		Err: &stderr,
	})
	return stdout.String(), stderr.String(), code
}

func (f *cliFixture) login(t *testing.T, username, password string) {
	t.Helper()
	_, stderr, code := f.run(t, password+"\n", "login", username)
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
}

func decodeEnvelope(t *testing.T, stdout string) output.JSONResponse {
	t.Helper()
	var resp output.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	return resp
}

func TestLoginStatusLogout(t *testing.T) {
	f := newCLIFixture(t)

	stdout, stderr, code := f.run(t, "secret1\n", "login", "ayse")
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Logged in to "+f.url+" as ayse")
	assert.FileExists(t, f.credsPath)

	stdout, _, code = f.run(t, "", "status")
	assert.Equal(t, clierrors.ExitSuccess, code)
	assert.Contains(t, stdout, "Logged in to "+f.url)
	assert.Contains(t, stdout, "Refresh token:")
	assert.Contains(t, stdout, "User ID:")

	stdout, _, code = f.run(t, "", "logout")
	assert.Equal(t, clierrors.ExitSuccess, code)
	assert.Contains(t, stdout, "Logged out successfully")
	assert.NoFileExists(t, f.credsPath)

	stdout, stderr, code = f.run(t, "", "status")
	assert.Equal(t, clierrors.ExitAuthError, code)
	assert.Contains(t, stdout, "Not logged in")
	assert.Empty(t, stderr)
}

func TestLogin_PromptsForUsernameJSON(t *testing.T) {
	f := newCLIFixture(t)

	stdout, stderr, code := f.run(t, "ayse\nsecret1\n", "login", "--json")
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "Username: ")

	resp := decodeEnvelope(t, stdout)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "ayse", data["user"])
	assert.Equal(t, true, data["has_refresh_token"])

	stdout, _, code = f.run(t, "", "status", "--json")
	assert.Equal(t, clierrors.ExitSuccess, code)
	status := decodeEnvelope(t, stdout).Data.(map[string]any)
	assert.Equal(t, true, status["has_access_token"])
	assert.Equal(t, "authenticated", status["phase"])
	assert.Equal(t, auth.BackendFile, status["backend"])
}

func TestLogin_Failures(t *testing.T) {
	f := newCLIFixture(t)

	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantCode   int
		wantStderr string
		notStderr  string
	}{
		{
			name:       "empty username",
			stdin:      "\nsecret1\n",
			args:       []string{"login"},
			wantCode:   clierrors.ExitInvalidArguments,
			wantStderr: "username is required",
			notStderr:  "Password:",
		},
		{
			name:       "wrong password",
			stdin:      "nope\n",
			args:       []string{"login", "ayse"},
			wantCode:   clierrors.ExitAuthError,
			wantStderr: "invalid username or password",
		},
		{
			name:       "empty password",
			stdin:      "\n",
			args:       []string{"login", "ayse"},
			wantCode:   clierrors.ExitInvalidArguments,
			wantStderr: "password is required",
		},
		{
			name:       "too many arguments",
			args:       []string{"login", "ayse", "extra"},
			wantCode:   clierrors.ExitInvalidArguments,
			wantStderr: "accepts at most 1 arg",
		},
		{
			name:       "unreachable server",
			stdin:      "secret1\n",
			args:       []string{"login", "ayse", "--url", "http://127.0.0.1:1"},
			wantCode:   clierrors.ExitGeneralError,
			wantStderr: "could not reach the server",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := f.run(t, tt.stdin, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, stderr, tt.wantStderr)
			if tt.notStderr != "" {
				assert.NotContains(t, stderr, tt.notStderr)
			}
			assert.NoFileExists(t, f.credsPath)
		})
	}
}

func TestLogin_FailureJSONEnvelope(t *testing.T) {
	f := newCLIFixture(t)

	stdout, stderr, code := f.run(t, "nope\n", "login", "ayse", "--json")
	assert.Equal(t, clierrors.ExitAuthError, code)
	assert.NotContains(t, stderr, "Error:")

	resp := decodeEnvelope(t, stdout)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "invalid username or password")
}

func TestProducts(t *testing.T) {
	f := newCLIFixture(t)

	stdout, stderr, code := f.run(t, "", "products")
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Len(t, lines, 8)
	assert.Contains(t, lines[0], "CATEGORY")

	stdout, _, code = f.run(t, "", "products", "--search", "FREEZER")
	assert.Equal(t, clierrors.ExitSuccess, code)
	lines = strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Fridge Freezer")
	assert.Contains(t, lines[2], "Upright Freezer")

	stdout, _, code = f.run(t, "", "products", "--search", "toaster")
	assert.Equal(t, clierrors.ExitSuccess, code)
	assert.Equal(t, "No products match \"toaster\"\n", stdout)
}

func TestMyProducts(t *testing.T) {
	f := newCLIFixture(t)

	_, _, code := f.run(t, "", "my-products")
	assert.Equal(t, clierrors.ExitAuthError, code)

	f.login(t, "ayse", "secret1")
	stdout, _, code := f.run(t, "", "my-products")
	assert.Equal(t, clierrors.ExitSuccess, code)
	assert.Equal(t, MsgNoProductsAssigned+"\n", stdout)

	f.login(t, "mehmet", "secret2")
	stdout, _, code = f.run(t, "", "my-products")
	assert.Equal(t, clierrors.ExitSuccess, code)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "ASSIGNED")
	assert.Contains(t, lines[1], "Washing Machine")
	assert.Contains(t, lines[2], "Fridge Freezer")

	stdout, _, code = f.run(t, "", "my-products", "--json")
	assert.Equal(t, clierrors.ExitSuccess, code)
	assert.Len(t, decodeEnvelope(t, stdout).Data, 2)
}

func TestAutoLogoutOnRejectedToken(t *testing.T) {
	f := newCLIFixture(t)

	backend, err := auth.NewFileBackend(f.credsPath)
	require.NoError(t, err)
	require.NoError(t, backend.Set(context.Background(), auth.TokenKey, "not-a-valid-token"))

	_, stderr, code := f.run(t, "", "my-products")
	assert.Equal(t, clierrors.ExitAuthError, code)
	assert.Contains(t, stderr, clierrors.AuthHint)

	_, _, code = f.run(t, "", "status")
	assert.Equal(t, clierrors.ExitAuthError, code)
	assert.NoFileExists(t, f.credsPath)
}

func TestRegister(t *testing.T) {
	f := newCLIFixture(t)

	stdout, stderr, code := f.run(t, "zeynep@example.com\nsecret3\n", "register", "zeynep", "--first-name", "Zeynep")
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Account zeynep created")
	assert.NoFileExists(t, f.credsPath, "registering does not log in")

	f.login(t, "zeynep", "secret3")

	_, stderr, code = f.run(t, "secret4\n", "register", "ayse", "--email", "other@example.com")
	assert.Equal(t, clierrors.ExitInvalidArguments, code)
	assert.Contains(t, stderr, "username: A user with that username already exists.")

	_, stderr, code = f.run(t, "secret4\n", "register", "deniz", "--email", "ayse@example.com")
	assert.Equal(t, clierrors.ExitInvalidArguments, code)
	assert.Contains(t, stderr, "email:")
}

func TestChangePassword(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t, "ayse", "secret1")

	_, stderr, code := f.run(t, "secret1\nnewpass1\nnewpass2\n", "account", "change-password")
	assert.Equal(t, clierrors.ExitInvalidArguments, code)
	assert.Contains(t, stderr, "new passwords do not match")

	_, stderr, code = f.run(t, "wrong\nnewpass1\nnewpass1\n", "account", "change-password")
	assert.Equal(t, clierrors.ExitInvalidArguments, code)
	assert.Contains(t, stderr, "Current password is incorrect")

	stdout, stderr, code := f.run(t, "secret1\nnewpass1\nnewpass1\n", "account", "change-password")
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Password changed")

	f.login(t, "ayse", "newpass1")
}

func TestChangeEmail(t *testing.T) {
	f := newCLIFixture(t)
	f.login(t, "ayse", "secret1")

	stdout, stderr, code := f.run(t, "n\n", "account", "change-email", "ayse.new@example.com")
	assert.Equal(t, clierrors.ExitSuccess, code)
	assert.Contains(t, stderr, "Email change cancelled")
	assert.Empty(t, stdout)

	_, stderr, code = f.run(t, "wrong\n", "account", "change-email", "ayse.new@example.com", "--yes")
	assert.Equal(t, clierrors.ExitInvalidArguments, code)
	assert.Contains(t, stderr, "Password is incorrect")

	_, stderr, code = f.run(t, "secret1\n", "account", "change-email", "not-an-email", "--yes")
	assert.Equal(t, clierrors.ExitInvalidArguments, code)
	assert.Contains(t, stderr, "enter a valid email address")

	stdout, stderr, code = f.run(t, "y\nsecret1\n", "account", "change-email", "ayse.new@example.com")
	require.Equal(t, clierrors.ExitSuccess, code, stderr)
	assert.Contains(t, stdout, "Email changed to ayse.new@example.com")
}

func TestInvalidUsage(t *testing.T) {
	f := newCLIFixture(t)

	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown flag", args: []string{"products", "--bogus"}},
		{name: "unexpected argument", args: []string{"logout", "now"}},
		{name: "missing new email", args: []string{"account", "change-email"}},
		{name: "unknown storage backend", args: []string{"status", "--storage", "vault"}},
		{name: "bad url", args: []string{"products", "--url", "localhost:8000"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := f.run(t, "", tt.args...)
			assert.Equal(t, clierrors.ExitInvalidArguments, code)
			assert.Contains(t, stderr, "Error:")
		})
	}
}
