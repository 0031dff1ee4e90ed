package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-console/storefront/internal/api"
	apperrors "github.com/storefront-console/storefront/internal/errors"
	"github.com/storefront-console/storefront/internal/logging"
)

type harness struct {
	t          *testing.T
	configPath string
	dataDir    string
	apiURL     string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("STOREFRONT_TOKEN_BACKEND", "file")

	quiet, err := logging.NewLogger(logging.Config{Level: logging.ErrorLevel, Writer: io.Discard})
	require.NoError(t, err)
	server := httptest.NewServer(api.NewMockServer(api.MockOptions{Logger: quiet}))
	t.Cleanup(server.Close)

	return &harness{
		t:          t,
		configPath: filepath.Join(dir, "config.yaml"),
		dataDir:    filepath.Join(dir, "data", "storefront"),
		apiURL:     server.URL,
	}
}

// run executes the CLI against the mock store unless args set --api-url.
func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	h.t.Helper()
	full := append([]string{"--config", h.configPath, "--api-url", h.apiURL}, args...)
	var out, errOut bytes.Buffer
	code = Execute(context.Background(), full, &out, &errOut)
	return code, out.String(), errOut.String()
}

func (h *harness) login() {
	h.t.Helper()
	code, out, errOut := h.run("login", "-u", "mor_2314", "-p", "83r5^_")
	require.Equal(h.t, 0, code, errOut)
	require.Contains(h.t, out, "Logged in as mor_2314.")
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	code, out, _ := h.run("version")
	assert.Equal(t, 0, code)
	assert.Equal(t, "storefront "+api.Version+"\n", out)
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)

	code, _, errOut := h.run("products")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, msgNotSignedIn)

	h.login()

	code, out, _ := h.run("status")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "logged in as mor_2314")
	assert.Contains(t, out, "ok (")
	assert.Contains(t, out, "1 sent, 0 failed")

	code, out, _ = h.run("products")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "$109.95")
	assert.Contains(t, out, "WD 2TB Elements")

	code, out, _ = h.run("products", "--category", "Electronics")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "WD 2TB Elements")
	assert.NotContains(t, out, "Backpack")

	code, out, _ = h.run("logout")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Logged out.")

	code, out, _ = h.run("logout")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Not logged in.")
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	code, out, errOut := h.run("login", "-u", "mor_2314", "-p", "wrong")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)
	assert.Equal(t, "Invalid username or password.\n", errOut)
}

func TestProductDetailAndRaw(t *testing.T) {
	h := newHarness(t)
	h.login()

	code, out, _ := h.run("product", "9")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "$64.00")
	assert.Contains(t, out, "3.3 (203 reviews)")

	code, out, _ = h.run("product", "9", "--raw")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, `"id": 9`)
	assert.NotContains(t, out, "\x1b[")

	code, _, errOut := h.run("product", "4242")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Product 4242 was not found.")

	code, _, errOut = h.run("product", "abc")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Product id must be a positive number.")
}

func TestServerAndNetworkFailures(t *testing.T) {
	h := newHarness(t)
	h.login()

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	h.apiURL = failing.URL
	code, _, errOut := h.run("products")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Server error. Products are not available.\n", errOut)

	failing.Close()
	code, _, errOut = h.run("products")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Could not load products. Please check your connection.\n", errOut)

	code, out, _ := h.run("status")
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Connection error. Please check your internet connection.")
	assert.Contains(t, out, "1 sent, 1 failed")
}

func TestLogoutPurgeRemovesKeyMaterial(t *testing.T) {
	h := newHarness(t)
	h.login()

	keyFile := filepath.Join(h.dataDir, "security", "master.key")
	require.FileExists(t, keyFile)

	code, out, errOut := h.run("logout", "--purge")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Logged out.")
	assert.Contains(t, out, "Local token file and encryption key removed.")
	assert.NoFileExists(t, keyFile)
	assert.NoFileExists(t, filepath.Join(h.dataDir, "token"))

	h.login()
	assert.FileExists(t, keyFile)
}

func TestUserMessage(t *testing.T) {
	ce := &apperrors.ClassifiedError{Message: "shown", Category: apperrors.CategoryServer}
	assert.Equal(t, "shown", UserMessage(ce))

	assert.Equal(t, "Authentication error. Please log in again.", UserMessage(&apperrors.ResponseFault{Status: 403}))
	assert.Equal(t, "Error: boom", UserMessage(errors.New("boom")))
}
