package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"albumgrab/internal/service"
)

func newGallery(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/albums/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body>
<div class="nidb-album"><a href="%[1]s/files/a.jpg">a</a><p><strong>A.jpg</strong></p></div>
<div class="nidb-album"><a href="%[1]s/files/b.jpg">b</a><p><strong>B.jpg</strong></p></div>
<div class="nidb-album"><a href="http://127.0.0.1:1/c.jpg">c</a><p><strong>C.jpg</strong></p></div>
</body></html>`, srv.URL)
	})
	mux.HandleFunc("/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "content of %s", r.PathValue("name"))
	})
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	cmd := newRootCmd(viper.New())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_DownloadsGallery(t *testing.T) {
	srv := newGallery(t)
	dir := filepath.Join(t.TempDir(), "out", "albums")

	out, err := execute(t, "--output-dir", dir, "-n", "2", "--listing-url", srv.URL+"/albums/", "--no-progress")
	require.NoError(t, err)

	assert.Contains(t, out, "ok    A.jpg")
	assert.Contains(t, out, "ok    B.jpg")
	assert.Contains(t, out, "FAIL  C.jpg")
	assert.Contains(t, out, "Succeeded: 2")

	got, err := os.ReadFile(filepath.Join(dir, "A.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "content of a.jpg", string(got))
	assert.NoFileExists(t, filepath.Join(dir, "C.jpg"))

	// second run over the existing directory
	_, err = execute(t, "--output-dir", dir, "--listing-url", srv.URL+"/albums/", "--no-progress")
	require.NoError(t, err)
}

func TestRootCommand_ListingFailureIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := execute(t, "--output-dir", t.TempDir(), "--listing-url", srv.URL)
	var se *service.SetupError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, service.StepFetch, se.Step)
}

func TestRootCommand_RequiresOutputDir(t *testing.T) {
	_, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output dir")
}

func TestRootCommand_RejectsBadLanes(t *testing.T) {
	_, err := execute(t, "--output-dir", t.TempDir(), "-n", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lanes")
}

func TestMustBind_PanicsOnMissingFlag(t *testing.T) {
	cmd := newRootCmd(viper.New())
	assert.Panics(t, func() {
		mustBind(viper.New(), "output_dir", cmd.Flags().Lookup("output-directory"))
	})
	assert.NotPanics(t, func() {
		mustBind(viper.New(), "output_dir", cmd.Flags().Lookup("output-dir"))
	})
}
