package selfupdate

import (
	"archive/tar"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetNameFor(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         string
		wantErr      bool
	}{
		{"darwin", "amd64", "signiz_Darwin_all.tar.gz", false},
		{"darwin", "arm64", "signiz_Darwin_all.tar.gz", false},
		{"linux", "amd64", "signiz_Linux_x86_64.tar.gz", false},
		{"linux", "arm64", "signiz_Linux_arm64.tar.gz", false},
		{"linux", "386", "signiz_Linux_i386.tar.gz", false},
		{"windows", "amd64", "signiz_Windows_x86_64.zip", false},
		{"freebsd", "amd64", "", true},
		{"linux", "mips", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := assetNameFor(tt.goos, tt.goarch)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseChecksums(t *testing.T) {
	got := parseChecksums([]byte("ABC123  signiz_Darwin_all.tar.gz\nbadline\n  \nfoo  bar  baz\ndef456  signiz_Linux_x86_64.tar.gz\n"))
	assert.Equal(t, map[string]string{
		"signiz_Darwin_all.tar.gz":   "abc123",
		"signiz_Linux_x86_64.tar.gz": "def456",
	}, got)
	assert.Empty(t, parseChecksums(nil))
}

func TestExtractBinary(t *testing.T) {
	dir := t.TempDir()
	content := []byte("#!/bin/sh\necho signiz")

	archive := filepath.Join(dir, "signiz_Linux_x86_64.tar.gz")
	require.NoError(t, os.WriteFile(archive, buildTarGz(t, "dist/signiz", content), 0o600))

	dest := filepath.Join(dir, "out")
	require.NoError(t, extractBinary(archive, filepath.Base(archive), dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	other := filepath.Join(dir, "other.tar.gz")
	require.NoError(t, os.WriteFile(other, buildTarGz(t, "README.md", content), 0o600))
	err = extractBinary(other, "other.tar.gz", filepath.Join(dir, "out2"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSwapBinaryKeepsMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "signiz")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o750))
	fresh := filepath.Join(dir, "new")
	require.NoError(t, os.WriteFile(fresh, []byte("new-binary"), 0o600))

	require.NoError(t, swapBinary(fresh, target))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "new-binary", string(got))
	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
	assert.NoFileExists(t, target+".old")
}

func TestSwapBinaryRestoresOnFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "signiz")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o755))

	err := swapBinary(filepath.Join(dir, "missing"), target)
	require.Error(t, err)

	got, readErr := os.ReadFile(target)
	require.NoError(t, readErr)
	assert.Equal(t, "old", string(got))
}

// updateReleaseServer serves a release v2.0.0 whose checksums.txt lists sum for
// the current platform's asset.
func updateReleaseServer(t *testing.T, archive []byte, sum string) *httptest.Server {
	t.Helper()
	asset, err := assetName()
	if err != nil {
		t.Skipf("no release asset for this platform: %v", err)
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/abhisek/signiz/releases/latest":
			_, _ = w.Write([]byte(`{"tag_name":"v2.0.0","html_url":"https://example.com/v2.0.0"}`))
		case "/abhisek/signiz/releases/download/v2.0.0/" + asset:
			if archive == nil {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(archive)
		case "/abhisek/signiz/releases/download/v2.0.0/checksums.txt":
			fmt.Fprintf(w, "%s  %s\n", sum, asset)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestUpdate(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("release archives for windows are zip files")
	}
	binaryContent := []byte("new-signiz-binary")
	archive := buildTarGz(t, "signiz", binaryContent)
	h := sha256.Sum256(archive)
	archiveHex := hex.EncodeToString(h[:])

	newChecker := func(server *httptest.Server, execPath string) *Checker {
		return NewChecker(
			WithBaseURL(server.URL),
			WithDownloadBaseURL(server.URL),
			withExecPath(func() (string, error) { return execPath, nil }),
		)
	}
	oldBinary := func(t *testing.T) string {
		p := filepath.Join(t.TempDir(), "signiz")
		require.NoError(t, os.WriteFile(p, []byte("old"), 0o755))
		return p
	}

	t.Run("happy path", func(t *testing.T) {
		execPath := oldBinary(t)
		checker := newChecker(updateReleaseServer(t, archive, archiveHex), execPath)

		var stages []string
		var percents []int
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(p UpdateProgress) {
			if len(stages) == 0 || stages[len(stages)-1] != p.Stage {
				stages = append(stages, p.Stage)
			}
			if p.Stage == StageDownload {
				percents = append(percents, p.Percent)
			}
		})
		require.NoError(t, err)

		got, err := os.ReadFile(execPath)
		require.NoError(t, err)
		assert.Equal(t, binaryContent, got)
		assert.Equal(t, []string{"check", "verify", "download", "extract", "apply", "done"}, stages)
		require.NotEmpty(t, percents)
		assert.Equal(t, 100, percents[len(percents)-1])

		leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(execPath), ".signiz-update-*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})

	t.Run("explicit target skips the check", func(t *testing.T) {
		execPath := oldBinary(t)
		checker := newChecker(updateReleaseServer(t, archive, archiveHex), execPath)

		var stages []string
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v3.0.0", TargetVersion: "v2.0.0"}, func(p UpdateProgress) {
			stages = append(stages, p.Stage)
		})
		require.NoError(t, err)
		assert.NotContains(t, stages, StageCheck)
	})

	t.Run("dev build", func(t *testing.T) {
		err := NewChecker().Update(context.Background(), &UpdateInput{CurrentVersion: "(devel)"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrDevBuild)
	})

	t.Run("already latest", func(t *testing.T) {
		checker := newChecker(updateReleaseServer(t, archive, archiveHex), oldBinary(t))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v2.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrAlreadyLatest)
	})

	t.Run("checksum mismatch leaves binary alone", func(t *testing.T) {
		execPath := oldBinary(t)
		checker := newChecker(updateReleaseServer(t, archive, "00"), execPath)
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrChecksum)

		got, readErr := os.ReadFile(execPath)
		require.NoError(t, readErr)
		assert.Equal(t, "old", string(got))
	})

	t.Run("download failure", func(t *testing.T) {
		checker := newChecker(updateReleaseServer(t, nil, archiveHex), oldBinary(t))
		err := checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "download archive")
	})

	t.Run("concurrent update refused", func(t *testing.T) {
		execPath := oldBinary(t)
		held := flock.New(execPath + ".update.lock")
		locked, err := held.TryLock()
		require.NoError(t, err)
		require.True(t, locked)
		t.Cleanup(func() { _ = held.Unlock() })

		checker := newChecker(updateReleaseServer(t, archive, archiveHex), execPath)
		err = checker.Update(context.Background(), &UpdateInput{CurrentVersion: "v1.0.0"}, func(UpdateProgress) {})
		assert.ErrorIs(t, err, ErrUpdateInProgress)
	})
}

// buildTarGz creates a tar.gz archive containing a single file.
func buildTarGz(t *testing.T, name string, content []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gw)

	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     name,
		Size:     int64(len(content)),
		Mode:     0o755,
		Typeflag: tar.TypeReg,
	}))
	_, err := tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gw.Close())
	return buf.Bytes()
}
