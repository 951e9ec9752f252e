package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/gofrs/flock"
	"github.com/klauspost/compress/gzip"
	"golang.org/x/mod/semver"
)

const binaryName = "signiz"

var (
	ErrDevBuild         = errors.New("cannot update a development build")
	ErrAlreadyLatest    = errors.New("already running the latest version")
	ErrChecksum         = errors.New("checksum verification failed")
	ErrUpdateInProgress = errors.New("another update is already running")
)

type UpdateInput struct {
	CurrentVersion string
	TargetVersion  string
}

// Update stages, reported in this order.
const (
	StageCheck    = "check"
	StageVerify   = "verify"
	StageDownload = "download"
	StageExtract  = "extract"
	StageApply    = "apply"
	StageDone     = "done"
)

// UpdateProgress is reported at each stage and, while downloading, as
// bytes arrive. Percent is -1 when the size is unknown.
type UpdateProgress struct {
	Stage   string
	Message string
	Percent int
}

// Update replaces the running binary with input.TargetVersion, or the
// latest release when no target is given. The archive is checked against
// the release's checksums.txt before anything on disk changes.
func (c *Checker) Update(ctx context.Context, input *UpdateInput, progress func(UpdateProgress)) error {
	if input.CurrentVersion == "(devel)" {
		return ErrDevBuild
	}
	report := func(stage, msg string) {
		progress(UpdateProgress{Stage: stage, Message: msg, Percent: -1})
	}

	tag := input.TargetVersion
	if tag != "" && !semver.IsValid(canonical(tag)) {
		return fmt.Errorf("target version %q is not a semantic version", tag)
	}
	if tag == "" {
		report(StageCheck, "Checking for latest version...")
		result, err := c.Check(ctx, &CheckInput{Version: input.CurrentVersion})
		if err != nil {
			return fmt.Errorf("check for updates: %w", err)
		}
		if !result.UpdateAvailable {
			return ErrAlreadyLatest
		}
		tag = result.LatestVersion
	}

	targetPath, err := c.execPath()
	if err != nil {
		return fmt.Errorf("resolve executable path: %w", err)
	}
	lock := flock.New(targetPath + ".update.lock")
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", lock.Path(), err)
	}
	if !locked {
		return ErrUpdateInProgress
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	asset, err := assetName()
	if err != nil {
		return err
	}
	releaseURL := fmt.Sprintf("%s/%s/%s/releases/download/%s", c.downloadBaseURL, c.owner, c.repo, tag)

	report(StageVerify, "Fetching checksums...")
	sums, err := c.fetchChecksums(ctx, releaseURL+"/checksums.txt")
	if err != nil {
		return fmt.Errorf("download checksums: %w", err)
	}
	want, ok := sums[asset]
	if !ok {
		return fmt.Errorf("no checksum found for %s in checksums.txt", asset)
	}

	// Staging next to the binary keeps the final rename on one filesystem.
	workDir, err := os.MkdirTemp(filepath.Dir(targetPath), "."+binaryName+"-update-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	archivePath := filepath.Join(workDir, asset)
	got, err := c.download(ctx, releaseURL+"/"+asset, archivePath, func(pct int) {
		progress(UpdateProgress{Stage: StageDownload, Message: fmt.Sprintf("Downloading %s...", tag), Percent: pct})
	})
	if err != nil {
		return fmt.Errorf("download archive: %w", err)
	}
	if got != want {
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksum, want, got)
	}

	report(StageExtract, "Extracting binary...")
	newPath := filepath.Join(workDir, binaryName+"-new")
	if err := extractBinary(archivePath, asset, newPath); err != nil {
		return fmt.Errorf("extract binary: %w", err)
	}

	report(StageApply, "Applying update...")
	if err := swapBinary(newPath, targetPath); err != nil {
		return fmt.Errorf("apply update: %w", err)
	}

	report(StageDone, fmt.Sprintf("Updated to %s", tag))
	return nil
}

func assetName() (string, error) {
	return assetNameFor(runtime.GOOS, runtime.GOARCH)
}

// assetNameFor follows the release archive naming, e.g.
// signiz_Linux_x86_64.tar.gz. macOS ships one universal archive.
func assetNameFor(goos, goarch string) (string, error) {
	if goos == "darwin" {
		return binaryName + "_Darwin_all.tar.gz", nil
	}

	arch, ok := releaseArch[goarch]
	if !ok {
		return "", fmt.Errorf("unsupported architecture: %s", goarch)
	}
	switch goos {
	case "linux":
		return fmt.Sprintf("%s_Linux_%s.tar.gz", binaryName, arch), nil
	case "windows":
		return fmt.Sprintf("%s_Windows_%s.zip", binaryName, arch), nil
	}
	return "", fmt.Errorf("unsupported operating system: %s", goos)
}

var releaseArch = map[string]string{
	"amd64": "x86_64",
	"arm64": "arm64",
	"386":   "i386",
}

func (c *Checker) fetchChecksums(ctx context.Context, url string) (map[string]string, error) {
	resp, err := c.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode(), url)
	}
	return parseChecksums(resp.Body()), nil
}

// parseChecksums reads sha256sum output: "<hex>  <file>" per line.
func parseChecksums(data []byte) map[string]string {
	result := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		result[fields[1]] = strings.ToLower(fields[0])
	}
	return result
}

// download streams url into dest and returns the hex SHA-256 of what was
// written. onProgress receives whole percentages when the size is known.
func (c *Checker) download(ctx context.Context, url, dest string, onProgress func(int)) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return "", err
	}
	body := resp.RawBody()
	defer body.Close()
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode(), url)
	}

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	pw := &progressWriter{total: resp.RawResponse.ContentLength, last: -1, report: onProgress}
	if _, err := io.Copy(io.MultiWriter(f, h, pw), body); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	first := p.written == 0
	p.written += int64(len(b))
	if p.total <= 0 {
		if first {
			p.report(-1)
		}
		return len(b), nil
	}
	if pct := int(p.written * 100 / p.total); pct != p.last {
		p.last = pct
		p.report(pct)
	}
	return len(b), nil
}

// extractBinary writes the signiz executable from archivePath to dest.
func extractBinary(archivePath, asset, dest string) error {
	if strings.HasSuffix(asset, ".zip") {
		return extractFromZip(archivePath, binaryName+".exe", dest)
	}
	return extractFromTarGz(archivePath, binaryName, dest)
}

func extractFromTarGz(archivePath, name, dest string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return fmt.Errorf("binary %q not found in archive", name)
		}
		if err != nil {
			return fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && filepath.Base(hdr.Name) == name {
			return writeExecutable(dest, tr)
		}
	}
}

func extractFromZip(archivePath, name, dest string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer r.Close()

	for _, zf := range r.File {
		if filepath.Base(zf.Name) != name {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		return writeExecutable(dest, rc)
	}
	return fmt.Errorf("binary %q not found in archive", name)
}

func writeExecutable(dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o755)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// swapBinary moves newPath over targetPath, keeping the target's mode. The
// old binary is parked at targetPath+".old" and restored if the move fails.
func swapBinary(newPath, targetPath string) error {
	info, err := os.Stat(targetPath)
	if err != nil {
		return fmt.Errorf("stat target: %w", err)
	}
	if err := os.Chmod(newPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}

	backup := targetPath + ".old"
	_ = os.Remove(backup)
	if err := os.Rename(targetPath, backup); err != nil {
		return fmt.Errorf("move current binary aside: %w", err)
	}
	if err := os.Rename(newPath, targetPath); err != nil {
		if rbErr := os.Rename(backup, targetPath); rbErr != nil {
			return fmt.Errorf("install new binary: %w (restore failed: %v)", err, rbErr)
		}
		return fmt.Errorf("install new binary: %w", err)
	}
	// Windows cannot delete a running executable; the next update clears it.
	_ = os.Remove(backup)
	return nil
}
