// Package tofu runs OpenTofu against rendered configuration files. The tofu
// binary is downloaded once and cached, together with provider plugins, under
// the user cache directory.
package tofu

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/hashicorp/terraform-exec/tfexec"
	"github.com/opentofu/tofudl"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nebari-dev/mysql-topology/pkg/status"
)

// DefaultVersion is the OpenTofu release used for validate and plan.
const DefaultVersion = "1.10.6"

// binaryDownloader fetches the tofu binary for the current platform.
type binaryDownloader interface {
	download(ctx context.Context) ([]byte, error)
}

// mirrorDownloader downloads through a tofudl mirror that caches release
// metadata and artifacts in dir.
type mirrorDownloader struct {
	dir string
}

func (m mirrorDownloader) download(ctx context.Context) ([]byte, error) {
	dl, err := tofudl.New()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tofu downloader: %w", err)
	}

	storage, err := tofudl.NewFilesystemStorage(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tofu filesystem storage: %w", err)
	}
	mirror, err := tofudl.NewMirror(
		tofudl.MirrorConfig{
			AllowStale:           true,
			APICacheTimeout:      -1,
			ArtifactCacheTimeout: -1,
		},
		storage,
		dl,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tofu mirror: %w", err)
	}

	return mirror.Download(ctx, tofudl.DownloadOptVersion(tofudl.Version(DefaultVersion)))
}

func getCacheDir(appFs afero.Fs) (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user cache directory: %w", err)
	}

	dir := filepath.Join(userCacheDir, "mysqltopo", "tofu")
	if err := appFs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create tofu cache directory: %w", err)
	}
	return dir, nil
}

func getPluginCacheDir(appFs afero.Fs, cacheDir string) (string, error) {
	dir := filepath.Join(cacheDir, "plugins")
	if err := appFs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create plugin cache directory: %w", err)
	}
	return dir, nil
}

func downloadExecutable(ctx context.Context, appFs afero.Fs, cacheDir string, dl binaryDownloader) (string, error) {
	binary, err := dl.download(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to download tofu binary: %w", err)
	}

	execPath := filepath.Join(cacheDir, "tofu")
	if runtime.GOOS == "windows" {
		execPath += ".exe"
	}
	if err := afero.WriteFile(appFs, execPath, binary, 0755); err != nil {
		return "", fmt.Errorf("failed to write tofu binary to cache: %w", err)
	}
	return execPath, nil
}

// writeFiles creates a fresh working directory holding files. Keys are paths
// relative to the directory.
func writeFiles(appFs afero.Fs, files map[string][]byte) (string, error) {
	dir, err := afero.TempDir(appFs, "", "mysqltopo-tofu")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target := filepath.Join(dir, filepath.Clean(name))
		if err := appFs.MkdirAll(filepath.Dir(target), 0755); err != nil {
			_ = appFs.RemoveAll(dir)
			return "", fmt.Errorf("failed to create directory for %s: %w", name, err)
		}
		if err := afero.WriteFile(appFs, target, files[name], 0644); err != nil {
			_ = appFs.RemoveAll(dir)
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return dir, nil
}

// Workspace is a temporary tofu working directory holding rendered files.
type Workspace struct {
	Dir string

	tf    *tfexec.Terraform
	appFs afero.Fs
}

// Setup downloads the tofu binary (if not cached), configures plugin
// caching and writes files into a new working directory. Callers must Close
// the workspace when done.
func Setup(ctx context.Context, files map[string][]byte) (*Workspace, error) {
	tracer := otel.Tracer("mysqltopo")
	ctx, span := tracer.Start(ctx, "tofu.Setup")
	defer span.End()

	span.SetAttributes(
		attribute.String("tofu.version", DefaultVersion),
		attribute.Int("tofu.files", len(files)),
	)

	appFs := afero.NewOsFs()

	cacheDir, err := getCacheDir(appFs)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	pluginCacheDir, err := getPluginCacheDir(appFs, cacheDir)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Fetching OpenTofu").
		WithStage(status.StageTofu).
		WithField("version", DefaultVersion))

	execPath, err := downloadExecutable(ctx, appFs, cacheDir, mirrorDownloader{dir: cacheDir})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if err := os.Setenv("TF_PLUGIN_CACHE_DIR", pluginCacheDir); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to set TF_PLUGIN_CACHE_DIR: %w", err)
	}

	dir, err := writeFiles(appFs, files)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	tf, err := tfexec.NewTerraform(dir, execPath)
	if err != nil {
		_ = appFs.RemoveAll(dir)
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create terraform executor: %w", err)
	}
	tf.SetStdout(os.Stdout)
	tf.SetStderr(os.Stderr)

	return &Workspace{Dir: dir, tf: tf, appFs: appFs}, nil
}

// Init runs tofu init.
func (w *Workspace) Init(ctx context.Context) error {
	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Running tofu init").WithStage(status.StageTofu))
	if err := w.tf.Init(signalSafeContext(ctx)); err != nil {
		return fmt.Errorf("tofu init failed: %w", err)
	}
	return nil
}

// Validate runs tofu validate and turns error diagnostics into an error.
func (w *Workspace) Validate(ctx context.Context) error {
	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Running tofu validate").WithStage(status.StageTofu))
	out, err := w.tf.Validate(signalSafeContext(ctx))
	if err != nil {
		return fmt.Errorf("tofu validate failed: %w", err)
	}
	if !out.Valid {
		for _, d := range out.Diagnostics {
			status.Errorf(ctx, "%s: %s", d.Summary, d.Detail)
		}
		return fmt.Errorf("tofu validate reported %d error(s)", out.ErrorCount)
	}
	return nil
}

// Plan runs tofu plan and reports whether it found changes.
func (w *Workspace) Plan(ctx context.Context) (bool, error) {
	status.Send(ctx, status.NewUpdate(status.LevelProgress, "Running tofu plan").WithStage(status.StageTofu))
	changes, err := w.tf.Plan(signalSafeContext(ctx))
	if err != nil {
		return false, fmt.Errorf("tofu plan failed: %w", err)
	}
	return changes, nil
}

// Close removes the working directory.
func (w *Workspace) Close() error {
	return w.appFs.RemoveAll(w.Dir)
}
