package tofu

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

type mockDownloader struct {
	binary []byte
	err    error
}

func (m *mockDownloader) download(ctx context.Context) ([]byte, error) {
	return m.binary, m.err
}

func TestDefaultVersion(t *testing.T) {
	if parts := strings.Split(DefaultVersion, "."); len(parts) != 3 {
		t.Errorf("DefaultVersion = %q, expected semver format (x.y.z)", DefaultVersion)
	}
}

func TestGetCacheDir(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		memFs := afero.NewMemMapFs()

		cacheDir, err := getCacheDir(memFs)
		if err != nil {
			t.Fatalf("getCacheDir() error = %v", err)
		}
		if !strings.HasSuffix(cacheDir, filepath.Join("mysqltopo", "tofu")) {
			t.Errorf("getCacheDir() = %v, want path ending with mysqltopo/tofu", cacheDir)
		}

		exists, err := afero.DirExists(memFs, cacheDir)
		if err != nil {
			t.Fatalf("Failed to check directory: %v", err)
		}
		if !exists {
			t.Error("getCacheDir() did not create directory")
		}
	})

	t.Run("succeeds if directory already exists", func(t *testing.T) {
		memFs := afero.NewMemMapFs()

		userCache, _ := os.UserCacheDir()
		existing := filepath.Join(userCache, "mysqltopo", "tofu")
		if err := memFs.MkdirAll(existing, 0755); err != nil {
			t.Fatalf("Failed to pre-create directory: %v", err)
		}

		cacheDir, err := getCacheDir(memFs)
		if err != nil {
			t.Fatalf("getCacheDir() error = %v", err)
		}
		if cacheDir != existing {
			t.Errorf("getCacheDir() = %v, want %v", cacheDir, existing)
		}
	})
}

func TestGetPluginCacheDir(t *testing.T) {
	memFs := afero.NewMemMapFs()
	baseDir, err := afero.TempDir(memFs, "", "tofu-cache")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	pluginDir, err := getPluginCacheDir(memFs, baseDir)
	if err != nil {
		t.Fatalf("getPluginCacheDir() error = %v", err)
	}
	if want := filepath.Join(baseDir, "plugins"); pluginDir != want {
		t.Errorf("getPluginCacheDir() = %v, want %v", pluginDir, want)
	}
	if exists, _ := afero.DirExists(memFs, pluginDir); !exists {
		t.Error("getPluginCacheDir() did not create directory")
	}
}

func TestDownloadExecutable(t *testing.T) {
	t.Run("writes binary to directory", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		dir, err := afero.TempDir(memFs, "", "tofu-cache")
		if err != nil {
			t.Fatalf("Failed to create temp dir: %v", err)
		}

		fakeBinary := []byte("fake tofu binary content")
		execPath, err := downloadExecutable(context.Background(), memFs, dir, &mockDownloader{binary: fakeBinary})
		if err != nil {
			t.Fatalf("downloadExecutable() error = %v", err)
		}

		wantName := "tofu"
		if runtime.GOOS == "windows" {
			wantName = "tofu.exe"
		}
		if filepath.Base(execPath) != wantName {
			t.Errorf("execPath = %v, want filename %v", execPath, wantName)
		}

		content, err := afero.ReadFile(memFs, execPath)
		if err != nil {
			t.Fatalf("Failed to read binary: %v", err)
		}
		if string(content) != string(fakeBinary) {
			t.Error("binary content mismatch")
		}
	})

	t.Run("returns error when download fails", func(t *testing.T) {
		memFs := afero.NewMemMapFs()

		_, err := downloadExecutable(context.Background(), memFs, "/cache", &mockDownloader{err: errors.New("network error")})
		if err == nil {
			t.Fatal("downloadExecutable() expected error, got nil")
		}
		if !strings.Contains(err.Error(), "network error") {
			t.Errorf("error = %v, want error containing 'network error'", err)
		}
	})
}

func TestWriteFiles(t *testing.T) {
	t.Run("writes every file", func(t *testing.T) {
		memFs := afero.NewMemMapFs()
		files := map[string][]byte{
			"main.tf.json":          []byte(`{"resource":{}}`),
			"modules/net/main.tf":   []byte("# net"),
			"terraform.tfvars.json": []byte("{}"),
		}

		dir, err := writeFiles(memFs, files)
		if err != nil {
			t.Fatalf("writeFiles() error = %v", err)
		}
		if !strings.Contains(dir, "mysqltopo-tofu") {
			t.Errorf("dir = %v, want path containing mysqltopo-tofu", dir)
		}

		for name, want := range files {
			got, err := afero.ReadFile(memFs, filepath.Join(dir, name))
			if err != nil {
				t.Fatalf("Failed to read %s: %v", name, err)
			}
			if string(got) != string(want) {
				t.Errorf("%s = %q, want %q", name, got, want)
			}
		}
	})

	t.Run("empty file set creates empty directory", func(t *testing.T) {
		memFs := afero.NewMemMapFs()

		dir, err := writeFiles(memFs, nil)
		if err != nil {
			t.Fatalf("writeFiles() error = %v", err)
		}
		entries, err := afero.ReadDir(memFs, dir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("directory has %d entries, want 0", len(entries))
		}
	})
}

func TestWorkspaceClose(t *testing.T) {
	memFs := afero.NewMemMapFs()
	dir, err := writeFiles(memFs, map[string][]byte{"main.tf.json": []byte("{}")})
	if err != nil {
		t.Fatalf("writeFiles() error = %v", err)
	}

	w := &Workspace{Dir: dir, appFs: memFs}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if exists, _ := afero.DirExists(memFs, dir); exists {
		t.Error("Close() left the working directory behind")
	}
}
