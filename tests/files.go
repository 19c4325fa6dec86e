// Package tests provides helpers locating, and downloading when missing,
// the external test suites used by the emulator tests.
package tests

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"golang.org/x/sync/errgroup"
)

func testsDir() string {
	_, b, _, _ := runtime.Caller(0)
	return filepath.Dir(b)
}

func decompress(zipFile, dest string) (int, error) {
	r, err := zip.OpenReader(zipFile)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	for _, f := range r.File {
		fname := strings.Replace(f.Name, "nes-test-roms-master", "nes-test-roms", 1)
		fpath := filepath.Join(dest, fname)
		if !strings.HasPrefix(fpath, filepath.Clean(dest)+string(os.PathSeparator)) {
			return 0, fmt.Errorf("%s: illegal file path", fpath)
		}

		if f.FileInfo().IsDir() {
			os.MkdirAll(fpath, os.ModePerm)
			continue
		}
		if err := extract(f, fpath); err != nil {
			return 0, err
		}
	}
	return len(r.File), nil
}

func extract(f *zip.File, fpath string) error {
	if err := os.MkdirAll(filepath.Dir(fpath), os.ModePerm); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func download(url string, w io.Writer) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	_, err = io.Copy(w, resp.Body)
	return err
}

func downloadTestRoms(dest string) error {
	const url = `https://github.com/christopherpow/nes-test-roms/archive/refs/heads/master.zip`

	tmpf, err := os.CreateTemp("", "nes-test-roms-*-.zip")
	if err != nil {
		return err
	}
	defer os.Remove(tmpf.Name())
	defer tmpf.Close()

	if err := download(url, tmpf); err != nil {
		return err
	}
	if _, err := decompress(tmpf.Name(), dest); err != nil {
		return fmt.Errorf("failed to decompress test roms: %s", err)
	}
	return nil
}

var (
	romsOnce sync.Once
	romsDir  string
	romsErr  error
)

// RomsPath returns the path of the nes-test-roms suite, downloading it on
// first use. The test is skipped if the suite is not available.
func RomsPath(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping test needing nes-test-roms in short mode")
	}

	romsOnce.Do(func() {
		romsDir = filepath.Join(testsDir(), "nes-test-roms")
		if _, err := os.Stat(romsDir); errors.Is(err, fs.ErrNotExist) {
			tb.Log("nes-test-roms directory not found, downloading it...")
			romsErr = downloadTestRoms(testsDir())
		}
	})
	if romsErr != nil {
		tb.Skipf("nes-test-roms unavailable: %v", romsErr)
	}
	return romsDir
}

// download all 256 (one per opcode) single step processor test files into dest.
func downloadProcTests(tb testing.TB, dest string) error {
	const urlfmt = `https://raw.githubusercontent.com/SingleStepTests/65x02/main/nes6502/v1/%02x.json`

	tempdir, err := os.MkdirTemp("", "processor.tests.*")
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())

	for opcode := range 256 {
		url := fmt.Sprintf(urlfmt, opcode)
		g.Go(func() error {
			f, err := os.Create(filepath.Join(tempdir, fmt.Sprintf("%02x.json", opcode)))
			if err != nil {
				return err
			}
			defer f.Close()
			return download(url, f)
		})
	}

	if err := g.Wait(); err != nil {
		os.RemoveAll(tempdir)
		return fmt.Errorf("failed to download all files: %s", err)
	}

	tb.Log("renaming", tempdir, "to", dest)
	return os.Rename(tempdir, dest)
}

var (
	procOnce sync.Once
	procDir  string
	procErr  error
)

// ProcTestsPath returns the directory holding the per-opcode single step
// processor tests (one <opcode>.json file per opcode), downloading them on
// first use. The test is skipped if they are not available.
func ProcTestsPath(tb testing.TB) string {
	tb.Helper()
	if testing.Short() {
		tb.Skip("skipping single step processor tests in short mode")
	}

	procOnce.Do(func() {
		procDir = filepath.Join(testsDir(), "processor.tests")
		if _, err := os.Stat(procDir); errors.Is(err, fs.ErrNotExist) {
			tb.Log("processor tests directory not found, downloading it...")
			procErr = downloadProcTests(tb, procDir)
		}
	})
	if procErr != nil {
		tb.Skipf("processor tests unavailable: %v", procErr)
	}
	return procDir
}
