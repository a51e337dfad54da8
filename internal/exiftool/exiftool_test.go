package exiftool

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/photocatalog/internal/failure"
)

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{name: "native", opts: Options{Backend: BackendNative}},
		{name: "exiftool", opts: Options{Backend: BackendExiftool}},
		{name: "auto", opts: Options{Backend: BackendAuto}},
		{name: "auto with missing binary", opts: Options{Backend: BackendAuto, BinaryPath: "/nonexistent/exiftool"}},
		{name: "unknown", opts: Options{Backend: "magic"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && ex == nil {
				t.Fatal("New() returned nil extractor")
			}
		})
	}

	ex, _ := New(Options{Backend: BackendAuto, BinaryPath: "/nonexistent/exiftool"})
	if _, ok := ex.(*Native); !ok {
		t.Errorf("auto with missing binary = %T, want *Native", ex)
	}
}

func TestNativeWithoutEXIF(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "plain.jpg")
	writeJPEG(t, plain, 16, 8)

	facts, err := (&Native{}).Extract(context.Background(), []string{plain})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	got, ok := facts["plain.jpg"]
	if !ok {
		t.Fatal("Extract() has no entry for plain.jpg")
	}
	if len(got) != 0 {
		t.Errorf("Extract() facts = %v, want none", got)
	}
}

func TestNativeMissingFileDegrades(t *testing.T) {
	dir := t.TempDir()
	ok := filepath.Join(dir, "ok.jpg")
	writeJPEG(t, ok, 4, 4)
	missing := filepath.Join(dir, "missing.jpg")

	facts, err := (&Native{}).Extract(context.Background(), []string{ok, missing})
	if err == nil {
		t.Fatal("Extract() error = nil, want degraded error")
	}
	if !failure.IsDegraded(err) {
		t.Errorf("Extract() error = %v, want degraded", err)
	}
	for _, name := range []string{"ok.jpg", "missing.jpg"} {
		if _, found := facts[name]; !found {
			t.Errorf("Extract() has no entry for %s", name)
		}
	}
}

func TestNativeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Native{}).Extract(ctx, []string{"a.jpg"})
	if err != context.Canceled {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}

func TestExiftoolMissingBinaryDegradesAll(t *testing.T) {
	ex := &Exiftool{BinaryPath: filepath.Join(t.TempDir(), "no-exiftool")}
	facts, err := ex.Extract(context.Background(), []string{"a.jpg", "b.png"})
	if !failure.IsDegraded(err) {
		t.Fatalf("Extract() error = %v, want degraded", err)
	}
	if len(facts) != 2 {
		t.Errorf("Extract() returned %d entries, want 2", len(facts))
	}
}

func TestExiftoolBatch(t *testing.T) {
	if _, err := exec.LookPath("exiftool"); err != nil {
		t.Skip("exiftool not installed")
	}

	dir := t.TempDir()
	paths := []string{filepath.Join(dir, "a.jpg"), filepath.Join(dir, "b.jpg")}
	for _, p := range paths {
		writeJPEG(t, p, 12, 6)
	}

	facts, err := (&Exiftool{}).Extract(context.Background(), paths)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	for _, name := range []string{"a.jpg", "b.jpg"} {
		got, ok := facts[name]
		if !ok {
			t.Fatalf("Extract() has no entry for %s", name)
		}
		if w := got.Get("ImageWidth"); w.Text() != "12" {
			t.Errorf("%s ImageWidth = %q, want 12", name, w.Text())
		}
	}
}
