package convert

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/webp"
)

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 90, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if filepath.Ext(path) == ".png" {
		err = png.Encode(f, img)
	} else {
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	}
	if err != nil {
		t.Fatal(err)
	}
}

// writeRotatedJPEG writes a w x h JPEG whose EXIF orientation tag is set
// to orientation.
func writeRotatedJPEG(t *testing.T, path string, w, h int, orientation uint16) {
	t.Helper()
	var encoded bytes.Buffer
	if err := jpeg.Encode(&encoded, image.NewNRGBA(image.Rect(0, 0, w, h)), nil); err != nil {
		t.Fatal(err)
	}

	var tiff bytes.Buffer
	tiff.WriteString("II")
	binary.Write(&tiff, binary.LittleEndian, uint16(0x2a))
	binary.Write(&tiff, binary.LittleEndian, uint32(8))
	binary.Write(&tiff, binary.LittleEndian, uint16(1))
	binary.Write(&tiff, binary.LittleEndian, uint16(0x0112))
	binary.Write(&tiff, binary.LittleEndian, uint16(3))
	binary.Write(&tiff, binary.LittleEndian, uint32(1))
	binary.Write(&tiff, binary.LittleEndian, orientation)
	binary.Write(&tiff, binary.LittleEndian, uint16(0))
	binary.Write(&tiff, binary.LittleEndian, uint32(0))
	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)

	var out bytes.Buffer
	out.Write([]byte{0xff, 0xd8, 0xff, 0xe1})
	binary.Write(&out, binary.BigEndian, uint16(len(payload)+2))
	out.Write(payload)
	out.Write(encoded.Bytes()[2:])
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func decodeWebP(t *testing.T, path string) image.Config {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := webp.DecodeConfig(f)
	if err != nil {
		t.Fatalf("output is not WebP: %v", err)
	}
	return cfg
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name          string
		file          string
		width, height int
		converter     Converter
		wantWidth     int
		wantHeight    int
		wantDeleted   bool
	}{
		{
			name:       "png kept",
			file:       "a.png",
			width:      40,
			height:     20,
			converter:  Converter{Quality: 92, TargetExt: ".webp"},
			wantWidth:  40,
			wantHeight: 20,
		},
		{
			name:        "jpeg deleted",
			file:        "B.JPG",
			width:       24,
			height:      36,
			converter:   Converter{Quality: 92, TargetExt: ".webp", DeleteSources: true},
			wantWidth:   24,
			wantHeight:  36,
			wantDeleted: true,
		},
		{
			name:       "downscaled",
			file:       "c.png",
			width:      60,
			height:     30,
			converter:  Converter{Quality: 80, MaxEdge: 30, TargetExt: ".webp"},
			wantWidth:  30,
			wantHeight: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, tt.file)
			writeImage(t, src, tt.width, tt.height)

			res, err := tt.converter.Convert(src)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if !res.Created {
				t.Error("Created = false, want true")
			}
			if res.SourceDeleted != tt.wantDeleted {
				t.Errorf("SourceDeleted = %v, want %v", res.SourceDeleted, tt.wantDeleted)
			}
			if want := tt.converter.OutputPath(src); res.Output != want {
				t.Errorf("Output = %q, want %q", res.Output, want)
			}

			_, statErr := os.Stat(src)
			if tt.wantDeleted && !os.IsNotExist(statErr) {
				t.Errorf("source still exists")
			}
			if !tt.wantDeleted && statErr != nil {
				t.Errorf("source missing: %v", statErr)
			}

			cfg := decodeWebP(t, res.Output)
			if cfg.Width != tt.wantWidth || cfg.Height != tt.wantHeight {
				t.Errorf("output is %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantWidth, tt.wantHeight)
			}

			entries, err := os.ReadDir(dir)
			if err != nil {
				t.Fatal(err)
			}
			for _, e := range entries {
				if e.Name()[0] == '.' {
					t.Errorf("temp file %s left behind", e.Name())
				}
			}
		})
	}
}

func TestConvertSkipsExistingTarget(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	writeImage(t, src, 8, 8)

	existing := filepath.Join(dir, "a.webp")
	if err := os.WriteFile(existing, []byte("keep me"), 0644); err != nil {
		t.Fatal(err)
	}

	c := Converter{Quality: 92, TargetExt: ".webp", DeleteSources: true}
	res, err := c.Convert(src)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if res.Created || res.SourceDeleted || res.Changed() {
		t.Errorf("Convert() = %+v, want nothing created or deleted", res)
	}

	data, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "keep me" {
		t.Error("existing target was overwritten")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed: %v", err)
	}
}

func TestConvertSecondCallNotCreated(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.png")
	writeImage(t, src, 8, 4)

	c := Converter{Quality: 92, TargetExt: ".webp"}
	if res, err := c.Convert(src); err != nil || !res.Created {
		t.Fatalf("first Convert() = %+v, %v", res, err)
	}
	res, err := c.Convert(src)
	if err != nil {
		t.Fatalf("second Convert() error = %v", err)
	}
	if res.Created {
		t.Error("second Convert() created the target again")
	}
}

func TestConvertUndecodableSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(src, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}

	c := Converter{Quality: 92, TargetExt: ".webp", DeleteSources: true}
	if _, err := c.Convert(src); err == nil {
		t.Fatal("Convert() error = nil, want decode error")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source removed after failed conversion: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.webp")); !os.IsNotExist(err) {
		t.Error("target written for undecodable source")
	}
}

func TestConvertAppliesOrientation(t *testing.T) {
	tests := []struct {
		name          string
		orientation   uint16
		width, height int
	}{
		{"upright", 1, 60, 40},
		{"upside down", 3, 60, 40},
		{"rotated 90 clockwise", 6, 40, 60},
		{"rotated 90 counterclockwise", 8, 40, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := filepath.Join(t.TempDir(), "rotated.jpg")
			writeRotatedJPEG(t, src, 60, 40, tt.orientation)

			c := Converter{Quality: 80, TargetExt: ".webp"}
			res, err := c.Convert(src)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			cfg := decodeWebP(t, res.Output)
			if cfg.Width != tt.width || cfg.Height != tt.height {
				t.Errorf("output is %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.width, tt.height)
			}
		})
	}
}

func TestConvertKeepsSourceWhenDeleteFails(t *testing.T) {
	orig := removeFile
	removeFile = func(string) error { return errors.New("permission denied") }
	t.Cleanup(func() { removeFile = orig })

	src := filepath.Join(t.TempDir(), "stuck.png")
	writeImage(t, src, 20, 10)

	c := Converter{Quality: 80, TargetExt: ".webp", DeleteSources: true}
	res, err := c.Convert(src)
	if err != nil {
		t.Fatalf("Convert() error = %v, want delete failure swallowed", err)
	}
	if !res.Created {
		t.Error("Created = false, want true")
	}
	if res.SourceDeleted {
		t.Error("SourceDeleted = true, want false")
	}
	if !res.Changed() {
		t.Error("Changed() = false, want the conversion reported")
	}
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source missing after failed delete: %v", err)
	}
	if _, err := os.Stat(res.Output); err != nil {
		t.Errorf("output missing: %v", err)
	}
}
