package backend

import (
	"errors"
	"slices"
	"testing"
)

// stubDevice satisfies Device for registry tests.
type stubDevice struct {
	Device
	cfg Config
}

func (d *stubDevice) Name() string { return "stub" }

func registerStub(t *testing.T, name string, err error) {
	t.Helper()
	Register(name, func(cfg Config) (Device, error) {
		if err != nil {
			return nil, err
		}
		return &stubDevice{cfg: cfg}, nil
	})
	t.Cleanup(func() { Unregister(name) })
}

func TestRegisterAndOpen(t *testing.T) {
	registerStub(t, "stub-ok", nil)

	if !IsRegistered("stub-ok") {
		t.Fatal("IsRegistered = false after Register")
	}
	if !slices.Contains(Available(), "stub-ok") {
		t.Errorf("Available() = %v, missing stub-ok", Available())
	}
	if !slices.IsSorted(Available()) {
		t.Errorf("Available() = %v, not sorted", Available())
	}

	dev, err := Open("stub-ok", Config{Width: 3, Height: 4})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if sd := dev.(*stubDevice); sd.cfg.Width != 3 || sd.cfg.Height != 4 {
		t.Errorf("opener got %+v", sd.cfg)
	}
}

func TestOpenErrors(t *testing.T) {
	errOpen := errors.New("no adapter")
	registerStub(t, "stub-fail", errOpen)

	tests := []struct {
		name string
		want []error
	}{
		{"not-registered", []error{ErrBackendNotAvailable}},
		{"stub-fail", []error{ErrBackendNotAvailable, errOpen}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, err := Open(tt.name, Config{Width: 1, Height: 1})
			if dev != nil {
				t.Error("Open returned a device on error")
			}
			for _, want := range tt.want {
				if !errors.Is(err, want) {
					t.Errorf("err = %v, want %v in chain", err, want)
				}
			}
		})
	}
}

func TestUnregister(t *testing.T) {
	Register("stub-gone", func(Config) (Device, error) { return &stubDevice{}, nil })
	Unregister("stub-gone")
	if IsRegistered("stub-gone") {
		t.Error("still registered after Unregister")
	}
	if _, err := Open("stub-gone", Config{}); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("err = %v, want ErrBackendNotAvailable", err)
	}
}

func TestBestPrefersGPU(t *testing.T) {
	for _, name := range []string{NameGPU, NameSoftware} {
		if IsRegistered(name) {
			t.Skipf("%s registered by another package", name)
		}
	}
	registerStub(t, NameSoftware, nil)
	if got := Best(); got != NameSoftware {
		t.Errorf("Best() = %q, want %q", got, NameSoftware)
	}
	registerStub(t, NameGPU, nil)
	if got := Best(); got != NameGPU {
		t.Errorf("Best() = %q, want %q", got, NameGPU)
	}
}

func TestRasterModeString(t *testing.T) {
	tests := []struct {
		mode RasterMode
		want string
	}{
		{RasterFill, "Fill"},
		{RasterWireframe, "Wireframe"},
		{RasterMode(9), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("RasterMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestTextureArrayDescLayers(t *testing.T) {
	if (&TextureArrayDesc{}).Layers() != 0 {
		t.Error("empty desc has layers")
	}
	d := &TextureArrayDesc{Levels: []MipLevel{{Size: 1, Layers: make([][]byte, 3)}}}
	if d.Layers() != 3 {
		t.Errorf("Layers() = %d, want 3", d.Layers())
	}
}
