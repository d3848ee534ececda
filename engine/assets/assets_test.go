package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T, dir string) *AssetManager {
	t.Helper()
	am, err := NewAssetManager()
	if err != nil {
		t.Fatal(err)
	}
	if err := am.Initialize(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		am.Shutdown()
	})
	return am
}

func TestLoadShader(t *testing.T) {
	dir := t.TempDir()
	// Not real SPIR-V, but the loader only checks the word alignment.
	raw := []byte{0x03, 0x02, 0x23, 0x07, 0x00, 0x00, 0x01, 0x00}
	if err := os.WriteFile(filepath.Join(dir, "vert.spv"), raw, 0o644); err != nil {
		t.Fatal(err)
	}

	am := newTestManager(t, dir)

	shader, err := am.LoadShader("vert")
	if err != nil {
		t.Fatalf("LoadShader failed: %v", err)
	}
	if shader.ID == "" {
		t.Error("shader must get an asset id")
	}

	want := []uint32{0x07230203, 0x00010000}
	if len(shader.Words) != len(want) {
		t.Fatalf("got %d words, want %d", len(shader.Words), len(want))
	}
	for i := range want {
		if shader.Words[i] != want[i] {
			t.Errorf("word %d = %#08x, want %#08x", i, shader.Words[i], want[i])
		}
	}

	if am.GetShader("vert") != shader {
		t.Error("loaded shader must be retrievable by name")
	}
}

func TestLoadShaderMissingFile(t *testing.T) {
	am := newTestManager(t, t.TempDir())
	if _, err := am.LoadShader("frag"); err == nil {
		t.Fatal("expected an error for a missing shader file")
	}
}

func TestLoadShaderRejectsTruncatedBytecode(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "frag.spv"), []byte{0x01, 0x02, 0x03}, 0o644); err != nil {
		t.Fatal(err)
	}

	am := newTestManager(t, dir)
	if _, err := am.LoadShader("frag"); err == nil {
		t.Fatal("expected an error for bytecode that is not a whole number of words")
	}
}
