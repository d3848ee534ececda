package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/spaghettifunk/trigon/engine/core"
)

// ShaderBinary is a SPIR-V program loaded from disk. Words holds the bytecode
// in 32-bit units, the layout Vulkan consumes directly.
type ShaderBinary struct {
	ID       string
	Name     string
	FullPath string
	Words    []uint32
	Loaded   time.Time
}

// AssetManager loads the precompiled shader binaries and keeps a watcher on
// the shader directory. The graphics pipeline is built once at startup and is
// never rebuilt, so a change on disk only produces a log line asking for a
// restart.
type AssetManager struct {
	shaderDir string
	shaders   map[string]*ShaderBinary

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		shaders:  make(map[string]*ShaderBinary),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(shaderDir string) error {
	am.shaderDir = shaderDir

	if err := am.fsnotify.Add(shaderDir); err != nil {
		return fmt.Errorf("failed to watch shader directory %s: %w", shaderDir, err)
	}
	go am.start()

	return nil
}

// LoadShader reads `<name>.spv` from the shader directory and returns its
// bytecode. A missing or truncated file is a startup failure.
func (am *AssetManager) LoadShader(name string) (*ShaderBinary, error) {
	path := filepath.Join(am.shaderDir, fmt.Sprintf("%s.spv", name))

	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read shader module %s: %w", path, err)
	}
	if len(buf) == 0 || len(buf)%4 != 0 {
		return nil, fmt.Errorf("shader module %s is not valid SPIR-V (%d bytes)", path, len(buf))
	}

	shader := &ShaderBinary{
		ID:       uuid.New().String(),
		Name:     name,
		FullPath: path,
		Words:    bytesToBytecode(buf),
		Loaded:   time.Now(),
	}

	am.mutex.Lock()
	am.shaders[name] = shader
	am.mutex.Unlock()

	core.LogDebug("loaded shader '%s' (%d words) as asset %s", name, len(shader.Words), shader.ID)
	return shader, nil
}

// GetShader returns a previously loaded shader binary, or nil.
func (am *AssetManager) GetShader(name string) *ShaderBinary {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	return am.shaders[name]
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	return nil
}

func (am *AssetManager) start() {
	for {
		select {
		case e := <-am.fsnotify.Events:
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(e.Name, ".spv") {
				continue
			}
			am.handleShaderChange(e.Name)

		case e := <-am.fsnotify.Errors:
			core.LogError(e.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) handleShaderChange(path string) {
	name := strings.TrimSuffix(filepath.Base(path), ".spv")

	am.mutex.RLock()
	shader := am.shaders[name]
	am.mutex.RUnlock()

	if shader == nil {
		return
	}
	// The pipeline that consumes this module is immutable once built.
	core.LogWarn("shader '%s' changed on disk (asset %s); restart to pick up the new bytecode", name, shader.ID)
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := 0; i < len(byteCode); i++ {
		byteIndex := i * 4
		byteCode[i] = 0
		byteCode[i] |= uint32(b[byteIndex])
		byteCode[i] |= uint32(b[byteIndex+1]) << 8
		byteCode[i] |= uint32(b[byteIndex+2]) << 16
		byteCode[i] |= uint32(b[byteIndex+3]) << 24
	}

	return byteCode
}
