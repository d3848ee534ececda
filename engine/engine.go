package engine

import (
	"fmt"

	"github.com/spaghettifunk/trigon/engine/assets"
	"github.com/spaghettifunk/trigon/engine/core"
	"github.com/spaghettifunk/trigon/engine/platform"
	"github.com/spaghettifunk/trigon/engine/renderer"
	"github.com/spaghettifunk/trigon/engine/renderer/vulkan"
)

// Engine ties the platform window, the asset manager and the renderer
// together and owns the main loop.
type Engine struct {
	config       *Config
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     *vulkan.VulkanRenderer
	loop         *renderer.Loop
	clock        *core.Clock
	isRunning    bool
	lastTime     float64
}

func New(cfg *Config) (*Engine, error) {
	p := platform.New()

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	vr := vulkan.New(p, am)

	return &Engine{
		config:       cfg,
		platform:     p,
		assetManager: am,
		renderer:     vr,
		loop:         renderer.NewLoop(vr, nil),
		clock:        core.NewClock(),
		isRunning:    true,
	}, nil
}

func (e *Engine) Initialize() error {
	if !core.EventSystemInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onEvent)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)

	if err := e.platform.Startup(e.config.WindowTitle, e.config.WindowWidth, e.config.WindowHeight); err != nil {
		return err
	}

	if err := e.assetManager.Initialize(e.config.ShaderDir); err != nil {
		return err
	}

	if err := e.renderer.Initialize(e.config.WindowTitle, e.config.WindowWidth, e.config.WindowHeight); err != nil {
		return err
	}

	return nil
}

// Run drives redraw ticks until the window reports a close request or a
// tick fails with an unrecoverable error.
func (e *Engine) Run() error {
	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	fpsLogAccumulator := 0.0

	for e.isRunning {
		if !e.platform.PumpMessages() {
			e.isRunning = false
		}
		if !e.isRunning {
			break
		}

		if err := e.loop.Tick(); err != nil {
			core.LogError("render tick failed, shutting down: %s", err.Error())
			return err
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		e.lastTime = currentTime

		core.MetricsUpdate(delta)
		fpsLogAccumulator += delta
		if fpsLogAccumulator >= 1.0 {
			fps, frameTime := core.MetricsFrame()
			core.LogDebug("fps: %.1f, frame time: %.2fms", fps, frameTime)
			fpsLogAccumulator = 0
		}
	}

	return nil
}

func (e *Engine) Shutdown() error {
	core.LogInfo("shutting down")

	if err := e.renderer.Shutdown(); err != nil {
		return err
	}
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	return nil
}

func (e *Engine) onEvent(sender interface{}, data core.EventContext) bool {
	if data.Type == core.EVENT_CODE_APPLICATION_QUIT {
		core.LogInfo("close requested, stopping the main loop")
		e.isRunning = false
		return true
	}
	return false
}

func (e *Engine) onResized(sender interface{}, data core.EventContext) bool {
	if data.Type != core.EVENT_CODE_RESIZED {
		return false
	}
	core.LogDebug("window resized to %dx%d", data.WindowWidth, data.WindowHeight)
	e.loop.RequestRecreate()
	return false
}
