package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

type Platform struct {
	Window *glfw.Window
}

func New() *Platform {
	return &Platform{
		Window: nil,
	}
}

func (p *Platform) Startup(applicationName string, width uint32, height uint32) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %w", err)
	}

	if !glfw.VulkanSupported() {
		return fmt.Errorf("vulkan is not supported on this platform")
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), applicationName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	p.Window = window

	p.Window.SetFramebufferSizeCallback(framebufferSizeCallback)
	p.Window.SetCloseCallback(closeCallback)

	return nil
}

func (p *Platform) Shutdown() error {
	glfw.Terminate()
	return nil
}

// PumpMessages delivers pending window events to the registered callbacks.
// Returns false once the window has been asked to close.
func (p *Platform) PumpMessages() bool {
	glfw.PollEvents()
	return !p.Window.ShouldClose()
}

// FramebufferSize returns the window size in physical pixels.
func (p *Platform) FramebufferSize() (uint32, uint32) {
	w, h := p.Window.GetFramebufferSize()
	return uint32(w), uint32(h)
}

// GetRequiredExtensionNames reports the instance extensions the windowing
// system needs to create a presentable surface.
func (p *Platform) GetRequiredExtensionNames() []string {
	return p.Window.GetRequiredInstanceExtensions()
}

// CreateVulkanSurface creates a presentation surface for the window.
func (p *Platform) CreateVulkanSurface(instance vk.Instance) (vk.Surface, error) {
	surface, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, fmt.Errorf("vulkan surface creation failed: %w", err)
	}
	return vk.SurfaceFromPointer(surface), nil
}

func framebufferSizeCallback(w *glfw.Window, width, height int) {
	core.EventFire(w, core.EventContext{
		Type:         core.EVENT_CODE_RESIZED,
		WindowWidth:  uint32(width),
		WindowHeight: uint32(height),
	})
}

func closeCallback(w *glfw.Window) {
	core.EventFire(w, core.EventContext{
		Type: core.EVENT_CODE_APPLICATION_QUIT,
	})
}
