package vulkan

import (
	"fmt"
	"math"
	"runtime"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/assets"
	"github.com/spaghettifunk/trigon/engine/core"
	"github.com/spaghettifunk/trigon/engine/platform"
	"github.com/spaghettifunk/trigon/engine/renderer"
)

// VulkanRenderer owns the whole GPU side: instance, device, swapchain,
// the fixed triangle pipeline and the synchronization primitives for a
// single frame in flight.
type VulkanRenderer struct {
	platform *platform.Platform
	assets   *assets.AssetManager
	context  *VulkanContext

	imageAvailableSemaphore vk.Semaphore
	renderCompleteSemaphore vk.Semaphore
	inFlightFence           *VulkanFence

	graphicsCommandBuffers []*VulkanCommandBuffer
	vertexPool             *VulkanVertexPool
	vertexShader           *VulkanShaderModule
	fragmentShader         *VulkanShaderModule
	pipeline               *VulkanPipeline

	debug bool
}

func New(p *platform.Platform, am *assets.AssetManager) *VulkanRenderer {
	return &VulkanRenderer{
		platform: p,
		assets:   am,
		context: &VulkanContext{
			Allocator: nil,
		},
		debug: true,
	}
}

func (vr *VulkanRenderer) Initialize(appName string, appWidth, appHeight uint32) error {
	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		return fmt.Errorf("GetInstanceProcAddress is nil")
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		return fmt.Errorf("failed to initialize the Vulkan loader: %w", err)
	}

	vr.context.FramebufferWidth = appWidth
	vr.context.FramebufferHeight = appHeight

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("Trigon Engine"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	requiredExtensions := []string{"VK_KHR_surface"}
	requiredExtensions = append(requiredExtensions, vr.platform.GetRequiredExtensionNames()...)

	if runtime.GOOS == "darwin" {
		requiredExtensions = append(requiredExtensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		createInfo.Flags |= 1
	}

	if vr.debug {
		requiredExtensions = append(requiredExtensions, vk.ExtDebugReportExtensionName)
		core.LogDebug("Required extensions:")
		for i := range requiredExtensions {
			core.LogDebug(requiredExtensions[i])
		}
	}

	createInfo.EnabledExtensionCount = uint32(len(requiredExtensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(requiredExtensions)

	requiredValidationLayerNames := []string{}
	if vr.debug {
		requiredValidationLayerNames = []string{"VK_LAYER_KHRONOS_validation"}
		if err := verifyValidationLayers(requiredValidationLayerNames); err != nil {
			return err
		}
	}
	createInfo.EnabledLayerCount = uint32(len(requiredValidationLayerNames))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(requiredValidationLayerNames)

	if res := vk.CreateInstance(&createInfo, vr.context.Allocator, &vr.context.Instance); res != vk.Success {
		return fmt.Errorf("vkCreateInstance failed with %s", VulkanResultString(res))
	}
	if err := vk.InitInstance(vr.context.Instance); err != nil {
		return err
	}
	core.LogInfo("Vulkan instance created")

	if vr.debug {
		debugCreateInfo := vk.DebugReportCallbackCreateInfo{
			SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
			Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit),
			PfnCallback: dbgCallbackFunc,
		}
		var dbg vk.DebugReportCallback
		if res := vk.CreateDebugReportCallback(vr.context.Instance, &debugCreateInfo, nil, &dbg); res != vk.Success {
			return fmt.Errorf("vkCreateDebugReportCallback failed with %s", VulkanResultString(res))
		}
		vr.context.debugMessenger = dbg
		core.LogDebug("Vulkan debugger created")
	}

	surface, err := vr.platform.CreateVulkanSurface(vr.context.Instance)
	if err != nil {
		return err
	}
	vr.context.Surface = surface
	core.LogDebug("Vulkan surface created")

	if err := DeviceCreate(vr.context); err != nil {
		return err
	}

	sc, err := SwapchainCreate(vr.context, vr.context.FramebufferWidth, vr.context.FramebufferHeight)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	rp, err := RenderpassCreate(vr.context,
		0, 0, float32(vr.context.FramebufferWidth), float32(vr.context.FramebufferHeight),
		0.0, 0.0, 1.0, 1.0)
	if err != nil {
		return err
	}
	vr.context.MainRenderpass = rp

	vr.context.Swapchain.Framebuffers = make([]*VulkanFramebuffer, vr.context.Swapchain.ImageCount)
	if err := vr.regenerateFramebuffers(vr.context.Swapchain, vr.context.MainRenderpass); err != nil {
		return err
	}

	if err := vr.createCommandBuffers(); err != nil {
		return err
	}

	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.imageAvailableSemaphore); res != vk.Success {
		return fmt.Errorf("failed to create the image available semaphore")
	}
	if res := vk.CreateSemaphore(vr.context.Device.LogicalDevice, &semaphoreCreateInfo, vr.context.Allocator, &vr.renderCompleteSemaphore); res != vk.Success {
		return fmt.Errorf("failed to create the render complete semaphore")
	}

	// Created signaled so the very first frame does not wait on work
	// that was never submitted.
	f, err := FenceCreate(vr.context, true)
	if err != nil {
		return err
	}
	vr.inFlightFence = f

	pool, err := VertexPoolCreate(vr.context)
	if err != nil {
		return err
	}
	vr.vertexPool = pool

	if err := vr.createPipeline(); err != nil {
		return err
	}

	core.LogInfo("Vulkan renderer initialized successfully")
	return nil
}

func (vr *VulkanRenderer) createPipeline() error {
	vertBinary, err := vr.assets.LoadShader("vert")
	if err != nil {
		return err
	}
	fragBinary, err := vr.assets.LoadShader("frag")
	if err != nil {
		return err
	}

	vs, err := ShaderModuleCreate(vr.context, vertBinary, vk.ShaderStageVertexBit)
	if err != nil {
		return err
	}
	vr.vertexShader = vs

	fs, err := ShaderModuleCreate(vr.context, fragBinary, vk.ShaderStageFragmentBit)
	if err != nil {
		vr.vertexShader.Destroy(vr.context)
		return err
	}
	vr.fragmentShader = fs

	stages := []vk.PipelineShaderStageCreateInfo{
		vr.vertexShader.StageCreateInfo(),
		vr.fragmentShader.StageCreateInfo(),
	}
	p, err := GraphicsPipelineCreate(vr.context, vr.context.MainRenderpass, stages)
	if err != nil {
		return err
	}
	vr.pipeline = p

	core.LogDebug("Vulkan graphics pipeline created")
	return nil
}

// Dimensions reports the platform surface size in pixels.
func (vr *VulkanRenderer) Dimensions() (uint32, uint32) {
	return vr.platform.FramebufferSize()
}

// RecreateChain tears down every object derived from the swapchain and
// rebuilds it at the given size. The render pass and pipeline stay; the
// swapchain surface format does not change across a resize and viewport
// and scissor are dynamic pipeline state.
func (vr *VulkanRenderer) RecreateChain(width, height uint32) error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	if err := DeviceQuerySwapchainSupport(vr.context.Device.PhysicalDevice, vr.context.Surface, &vr.context.Device.SwapchainSupport); err != nil {
		return err
	}

	// Bail out before any teardown. With an unsupported extent the old chain,
	// framebuffers and command buffers must survive so a later tick can retry.
	if err := validateSwapchainExtent(&vr.context.Device.SwapchainSupport, width, height); err != nil {
		return err
	}

	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		vr.graphicsCommandBuffers[i].Free(vr.context, vr.context.Device.GraphicsCommandPool)
	}
	vr.graphicsCommandBuffers = nil

	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		vr.context.Swapchain.Framebuffers[i].Destroy(vr.context)
	}

	sc, err := vr.context.Swapchain.SwapchainRecreate(vr.context, width, height)
	if err != nil {
		return err
	}
	vr.context.Swapchain = sc

	vr.context.FramebufferWidth = width
	vr.context.FramebufferHeight = height
	vr.context.MainRenderpass.X = 0
	vr.context.MainRenderpass.Y = 0
	vr.context.MainRenderpass.W = float32(width)
	vr.context.MainRenderpass.H = float32(height)

	vr.context.Swapchain.Framebuffers = make([]*VulkanFramebuffer, vr.context.Swapchain.ImageCount)
	if err := vr.regenerateFramebuffers(vr.context.Swapchain, vr.context.MainRenderpass); err != nil {
		return err
	}
	if err := vr.createCommandBuffers(); err != nil {
		return err
	}

	core.LogDebug("swapchain recreated at %dx%d", width, height)
	return nil
}

// Acquire asks the swapchain for the next presentable image.
func (vr *VulkanRenderer) Acquire() (uint32, error) {
	return vr.context.Swapchain.SwapchainAcquireNextImageIndex(vr.context, vr.imageAvailableSemaphore)
}

// Submit waits for the previous frame's work to complete on the host,
// uploads the triangle and records and submits the draw for the acquired
// image. The submission waits on the image available semaphore and signals
// both the render complete semaphore and the in-flight fence.
func (vr *VulkanRenderer) Submit(imageIndex uint32, vertices [3]renderer.Vertex) error {
	if !vr.inFlightFence.Wait(vr.context, math.MaxUint64) {
		return fmt.Errorf("in-flight fence wait failure")
	}
	if err := vr.inFlightFence.Reset(vr.context); err != nil {
		return err
	}

	offset := vr.vertexPool.Upload(vertices)

	commandBuffer := vr.graphicsCommandBuffers[imageIndex]
	commandBuffer.Reset()
	if err := commandBuffer.Begin(true, false, false); err != nil {
		return err
	}

	viewport := vk.Viewport{
		X:        0.0,
		Y:        0.0,
		Width:    float32(vr.context.FramebufferWidth),
		Height:   float32(vr.context.FramebufferHeight),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	}
	scissor := vk.Rect2D{
		Offset: vk.Offset2D{X: 0, Y: 0},
		Extent: vk.Extent2D{
			Width:  vr.context.FramebufferWidth,
			Height: vr.context.FramebufferHeight,
		},
	}
	vk.CmdSetViewport(commandBuffer.Handle, 0, 1, []vk.Viewport{viewport})
	vk.CmdSetScissor(commandBuffer.Handle, 0, 1, []vk.Rect2D{scissor})

	vr.context.MainRenderpass.RenderpassBegin(commandBuffer, vr.context.Swapchain.Framebuffers[imageIndex].Handle)

	vr.pipeline.Bind(commandBuffer, vk.PipelineBindPointGraphics)
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{vr.vertexPool.Handle}, []vk.DeviceSize{offset})
	vk.CmdDraw(commandBuffer.Handle, 3, 1, 0, 0)

	vr.context.MainRenderpass.RenderpassEnd(commandBuffer)
	if err := commandBuffer.End(); err != nil {
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		CommandBufferCount:   1,
		PCommandBuffers:      []vk.CommandBuffer{commandBuffer.Handle},
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{vr.imageAvailableSemaphore},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{vr.renderCompleteSemaphore},
	}

	if res := vk.QueueSubmit(vr.context.Device.GraphicsQueue, 1, []vk.SubmitInfo{submitInfo}, vr.inFlightFence.Handle); res != vk.Success {
		return fmt.Errorf("vkQueueSubmit failed with %s", VulkanResultString(res))
	}
	commandBuffer.UpdateSubmitted()
	return nil
}

// Present hands the rendered image back to the swapchain. On success the
// returned marker tracks the in-flight fence of the submitted work.
func (vr *VulkanRenderer) Present(imageIndex uint32) (renderer.Marker, error) {
	if err := vr.context.Swapchain.SwapchainPresent(vr.context, vr.context.Device.GraphicsQueue, vr.renderCompleteSemaphore, imageIndex); err != nil {
		return nil, err
	}
	return &frameMarker{renderer: vr}, nil
}

// CompletedMarker returns a marker whose work has already finished.
func (vr *VulkanRenderer) CompletedMarker() renderer.Marker {
	return completedMarker{}
}

func (vr *VulkanRenderer) Shutdown() error {
	vk.DeviceWaitIdle(vr.context.Device.LogicalDevice)

	// Destroy in the opposite order of creation.
	if vr.pipeline != nil {
		vr.pipeline.Destroy(vr.context)
		vr.pipeline = nil
	}
	if vr.fragmentShader != nil {
		vr.fragmentShader.Destroy(vr.context)
		vr.fragmentShader = nil
	}
	if vr.vertexShader != nil {
		vr.vertexShader.Destroy(vr.context)
		vr.vertexShader = nil
	}
	if vr.vertexPool != nil {
		vr.vertexPool.Destroy(vr.context)
		vr.vertexPool = nil
	}

	if vr.imageAvailableSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(vr.context.Device.LogicalDevice, vr.imageAvailableSemaphore, vr.context.Allocator)
		vr.imageAvailableSemaphore = vk.NullSemaphore
	}
	if vr.renderCompleteSemaphore != vk.NullSemaphore {
		vk.DestroySemaphore(vr.context.Device.LogicalDevice, vr.renderCompleteSemaphore, vr.context.Allocator)
		vr.renderCompleteSemaphore = vk.NullSemaphore
	}
	if vr.inFlightFence != nil {
		vr.inFlightFence.Destroy(vr.context)
		vr.inFlightFence = nil
	}

	for i := range vr.graphicsCommandBuffers {
		if vr.graphicsCommandBuffers[i].Handle != nil {
			vr.graphicsCommandBuffers[i].Free(vr.context, vr.context.Device.GraphicsCommandPool)
		}
	}
	vr.graphicsCommandBuffers = nil

	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		vr.context.Swapchain.Framebuffers[i].Destroy(vr.context)
	}

	vr.context.MainRenderpass.RenderpassDestroy(vr.context)
	vr.context.Swapchain.SwapchainDestroy(vr.context)

	core.LogDebug("Destroying Vulkan device...")
	DeviceDestroy(vr.context)

	core.LogDebug("Destroying Vulkan surface...")
	if vr.context.Surface != vk.NullSurface {
		vk.DestroySurface(vr.context.Instance, vr.context.Surface, vr.context.Allocator)
		vr.context.Surface = vk.NullSurface
	}

	if vr.debug && vr.context.debugMessenger != vk.NullDebugReportCallback {
		core.LogDebug("Destroying Vulkan debugger...")
		vk.DestroyDebugReportCallback(vr.context.Instance, vr.context.debugMessenger, vr.context.Allocator)
		vr.context.debugMessenger = vk.NullDebugReportCallback
	}

	core.LogDebug("Destroying Vulkan instance...")
	vk.DestroyInstance(vr.context.Instance, vr.context.Allocator)

	return nil
}

func (vr *VulkanRenderer) createCommandBuffers() error {
	if len(vr.graphicsCommandBuffers) == 0 {
		vr.graphicsCommandBuffers = make([]*VulkanCommandBuffer, vr.context.Swapchain.ImageCount)
	}
	for i := 0; i < int(vr.context.Swapchain.ImageCount); i++ {
		if vr.graphicsCommandBuffers[i] != nil && vr.graphicsCommandBuffers[i].Handle != nil {
			vr.graphicsCommandBuffers[i].Free(vr.context, vr.context.Device.GraphicsCommandPool)
			vr.graphicsCommandBuffers[i] = nil
		}
		cb, err := CommandBufferAllocate(vr.context, vr.context.Device.GraphicsCommandPool, true)
		if err != nil {
			return err
		}
		vr.graphicsCommandBuffers[i] = cb
	}
	core.LogDebug("Vulkan command buffers created")
	return nil
}

func (vr *VulkanRenderer) regenerateFramebuffers(swapchain *VulkanSwapchain, renderpass *VulkanRenderpass) error {
	for i := 0; i < int(swapchain.ImageCount); i++ {
		attachments := []vk.ImageView{
			swapchain.Views[i],
		}
		fb, err := FramebufferCreate(vr.context, renderpass, vr.context.FramebufferWidth, vr.context.FramebufferHeight, attachments)
		if err != nil {
			return err
		}
		swapchain.Framebuffers[i] = fb
	}
	return nil
}

func verifyValidationLayers(required []string) error {
	var availableLayerCount uint32
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, nil); res != vk.Success {
		return fmt.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res))
	}
	availableLayers := make([]vk.LayerProperties, availableLayerCount)
	if res := vk.EnumerateInstanceLayerProperties(&availableLayerCount, availableLayers); res != vk.Success {
		return fmt.Errorf("vkEnumerateInstanceLayerProperties failed with %s", VulkanResultString(res))
	}

	for i := range required {
		found := false
		for j := range availableLayers {
			availableLayers[j].Deref()
			if required[i] == vk.ToString(availableLayers[j].LayerName[:]) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("required validation layer is missing: %s", required[i])
		}
	}
	core.LogDebug("All required validation layers are present")
	return nil
}

// frameMarker tracks the in-flight fence of a presented frame.
type frameMarker struct {
	renderer *VulkanRenderer
}

func (m *frameMarker) Done() bool {
	return m.renderer.inFlightFence.Signaled(m.renderer.context)
}

func (m *frameMarker) Release() {}

// completedMarker stands in for a frame whose work already finished.
type completedMarker struct{}

func (completedMarker) Done() bool { return true }

func (completedMarker) Release() {}

func dbgCallbackFunc(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint64, location uint64, messageCode int32, pLayerPrefix string, pMessage string, pUserData unsafe.Pointer) vk.Bool32 {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		core.LogError("[%s] Code %d: %s", pLayerPrefix, messageCode, pMessage)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit) != 0:
		core.LogWarn("[%s] Code %d: %s", pLayerPrefix, messageCode, pMessage)
	default:
		core.LogInfo("[%s] Code %d: %s", pLayerPrefix, messageCode, pMessage)
	}
	return vk.Bool32(vk.False)
}
