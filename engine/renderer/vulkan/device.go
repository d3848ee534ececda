package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/core"
)

type VulkanDevice struct {
	PhysicalDevice   vk.PhysicalDevice
	LogicalDevice    vk.Device
	SwapchainSupport VulkanSwapchainSupportInfo
	// Index of the single queue family used for both graphics and present.
	QueueFamilyIndex uint32

	GraphicsQueue vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
}

type VulkanSwapchainSupportInfo struct {
	Capabilities     vk.SurfaceCapabilities
	FormatCount      uint32
	Formats          []vk.SurfaceFormat
	PresentModeCount uint32
	PresentModes     []vk.PresentMode
}

// DeviceCreate picks the first enumerated physical device, requires a queue
// family that supports both graphics operations and presentation to the
// surface, and creates a logical device with exactly one queue. Device
// selection is deliberately first-found; there is no scoring policy.
func DeviceCreate(context *VulkanContext) error {
	context.Device = &VulkanDevice{}

	if err := selectPhysicalDevice(context); err != nil {
		return err
	}

	core.LogInfo("Creating logical device...")

	queueCreateInfo := vk.DeviceQueueCreateInfo{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: context.Device.QueueFamilyIndex,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}

	extensionNames := []string{vk.KhrSwapchainExtensionName}
	if portabilitySubsetPresent(context.Device.PhysicalDevice) {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    1,
		PQueueCreateInfos:       []vk.DeviceQueueCreateInfo{queueCreateInfo},
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
		// Deprecated and ignored, so pass nothing.
		EnabledLayerCount:   0,
		PpEnabledLayerNames: nil,
	}

	if res := vk.CreateDevice(
		context.Device.PhysicalDevice,
		&deviceCreateInfo,
		context.Allocator,
		&context.Device.LogicalDevice); res != vk.Success {
		return fmt.Errorf("vkCreateDevice failed with %s", VulkanResultString(res))
	}
	core.LogInfo("Logical device created.")

	vk.GetDeviceQueue(
		context.Device.LogicalDevice,
		context.Device.QueueFamilyIndex,
		0,
		&context.Device.GraphicsQueue)
	core.LogInfo("Queue obtained.")

	// Create command pool for the graphics queue.
	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: context.Device.QueueFamilyIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if res := vk.CreateCommandPool(
		context.Device.LogicalDevice,
		&poolCreateInfo,
		context.Allocator,
		&context.Device.GraphicsCommandPool); res != vk.Success {
		return fmt.Errorf("vkCreateCommandPool failed with %s", VulkanResultString(res))
	}
	core.LogInfo("Graphics command pool created.")

	return nil
}

func DeviceDestroy(context *VulkanContext) {
	context.Device.GraphicsQueue = nil

	core.LogInfo("Destroying command pool...")
	vk.DestroyCommandPool(
		context.Device.LogicalDevice,
		context.Device.GraphicsCommandPool,
		context.Allocator)

	core.LogInfo("Destroying logical device...")
	if context.Device.LogicalDevice != nil {
		vk.DestroyDevice(context.Device.LogicalDevice, context.Allocator)
		context.Device.LogicalDevice = nil
	}

	// Physical devices are not destroyed.
	context.Device.PhysicalDevice = nil
	context.Device.SwapchainSupport = VulkanSwapchainSupportInfo{}
}

// DeviceQuerySwapchainSupport refreshes the surface capabilities, formats and
// present modes for the physical device.
func DeviceQuerySwapchainSupport(physicalDevice vk.PhysicalDevice, surface vk.Surface, supportInfo *VulkanSwapchainSupportInfo) error {
	if res := vk.GetPhysicalDeviceSurfaceCapabilities(physicalDevice, surface, &supportInfo.Capabilities); res != vk.Success {
		return fmt.Errorf("failed to get surface capabilities: %s", VulkanResultString(res))
	}
	supportInfo.Capabilities.Deref()
	supportInfo.Capabilities.CurrentExtent.Deref()
	supportInfo.Capabilities.MinImageExtent.Deref()
	supportInfo.Capabilities.MaxImageExtent.Deref()

	if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &supportInfo.FormatCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get surface formats: %s", VulkanResultString(res))
	}
	if supportInfo.FormatCount != 0 {
		supportInfo.Formats = make([]vk.SurfaceFormat, supportInfo.FormatCount)
		if res := vk.GetPhysicalDeviceSurfaceFormats(physicalDevice, surface, &supportInfo.FormatCount, supportInfo.Formats); res != vk.Success {
			return fmt.Errorf("failed to get surface formats: %s", VulkanResultString(res))
		}
		for i := range supportInfo.Formats {
			supportInfo.Formats[i].Deref()
		}
	}

	if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &supportInfo.PresentModeCount, nil); res != vk.Success {
		return fmt.Errorf("failed to get surface present modes: %s", VulkanResultString(res))
	}
	if supportInfo.PresentModeCount != 0 {
		supportInfo.PresentModes = make([]vk.PresentMode, supportInfo.PresentModeCount)
		if res := vk.GetPhysicalDeviceSurfacePresentModes(physicalDevice, surface, &supportInfo.PresentModeCount, supportInfo.PresentModes); res != vk.Success {
			return fmt.Errorf("failed to get surface present modes: %s", VulkanResultString(res))
		}
	}
	return nil
}

func selectPhysicalDevice(context *VulkanContext) error {
	var physicalDeviceCount uint32 = 0
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, nil); res != vk.Success {
		return fmt.Errorf("vkEnumeratePhysicalDevices failed with %s", VulkanResultString(res))
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found")
	}

	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if res := vk.EnumeratePhysicalDevices(context.Instance, &physicalDeviceCount, physicalDevices); res != vk.Success {
		return fmt.Errorf("vkEnumeratePhysicalDevices failed with %s", VulkanResultString(res))
	}

	// First enumerated device, no scoring.
	device := physicalDevices[0]

	properties := vk.PhysicalDeviceProperties{}
	vk.GetPhysicalDeviceProperties(device, &properties)
	properties.Deref()

	queueFamilyIndex, err := findQueueFamily(device, context.Surface)
	if err != nil {
		return err
	}

	if err := DeviceQuerySwapchainSupport(device, context.Surface, &context.Device.SwapchainSupport); err != nil {
		return err
	}
	if context.Device.SwapchainSupport.FormatCount < 1 || context.Device.SwapchainSupport.PresentModeCount < 1 {
		return fmt.Errorf("selected device has no swapchain support")
	}

	context.Device.PhysicalDevice = device
	context.Device.QueueFamilyIndex = queueFamilyIndex
	context.Device.Properties = properties

	core.LogInfo("Selected device: '%s'.", vk.ToString(properties.DeviceName[:]))
	switch properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		core.LogInfo("GPU type is Integrated.")
	case vk.PhysicalDeviceTypeDiscreteGpu:
		core.LogInfo("GPU type is Discrete.")
	case vk.PhysicalDeviceTypeVirtualGpu:
		core.LogInfo("GPU type is Virtual.")
	case vk.PhysicalDeviceTypeCpu:
		core.LogInfo("GPU type is CPU.")
	default:
		core.LogInfo("GPU type is Unknown.")
	}
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(properties.ApiVersion)),
		vk.Version.Minor(vk.Version(properties.ApiVersion)),
		vk.Version.Patch(vk.Version(properties.ApiVersion)),
	)
	core.LogDebug("Queue family index: %d", queueFamilyIndex)

	return nil
}

// findQueueFamily returns the first queue family that supports both graphics
// operations and presentation to the surface.
func findQueueFamily(device vk.PhysicalDevice, surface vk.Surface) (uint32, error) {
	var queueFamilyCount uint32 = 0
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, nil)
	queueFamilies := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(device, &queueFamilyCount, queueFamilies)

	for i := uint32(0); i < queueFamilyCount; i++ {
		queueFamilies[i].Deref()
		if vk.QueueFlagBits(queueFamilies[i].QueueFlags)&vk.QueueGraphicsBit == 0 {
			continue
		}
		var supportsPresent vk.Bool32 = vk.False
		if res := vk.GetPhysicalDeviceSurfaceSupport(device, i, surface, &supportsPresent); res != vk.Success {
			return 0, fmt.Errorf("vkGetPhysicalDeviceSurfaceSupportKHR failed with %s", VulkanResultString(res))
		}
		if supportsPresent == vk.True {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no queue family supports both graphics and presentation")
}

func portabilitySubsetPresent(device vk.PhysicalDevice) bool {
	if runtime.GOOS != "darwin" {
		return false
	}
	var availableExtensionCount uint32 = 0
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, nil); res != vk.Success {
		return false
	}
	if availableExtensionCount == 0 {
		return false
	}
	availableExtensions := make([]vk.ExtensionProperties, availableExtensionCount)
	if res := vk.EnumerateDeviceExtensionProperties(device, "", &availableExtensionCount, availableExtensions); res != vk.Success {
		return false
	}
	for i := range availableExtensions {
		availableExtensions[i].Deref()
		if vk.ToString(availableExtensions[i].ExtensionName[:]) == "VK_KHR_portability_subset" {
			return true
		}
	}
	return false
}
