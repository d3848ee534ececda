package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/core"
	tmath "github.com/spaghettifunk/trigon/engine/math"
	"github.com/spaghettifunk/trigon/engine/renderer"
)

type VulkanSwapchain struct {
	ImageFormat vk.SurfaceFormat
	Extent      vk.Extent2D
	Handle      vk.Swapchain
	ImageCount  uint32
	Images      []vk.Image
	Views       []vk.ImageView

	// framebuffers used for on-screen rendering, one per image.
	Framebuffers []*VulkanFramebuffer
}

// SwapchainCreate builds a presentation chain sized to the given dimensions.
// Image count is the surface's minimum, the pixel format and composite alpha
// are the first supported options, and the present mode is strict FIFO.
func SwapchainCreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	return createSwapchain(context, width, height)
}

// SwapchainRecreate destroys the chain and creates a fresh one. The chain is
// never mutated in place; a size change always produces a new generation.
func (vs *VulkanSwapchain) SwapchainRecreate(context *VulkanContext, width uint32, height uint32) (*VulkanSwapchain, error) {
	vs.destroySwapchain(context)
	return createSwapchain(context, width, height)
}

func (vs *VulkanSwapchain) SwapchainDestroy(context *VulkanContext) {
	vs.destroySwapchain(context)
}

// SwapchainAcquireNextImageIndex blocks indefinitely until the next
// presentable image is available. Out-of-date and suboptimal conditions map
// onto the recoverable error taxonomy; everything else is fatal to the
// caller.
func (vs *VulkanSwapchain) SwapchainAcquireNextImageIndex(context *VulkanContext, imageAvailableSemaphore vk.Semaphore) (uint32, error) {
	var imageIndex uint32
	result := vk.AcquireNextImage(context.Device.LogicalDevice, vs.Handle, math.MaxUint64, imageAvailableSemaphore, vk.NullFence, &imageIndex)

	switch result {
	case vk.Success:
		return imageIndex, nil
	case vk.Suboptimal:
		// Still usable this frame.
		return imageIndex, renderer.ErrChainSuboptimal
	case vk.ErrorOutOfDate:
		return 0, renderer.ErrChainOutOfDate
	default:
		return 0, fmt.Errorf("vkAcquireNextImageKHR failed with %s", VulkanResultString(result))
	}
}

// SwapchainPresent returns the image to the swapchain for presentation,
// waiting on the render-complete semaphore.
func (vs *VulkanSwapchain) SwapchainPresent(context *VulkanContext, presentQueue vk.Queue, renderCompleteSemaphore vk.Semaphore, presentImageIndex uint32) error {
	presentInfo := vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{renderCompleteSemaphore},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{vs.Handle},
		PImageIndices:      []uint32{presentImageIndex},
		PResults:           nil,
	}

	result := vk.QueuePresent(presentQueue, &presentInfo)
	switch result {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate, vk.Suboptimal:
		return renderer.ErrChainOutOfDate
	default:
		return fmt.Errorf("vkQueuePresentKHR failed with %s", VulkanResultString(result))
	}
}

// validateSwapchainExtent checks the requested dimensions against the
// surface's capability bounds. Callers must run this before tearing anything
// down: an unsupported extent skips the tick and retries with the old chain
// and its frame resources intact.
func validateSwapchainExtent(support *VulkanSwapchainSupportInfo, width, height uint32) error {
	minExtent := support.Capabilities.MinImageExtent
	maxExtent := support.Capabilities.MaxImageExtent
	if width == 0 || height == 0 ||
		width < minExtent.Width || height < minExtent.Height ||
		(maxExtent.Width > 0 && width > maxExtent.Width) ||
		(maxExtent.Height > 0 && height > maxExtent.Height) {
		return renderer.ErrUnsupportedExtent
	}
	return nil
}

func createSwapchain(context *VulkanContext, width, height uint32) (*VulkanSwapchain, error) {
	support := &context.Device.SwapchainSupport

	if err := validateSwapchainExtent(support, width, height); err != nil {
		return nil, err
	}

	swapchain := &VulkanSwapchain{}

	swapchainExtent := vk.Extent2D{
		Width:  width,
		Height: height,
	}
	if support.Capabilities.CurrentExtent.Width != math.MaxUint32 {
		swapchainExtent = support.Capabilities.CurrentExtent
	}
	swapchainExtent.Width = tmath.Clamp(swapchainExtent.Width, minExtent.Width, maxExtent.Width)
	swapchainExtent.Height = tmath.Clamp(swapchainExtent.Height, minExtent.Height, maxExtent.Height)
	swapchain.Extent = swapchainExtent

	// First supported format, no preference ordering.
	swapchain.ImageFormat = support.Formats[0]

	// First supported composite alpha bit.
	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for bit := vk.CompositeAlphaOpaqueBit; bit <= vk.CompositeAlphaInheritBit; bit <<= 1 {
		if vk.CompositeAlphaFlagBits(support.Capabilities.SupportedCompositeAlpha)&bit != 0 {
			compositeAlpha = bit
			break
		}
	}

	// Strict FIFO: vsync locked, no tearing, guaranteed available.
	presentMode := vk.PresentModeFifo

	imageCount := support.Capabilities.MinImageCount

	swapchainCreateInfo := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          context.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      swapchain.ImageFormat.Format,
		ImageColorSpace:  swapchain.ImageFormat.ColorSpace,
		ImageExtent:      swapchainExtent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		// A single queue family serves graphics and present.
		ImageSharingMode:      vk.SharingModeExclusive,
		QueueFamilyIndexCount: 0,
		PQueueFamilyIndices:   nil,
		PreTransform:          support.Capabilities.CurrentTransform,
		CompositeAlpha:        compositeAlpha,
		PresentMode:           presentMode,
		Clipped:               vk.True,
		OldSwapchain:          vk.NullSwapchain,
	}

	var swapchainHandle vk.Swapchain
	if res := vk.CreateSwapchain(context.Device.LogicalDevice, &swapchainCreateInfo, context.Allocator, &swapchainHandle); res != vk.Success {
		return nil, fmt.Errorf("vkCreateSwapchainKHR failed with %s", VulkanResultString(res))
	}
	swapchain.Handle = swapchainHandle

	// Images
	swapchain.ImageCount = 0
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, nil); res != vk.Success {
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
	}
	swapchain.Images = make([]vk.Image, swapchain.ImageCount)
	swapchain.Views = make([]vk.ImageView, swapchain.ImageCount)
	if res := vk.GetSwapchainImages(context.Device.LogicalDevice, swapchain.Handle, &swapchain.ImageCount, swapchain.Images); res != vk.Success {
		return nil, fmt.Errorf("failed to get swapchain images: %s", VulkanResultString(res))
	}

	// Views
	for i := 0; i < int(swapchain.ImageCount); i++ {
		viewInfo := vk.ImageViewCreateInfo{
			SType:    vk.StructureTypeImageViewCreateInfo,
			Image:    swapchain.Images[i],
			ViewType: vk.ImageViewType2d,
			Format:   swapchain.ImageFormat.Format,
			SubresourceRange: vk.ImageSubresourceRange{
				AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		}

		if res := vk.CreateImageView(context.Device.LogicalDevice, &viewInfo, context.Allocator, &swapchain.Views[i]); res != vk.Success {
			return nil, fmt.Errorf("failed to create image view: %s", VulkanResultString(res))
		}
	}

	core.LogInfo("Swapchain created successfully (%d images, %dx%d).", swapchain.ImageCount, swapchainExtent.Width, swapchainExtent.Height)

	return swapchain, nil
}

func (vs *VulkanSwapchain) destroySwapchain(context *VulkanContext) {
	vk.DeviceWaitIdle(context.Device.LogicalDevice)

	// Only destroy the views, not the images, since those are owned by the
	// swapchain and are thus destroyed when it is.
	for i := 0; i < int(vs.ImageCount); i++ {
		vk.DestroyImageView(context.Device.LogicalDevice, vs.Views[i], context.Allocator)
	}

	vk.DestroySwapchain(context.Device.LogicalDevice, vs.Handle, context.Allocator)
}
