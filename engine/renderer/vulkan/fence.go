package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/core"
)

type VulkanFence struct {
	Handle vk.Fence
}

// FenceCreate returns a fence, optionally already signaled so the first
// wait on it completes immediately.
func FenceCreate(context *VulkanContext, createSignaled bool) (*VulkanFence, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if createSignaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}
	fenceCreateInfo.Deref()

	var pFence vk.Fence
	if res := vk.CreateFence(context.Device.LogicalDevice, &fenceCreateInfo, context.Allocator, &pFence); res != vk.Success {
		return nil, fmt.Errorf("vkCreateFence failed with %s", VulkanResultString(res))
	}
	return &VulkanFence{Handle: pFence}, nil
}

func (f *VulkanFence) Destroy(context *VulkanContext) {
	if f.Handle != vk.NullFence {
		vk.DestroyFence(context.Device.LogicalDevice, f.Handle, context.Allocator)
		f.Handle = vk.NullFence
	}
}

// Wait blocks until the fence is signaled or timeoutNs elapses.
func (f *VulkanFence) Wait(context *VulkanContext, timeoutNs uint64) bool {
	res := vk.WaitForFences(context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}, vk.True, timeoutNs)
	switch res {
	case vk.Success:
		return true
	case vk.Timeout:
		core.LogWarn("fence wait timed out")
	default:
		core.LogError("fence wait failed with %s", VulkanResultString(res))
	}
	return false
}

func (f *VulkanFence) Reset(context *VulkanContext) error {
	if res := vk.ResetFences(context.Device.LogicalDevice, 1, []vk.Fence{f.Handle}); res != vk.Success {
		return fmt.Errorf("vkResetFences failed with %s", VulkanResultString(res))
	}
	return nil
}

// Signaled polls the fence without blocking.
func (f *VulkanFence) Signaled(context *VulkanContext) bool {
	return vk.GetFenceStatus(context.Device.LogicalDevice, f.Handle) == vk.Success
}
