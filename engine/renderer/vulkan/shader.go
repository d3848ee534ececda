package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/assets"
)

type VulkanShaderModule struct {
	Handle vk.ShaderModule
	Stage  vk.ShaderStageFlagBits
}

// ShaderModuleCreate wraps compiled SPIR-V bytecode in a shader module for
// the given pipeline stage.
func ShaderModuleCreate(context *VulkanContext, binary *assets.ShaderBinary, stage vk.ShaderStageFlagBits) (*VulkanShaderModule, error) {
	createInfo := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(binary.Words)) * 4,
		PCode:    binary.Words,
	}
	createInfo.Deref()

	var pModule vk.ShaderModule
	if res := vk.CreateShaderModule(context.Device.LogicalDevice, &createInfo, context.Allocator, &pModule); res != vk.Success {
		return nil, fmt.Errorf("vkCreateShaderModule failed for %s with %s", binary.Name, VulkanResultString(res))
	}
	return &VulkanShaderModule{
		Handle: pModule,
		Stage:  stage,
	}, nil
}

func (s *VulkanShaderModule) StageCreateInfo() vk.PipelineShaderStageCreateInfo {
	info := vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  s.Stage,
		Module: s.Handle,
		PName:  "main\x00",
	}
	info.Deref()
	return info
}

func (s *VulkanShaderModule) Destroy(context *VulkanContext) {
	if s.Handle != vk.NullShaderModule {
		vk.DestroyShaderModule(context.Device.LogicalDevice, s.Handle, context.Allocator)
		s.Handle = vk.NullShaderModule
	}
}
