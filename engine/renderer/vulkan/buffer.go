package vulkan

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/renderer"
)

const (
	// Two float32 per position, three vertices per triangle.
	triangleByteSize = 3 * 2 * 4
	// One slot for the frame being recorded, one for the frame potentially
	// still being read by the GPU.
	vertexPoolSlots = 2
)

// VulkanVertexPool is a small host-visible, host-coherent vertex buffer that
// stays persistently mapped for the lifetime of the renderer. Consecutive
// uploads alternate between slots so an in-flight frame never has its vertex
// data overwritten underneath it.
type VulkanVertexPool struct {
	Handle vk.Buffer
	Memory vk.DeviceMemory
	mapped unsafe.Pointer
	slot   int
}

func VertexPoolCreate(context *VulkanContext) (*VulkanVertexPool, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(triangleByteSize * vertexPoolSlots),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit),
		SharingMode: vk.SharingModeExclusive,
	}
	bufferCreateInfo.Deref()

	var pBuffer vk.Buffer
	if res := vk.CreateBuffer(context.Device.LogicalDevice, &bufferCreateInfo, context.Allocator, &pBuffer); res != vk.Success {
		return nil, fmt.Errorf("vkCreateBuffer failed with %s", VulkanResultString(res))
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(context.Device.LogicalDevice, pBuffer, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits,
		uint32(vk.MemoryPropertyHostVisibleBit)|uint32(vk.MemoryPropertyHostCoherentBit))
	if memoryType == -1 {
		vk.DestroyBuffer(context.Device.LogicalDevice, pBuffer, context.Allocator)
		return nil, fmt.Errorf("no host-visible coherent memory type for the vertex pool")
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: uint32(memoryType),
	}
	allocateInfo.Deref()

	var pMemory vk.DeviceMemory
	if res := vk.AllocateMemory(context.Device.LogicalDevice, &allocateInfo, context.Allocator, &pMemory); res != vk.Success {
		vk.DestroyBuffer(context.Device.LogicalDevice, pBuffer, context.Allocator)
		return nil, fmt.Errorf("vkAllocateMemory failed with %s", VulkanResultString(res))
	}
	if res := vk.BindBufferMemory(context.Device.LogicalDevice, pBuffer, pMemory, 0); res != vk.Success {
		vk.FreeMemory(context.Device.LogicalDevice, pMemory, context.Allocator)
		vk.DestroyBuffer(context.Device.LogicalDevice, pBuffer, context.Allocator)
		return nil, fmt.Errorf("vkBindBufferMemory failed with %s", VulkanResultString(res))
	}

	var pMapped unsafe.Pointer
	if res := vk.MapMemory(context.Device.LogicalDevice, pMemory, 0, vk.DeviceSize(triangleByteSize*vertexPoolSlots), 0, &pMapped); res != vk.Success {
		vk.FreeMemory(context.Device.LogicalDevice, pMemory, context.Allocator)
		vk.DestroyBuffer(context.Device.LogicalDevice, pBuffer, context.Allocator)
		return nil, fmt.Errorf("vkMapMemory failed with %s", VulkanResultString(res))
	}

	return &VulkanVertexPool{
		Handle: pBuffer,
		Memory: pMemory,
		mapped: pMapped,
	}, nil
}

// Upload copies one triangle into the next pool slot and returns the byte
// offset to bind at draw time.
func (p *VulkanVertexPool) Upload(vertices [3]renderer.Vertex) vk.DeviceSize {
	p.slot = (p.slot + 1) % vertexPoolSlots
	offset := p.slot * triangleByteSize

	data := make([]byte, triangleByteSize)
	cursor := 0
	for _, v := range vertices {
		binary.LittleEndian.PutUint32(data[cursor:], math.Float32bits(v.Position[0]))
		binary.LittleEndian.PutUint32(data[cursor+4:], math.Float32bits(v.Position[1]))
		cursor += 8
	}
	vk.Memcopy(unsafe.Add(p.mapped, offset), data)
	return vk.DeviceSize(offset)
}

func (p *VulkanVertexPool) Destroy(context *VulkanContext) {
	vk.UnmapMemory(context.Device.LogicalDevice, p.Memory)
	vk.DestroyBuffer(context.Device.LogicalDevice, p.Handle, context.Allocator)
	vk.FreeMemory(context.Device.LogicalDevice, p.Memory, context.Allocator)
	p.Handle = vk.NullBuffer
	p.Memory = vk.NullDeviceMemory
	p.mapped = nil
}
