package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/trigon/engine/renderer"
)

func supportWithBounds(minW, minH, maxW, maxH uint32) *VulkanSwapchainSupportInfo {
	support := &VulkanSwapchainSupportInfo{}
	support.Capabilities.MinImageExtent = vk.Extent2D{Width: minW, Height: minH}
	support.Capabilities.MaxImageExtent = vk.Extent2D{Width: maxW, Height: maxH}
	return support
}

func TestValidateSwapchainExtentWithinBounds(t *testing.T) {
	support := supportWithBounds(1, 1, 4096, 4096)
	if err := validateSwapchainExtent(support, 800, 600); err != nil {
		t.Fatalf("expected 800x600 to be accepted, got %v", err)
	}
}

func TestValidateSwapchainExtentMinimizedWindow(t *testing.T) {
	support := supportWithBounds(1, 1, 4096, 4096)
	if err := validateSwapchainExtent(support, 0, 0); !errors.Is(err, renderer.ErrUnsupportedExtent) {
		t.Fatalf("expected ErrUnsupportedExtent for a minimized window, got %v", err)
	}
}

func TestValidateSwapchainExtentBelowMinimum(t *testing.T) {
	support := supportWithBounds(64, 64, 4096, 4096)
	if err := validateSwapchainExtent(support, 32, 600); !errors.Is(err, renderer.ErrUnsupportedExtent) {
		t.Fatalf("expected ErrUnsupportedExtent below the minimum extent, got %v", err)
	}
}

func TestValidateSwapchainExtentAboveMaximum(t *testing.T) {
	support := supportWithBounds(1, 1, 1920, 1080)
	if err := validateSwapchainExtent(support, 2560, 1440); !errors.Is(err, renderer.ErrUnsupportedExtent) {
		t.Fatalf("expected ErrUnsupportedExtent above the maximum extent, got %v", err)
	}
}

func TestValidateSwapchainExtentUnboundedMaximum(t *testing.T) {
	support := supportWithBounds(1, 1, 0, 0)
	if err := validateSwapchainExtent(support, 2560, 1440); err != nil {
		t.Fatalf("expected any extent to be accepted when the maximum is unbounded, got %v", err)
	}
}
