package shell

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestAdapterMatches(t *testing.T) {
	designated := DeviceIdentity{VendorID: 0x10de, DeviceID: 0x2684, Name: "Test GPU"}

	assert.True(t, adapterMatches(wgpu.AdapterInfo{VendorId: 0x10de, DeviceId: 0x2684}, designated))

	// Same vendor, different model: an integrated GPU next to the designated
	// discrete one must not match.
	assert.False(t, adapterMatches(wgpu.AdapterInfo{VendorId: 0x10de, DeviceId: 0x1234}, designated))
	assert.False(t, adapterMatches(wgpu.AdapterInfo{VendorId: 0x8086, DeviceId: 0x2684}, designated))
	assert.False(t, adapterMatches(wgpu.AdapterInfo{}, designated))
}

func TestRequiredExtensions(t *testing.T) {
	b := NewWGPUBinder(false)

	assert.Contains(t, b.RequiredInstanceExtensions(), "VK_KHR_get_physical_device_properties2")
	assert.Contains(t, b.RequiredDeviceExtensions(), "VK_KHR_maintenance1")
	assert.Contains(t, b.RequiredDeviceExtensions(), "VK_KHR_maintenance2")
}
