package vulkan

/*
#include <stdlib.h>

typedef void* (*voxel_get_instance_proc_addr)(void* instance, const char* name);

static void* voxel_call_get_instance_proc_addr(void* fn, void* instance, const char* name) {
	return ((voxel_get_instance_proc_addr)fn)(instance, name);
}
*/
import "C"

import (
	"unsafe"

	"github.com/spaghettifunk/voxel/engine/renderer/loader"
)

// procAddrFunc adapts a native vkGetInstanceProcAddr pointer to the loader
// bootstrap signature.
func procAddrFunc(getInstanceProcAddr unsafe.Pointer) loader.ProcAddrFunc {
	return func(handle unsafe.Pointer, name string) unsafe.Pointer {
		cname := C.CString(name)
		defer C.free(unsafe.Pointer(cname))
		return C.voxel_call_get_instance_proc_addr(getInstanceProcAddr, handle, cname)
	}
}

// Entry points resolved with a nil instance.
var globalCommandNames = []string{
	"vkCreateInstance",
	"vkEnumerateInstanceExtensionProperties",
	"vkEnumerateInstanceLayerProperties",
}

var instanceCommandNames = []string{
	"vkDestroyInstance",
	"vkEnumeratePhysicalDevices",
	"vkGetPhysicalDeviceProperties",
	"vkGetPhysicalDeviceMemoryProperties",
	"vkGetPhysicalDeviceQueueFamilyProperties",
	"vkGetPhysicalDeviceSurfaceSupportKHR",
	"vkDestroySurfaceKHR",
	"vkEnumerateDeviceExtensionProperties",
	"vkCreateDevice",
	"vkGetDeviceProcAddr",
}

var deviceCommandNames = []string{
	"vkDestroyDevice",
	"vkGetDeviceQueue",
	"vkDeviceWaitIdle",
	"vkQueueSubmit",
	"vkCreateFence",
	"vkDestroyFence",
	"vkGetFenceStatus",
	"vkResetFences",
	"vkWaitForFences",
	"vkCreateSemaphore",
	"vkDestroySemaphore",
	"vkCreateBuffer",
	"vkDestroyBuffer",
	"vkGetBufferMemoryRequirements",
	"vkAllocateMemory",
	"vkFreeMemory",
	"vkBindBufferMemory",
	"vkMapMemory",
	"vkUnmapMemory",
	"vkCreateCommandPool",
	"vkDestroyCommandPool",
	"vkAllocateCommandBuffers",
	"vkFreeCommandBuffers",
	"vkBeginCommandBuffer",
	"vkEndCommandBuffer",
	"vkCmdCopyBuffer",
}

// Only required when validation is enabled.
var debugCommandNames = []string{
	"vkCreateDebugReportCallbackEXT",
	"vkDestroyDebugReportCallbackEXT",
}
