//go:build !opencl || !cgo

package miner

// listGPUDevices reports no devices when built without OpenCL support.
func listGPUDevices() ([]GPUDevice, error) {
	return nil, errGPUUnavailable
}

// newGPUWorker always fails when built without OpenCL support.
func newGPUWorker(cfg gpuWorkerConfig) (func(), error) {
	return nil, errGPUUnavailable
}
