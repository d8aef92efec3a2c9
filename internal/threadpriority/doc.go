// Package threadpriority elevates the calling goroutine's OS thread to the
// highest scheduling priority the host affords to a media-processing
// thread, mirroring the elevation performed before starting the audio
// thread in the original engine's platform/thread_utils.h.
package threadpriority
