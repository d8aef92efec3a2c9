//go:build arm64

package biquad

import (
	_ "github.com/clearvoice/voxengine/internal/biquad/internal/kernel/arm64neon" // register arm64 kernel
	_ "github.com/clearvoice/voxengine/internal/biquad/internal/kernel/generic"   // register scalar fallback
)
