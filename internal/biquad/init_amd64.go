//go:build amd64

package biquad

import (
	_ "github.com/clearvoice/voxengine/internal/biquad/internal/kernel/amd64avx2" // register amd64 kernel
	_ "github.com/clearvoice/voxengine/internal/biquad/internal/kernel/generic"   // register scalar fallback
)
