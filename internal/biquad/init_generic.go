//go:build !amd64 && !arm64

package biquad

import (
	_ "github.com/clearvoice/voxengine/internal/biquad/internal/kernel/generic" // register scalar fallback
)
