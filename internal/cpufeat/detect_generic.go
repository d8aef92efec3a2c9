//go:build !amd64 && !arm64

package cpufeat

import "runtime"

func detectImpl() Features {
	return Features{Architecture: runtime.GOARCH}
}
