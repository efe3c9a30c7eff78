//go:build !linux

package ingesting

import "os"

func adviseSequential(*os.File) {}
