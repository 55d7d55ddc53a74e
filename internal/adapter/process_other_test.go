//go:build !unix

package adapter

func processAlive(_ int) bool {
	return false
}
