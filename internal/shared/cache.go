package shared

import (
	"fmt"
	"os"
	"strings"
)

// DefaultDeviceCachePath is the dotfile, relative to the working directory, holding the last selected device.
const DefaultDeviceCachePath = ".cached_device_id.txt"

// DeviceCache persists a single device identifier as the whole contents of a plain-text file.
type DeviceCache struct {
	path string
}

// NewDeviceCache returns a [DeviceCache] backed by path, or [DefaultDeviceCachePath] when path is empty.
func NewDeviceCache(path string) *DeviceCache {
	if path == "" {
		path = DefaultDeviceCachePath
	}
	return &DeviceCache{path: path}
}

// Path returns the file location backing the cache.
func (c *DeviceCache) Path() string {
	return c.path
}

// Get reads the whole file as the cached identifier.
//
// A missing, unreadable, or empty file yields [ErrCacheIO].
func (c *DeviceCache) Get() (string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCacheIO, err)
	}

	id := strings.TrimSpace(string(data))
	if id == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrCacheIO, c.path)
	}
	return id, nil
}

// Set truncates the file and writes id with no delimiter.
func (c *DeviceCache) Set(id string) error {
	if err := os.WriteFile(c.path, []byte(id), 0644); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheIO, err)
	}
	return nil
}
