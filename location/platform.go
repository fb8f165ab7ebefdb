package location

import "fmt"

// DestinationKey returns the settings key holding the destination
// directory for goos.
func DestinationKey(goos string) (string, error) {
	switch goos {
	case "linux":
		return KeyDestinationLinux, nil
	case "windows":
		return KeyDestinationWindows, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, goos)
}
