package capture

// Reasons reported by the client when media acquisition fails.
const (
	ReasonNotAllowed = "NotAllowedError"
	ReasonNotFound   = "NotFoundError"
)

// PermissionMessage returns the message shown to the user for a failed
// media acquisition. It never affects submission state.
func PermissionMessage(reason string) string {
	switch reason {
	case ReasonNotAllowed:
		return "Camera access denied. Please allow camera permissions and try again."
	case ReasonNotFound:
		return "No camera found on this device."
	default:
		return "Unable to access camera. Please check your device settings."
	}
}
