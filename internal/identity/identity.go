// Package identity formats allocated sequence numbers into the external
// identifier strings exposed by the API. Formatting is pure and
// deterministic; the zero padding is a two-digit minimum, not a fixed width,
// so sequences past 99 simply produce longer identifiers.
package identity

import "fmt"

type Kind string

const (
	KindCamera Kind = "camera"
	KindAlert  Kind = "alert"
	KindUser   Kind = "user"
)

// Format builds the external identifier for an entity kind and sequence,
// e.g. (KindCamera, 7) -> "ATM_Cam_07", (KindAlert, 100) -> "alert_100".
func Format(kind Kind, seq int64) string {
	switch kind {
	case KindCamera:
		return fmt.Sprintf("ATM_Cam_%02d", seq)
	case KindAlert:
		return fmt.Sprintf("alert_%02d", seq)
	case KindUser:
		return fmt.Sprintf("user_%02d", seq)
	default:
		return fmt.Sprintf("%s_%02d", kind, seq)
	}
}
