package permission

import "errors"

var ErrDenied = errors.New("permission denied")

type Privilege uint8

const (
	Guest  Privilege = 1   // Non logged in user
	Viewer Privilege = 5   // Read only access, e.g. coaches or analysts
	Player Privilege = 10  // Normal logged-in roster member
	Admin  Privilege = 100 // Unrestricted admin
)

func (p Privilege) String() string {
	switch p {
	case Guest:
		return "guest"
	case Viewer:
		return "viewer"
	case Player:
		return "player"
	case Admin:
		return "admin"
	default:
		return "unknown"
	}
}
