package notify

import "github.com/gen2brain/beeep"

// Backend delivers a notification to the user.
type Backend interface {
	// Notify sends a standard notification.
	Notify(title, message, iconPath string) error
	// Alert sends an alert notification.
	Alert(title, message, iconPath string) error
}

// desktopBackend implements Backend by calling beeep functions directly.
type desktopBackend struct{}

func (desktopBackend) Notify(title, message, iconPath string) error {
	return beeep.Notify(title, message, iconPath)
}

func (desktopBackend) Alert(title, message, iconPath string) error {
	return beeep.Alert(title, message, iconPath)
}
