package qbittorrent

import (
	"fmt"
	"math"
)

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib

	// etaInfinity is what the daemon reports when there is no estimate.
	etaInfinity = 8640000
)

// FormatBytes renders a size with binary units, rounding down.
func FormatBytes(n int64) string {
	switch {
	case n < kib:
		return fmt.Sprintf("%d B", n)
	case n < mib:
		return fmt.Sprintf("%s KiB", floorTo(float64(n)/kib, 1))
	case n < gib:
		return fmt.Sprintf("%s MiB", floorTo(float64(n)/mib, 1))
	default:
		return fmt.Sprintf("%s GiB", floorTo(float64(n)/gib, 2))
	}
}

// FormatSpeed renders a transfer rate
func FormatSpeed(bytesPerSecond int64) string {
	return FormatBytes(bytesPerSecond) + "/s"
}

// FormatETA renders a remaining time in seconds. ok is false for "no estimate".
func FormatETA(seconds int64) (eta string, ok bool) {
	switch {
	case seconds < 0 || seconds >= etaInfinity:
		return "∞", false
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds), true
	case seconds < 60*60:
		if rem := seconds % 60; rem != 0 {
			return fmt.Sprintf("%dm %ds", seconds/60, rem), true
		}
		return fmt.Sprintf("%dm", seconds/60), true
	case seconds < 60*60*60:
		if rem := int64(math.Round(float64(seconds%(60*60)) / 60)); rem != 0 {
			return fmt.Sprintf("%dh %dm", seconds/(60*60), rem), true
		}
		return fmt.Sprintf("%dh", seconds/(60*60)), true
	default:
		if rem := int64(math.Round(float64(seconds%(24*60*60)) / (60 * 60))); rem != 0 {
			return fmt.Sprintf("%dd %dh", seconds/(24*60*60), rem), true
		}
		return fmt.Sprintf("%dd", seconds/(24*60*60)), true
	}
}

func floorTo(v float64, decimals int) string {
	pow := math.Pow(10, float64(decimals))
	return fmt.Sprintf("%.*f", decimals, math.Floor(v*pow)/pow)
}

// StateLabel maps a daemon torrent state to a readable label
func StateLabel(state string) string {
	switch state {
	case "error":
		return "Error"
	case "missingFiles":
		return "Missing files"
	case "uploading":
		return "Seeding"
	case "pausedUP", "pausedDL", "stoppedUP", "stoppedDL":
		return "Paused"
	case "queuedUP", "queuedDL":
		return "Queued"
	case "stalledUP", "stalledDL":
		return "Stalled"
	case "checkingUP", "checkingDL", "checkingResumeData":
		return "Checking"
	case "forcedUP":
		return "Force seeding"
	case "allocating":
		return "Allocating space"
	case "downloading":
		return "Downloading"
	case "metaDL", "forcedMetaDL":
		return "Downloading metadata"
	case "forcedDL":
		return "Force downloading"
	case "moving":
		return "Moving"
	default:
		return "Unknown"
	}
}
