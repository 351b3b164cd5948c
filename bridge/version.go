package bridge

import (
	"github.com/coreos/go-semver/semver"

	"github.com/frontierui/canvas-host/errors"
)

// Version is the capability-interface version this host implements.
// A guest declares its own version via the canvas-abi-version export;
// Compatible decides whether the two can be bound.
var Version = semver.Version{Major: 0, Minor: 1, Patch: 0}

// HostModule is the wazero module name the capability imports live under.
const HostModule = "frontier:canvas/host"

// PackVersion encodes a semantic version into the u32 wire form used by
// the canvas-abi-version export: major<<16 | minor<<8 | patch.
func PackVersion(v semver.Version) uint32 {
	return uint32(v.Major)<<16 | uint32(v.Minor)<<8 | uint32(v.Patch)
}

// UnpackVersion decodes the u32 wire form back into a semantic version.
func UnpackVersion(raw uint32) semver.Version {
	return semver.Version{
		Major: int64(raw >> 16 & 0xff),
		Minor: int64(raw >> 8 & 0xff),
		Patch: int64(raw & 0xff),
	}
}

// Compatible reports whether a guest declaring the given interface version
// can be bound against this host. Majors must match exactly; the guest may
// not require a newer minor or patch than the host provides.
func Compatible(host, guest semver.Version) bool {
	if guest.Major != host.Major {
		return false
	}
	if guest.Minor != host.Minor {
		return guest.Minor < host.Minor
	}
	return guest.Patch <= host.Patch
}

// CheckVersion returns an IncompatibleInterface error unless the guest
// version is compatible with this host.
func CheckVersion(guest semver.Version) error {
	if Compatible(Version, guest) {
		return nil
	}
	return errors.IncompatibleInterface(
		"guest declares interface %s, host provides %s", guest, Version)
}
