// Package constants defines application-wide constants and version information.
package constants

import "runtime"

// Version holds the application version information
const Version = "1.2-" + runtime.GOOS + "/" + runtime.GOARCH

// UserAgent is sent with every request to a data server
const UserAgent = "stickplot/" + Version

// YOffsetFactor is the vertical distance between depth rows in a 2D stick plot
const YOffsetFactor = 10.0
