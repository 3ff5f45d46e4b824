//
//  internal/requestinfo/requestinfo.go
//
//  Lightweight per-request metadata: client address, a parsed user-agent
//  fingerprint, and the arrival time.  The public submission path uses the
//  address as its rate-limit key and the bot flag for spam protection.
//  These structs are inert, so they are safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer (UA parsing)
//

package requestinfo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	surfer "github.com/avct/uasurfer"
)

//
//  -----------------------------
//  Struct definitions
//  -----------------------------
//

// UA holds the parsed user-agent properties.
//
// Device is one of: "Desktop", "Mobile", "Tablet", "Bot", or "Other".
type UA struct {
	Raw       string `json:"-"`
	Browser   string `json:"browser"`
	Version   string `json:"version,omitempty"`
	OS        string `json:"os"`
	OSVersion string `json:"osVersion,omitempty"`
	Device    string `json:"device"`
	IsBot     bool   `json:"isBot"`
}

// RequestInfo is attached to the request context by Enrich.
type RequestInfo struct {
	IP        string    `json:"ip"`
	UA        UA        `json:"ua"`
	Timestamp time.Time `json:"ts"`
}

//
//  -----------------------------
//  Public helper: FromContext
//  -----------------------------
//

type ctxKey struct{} // unexported, collision-proof

// WithInfo returns a context carrying info.
func WithInfo(ctx context.Context, info *RequestInfo) context.Context {
	return context.WithValue(ctx, ctxKey{}, info)
}

// FromContext returns the pointer previously stored by Enrich.
// It returns nil if the middleware has not run.
func FromContext(ctx context.Context) *RequestInfo {
	v, _ := ctx.Value(ctxKey{}).(*RequestInfo)
	return v
}

//
//  -----------------------------
//  UA parsing
//  -----------------------------
//

// ParseUA converts a raw header into a UA struct.
func ParseUA(raw string) UA {
	ua := surfer.Parse(raw)

	info := UA{
		Raw:       raw,
		Browser:   ua.Browser.Name.StringTrimPrefix(),
		Version:   versionToString(ua.Browser.Version),
		OS:        ua.OS.Name.StringTrimPrefix(),
		OSVersion: versionToString(ua.OS.Version),
		IsBot:     ua.IsBot(),
	}

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}
	if info.IsBot {
		info.Device = "Bot"
	}
	return info
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
