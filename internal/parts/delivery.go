package parts

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoDeliveryOrigin is returned when a part has no direct URL and no
// delivery origin is configured.
var ErrNoDeliveryOrigin = errors.New("no delivery origin configured")

const adaptiveTransform = "f_auto,q_auto"

// Resolver builds playable URLs for stored media on an image/video CDN that
// uses Cloudinary's path transform syntax.
type Resolver struct {
	origin string
}

// NewResolver returns a resolver for origin, given as a host with an optional
// path prefix ("res.cloudinary.com/demo") or a full https URL.
func NewResolver(origin string) *Resolver {
	origin = strings.TrimSpace(origin)
	origin = strings.TrimPrefix(origin, "https://")
	origin = strings.TrimPrefix(origin, "http://")
	return &Resolver{origin: strings.TrimRight(origin, "/")}
}

// Origin returns the configured delivery origin without scheme.
func (r *Resolver) Origin() string { return r.origin }

// PlaybackURL returns the adaptive delivery URL of part. Without a configured
// origin it falls back to the part's direct URL.
func (r *Resolver) PlaybackURL(part VideoPart) (string, error) {
	if r.origin != "" && part.MediaID != "" {
		return r.build(adaptiveTransform, part.MediaID), nil
	}
	if part.SecureURL != "" {
		return part.SecureURL, nil
	}
	if part.MediaID == "" {
		return "", fmt.Errorf("part %d has no media id", part.Index)
	}
	return "", ErrNoDeliveryOrigin
}

// MediaURL returns the adaptive delivery URL of an unsplit media blob.
func (r *Resolver) MediaURL(mediaID string) (string, error) {
	if r.origin == "" {
		return "", ErrNoDeliveryOrigin
	}
	if mediaID == "" {
		return "", errors.New("empty media id")
	}
	return r.build(adaptiveTransform, mediaID), nil
}

// TrimURL returns a delivery URL that plays only [start, end) seconds of the
// media blob.
func (r *Resolver) TrimURL(mediaID string, start, end float64) (string, error) {
	if r.origin == "" {
		return "", ErrNoDeliveryOrigin
	}
	if mediaID == "" {
		return "", errors.New("empty media id")
	}
	if !(start >= 0 && start < end) {
		return "", fmt.Errorf("invalid trim range %.2f-%.2f", start, end)
	}
	trim := "so_" + formatOffset(start) + ",eo_" + formatOffset(end)
	return r.build(trim+"/"+adaptiveTransform, mediaID), nil
}

func (r *Resolver) build(transform, mediaID string) string {
	segments := strings.Split(mediaID, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "https://" + r.origin + "/video/upload/" + transform + "/" + strings.Join(segments, "/")
}

func formatOffset(sec float64) string {
	return strconv.FormatFloat(sec, 'f', 2, 64)
}
