package dto

import "strings"

// DefaultImagePath is served by the portal when an experience has no usable image.
const DefaultImagePath = "/logo-pro-mata.png"

// ResolveImageURL turns a backend image reference into a URL the portal can load.
// Absolute http(s) and data URLs pass through; relative paths are rooted at "/".
func ResolveImageURL(raw string) string {
	return ImageResolver{}.Resolve(raw)
}

// ImageResolver resolves image references, optionally against an asset host.
type ImageResolver struct {
	BaseURL string
}

// NewImageResolver builds a resolver that prepends baseURL to rooted paths.
func NewImageResolver(baseURL string) ImageResolver {
	return ImageResolver{BaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/")}
}

// Resolve applies ResolveImageURL semantics and then the asset host, if any.
// The default image is never rewritten.
func (r ImageResolver) Resolve(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return DefaultImagePath
	}
	if isAbsoluteURL(value) {
		return value
	}

	if strings.HasPrefix(value, "./") {
		value = strings.TrimSpace(value[2:])
		if value == "" {
			return DefaultImagePath
		}
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}

	if r.BaseURL != "" {
		return r.BaseURL + value
	}
	return value
}

func isAbsoluteURL(value string) bool {
	lower := strings.ToLower(value)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:")
}
