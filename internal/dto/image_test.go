package dto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveImageURL(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty", raw: "", want: DefaultImagePath},
		{name: "whitespace", raw: "   ", want: DefaultImagePath},
		{name: "dot slash only", raw: "./   ", want: DefaultImagePath},
		{name: "http passthrough", raw: "http://cdn.example.com/a.png", want: "http://cdn.example.com/a.png"},
		{name: "https mixed case", raw: "HTTPS://cdn.example.com/a.png", want: "HTTPS://cdn.example.com/a.png"},
		{name: "data url", raw: "data:image/png;base64,AAAA", want: "data:image/png;base64,AAAA"},
		{name: "dot slash stripped", raw: "./image.png", want: "/image.png"},
		{name: "bare relative", raw: " image.png ", want: "/image.png"},
		{name: "already rooted", raw: "/uploads/x.jpg", want: "/uploads/x.jpg"},
		{name: "parent segment", raw: "../foo.png", want: "/../foo.png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ResolveImageURL(tc.raw))
		})
	}
}

func TestImageResolverWithBaseURL(t *testing.T) {
	resolver := NewImageResolver(" https://assets.promata.example/ ")

	require.Equal(t, "https://assets.promata.example/uploads/x.jpg", resolver.Resolve("uploads/x.jpg"))
	require.Equal(t, "https://other.example/y.png", resolver.Resolve("https://other.example/y.png"))
	require.Equal(t, DefaultImagePath, resolver.Resolve(""))
}
