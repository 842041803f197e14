package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginImageURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "scheme-relative thumbnail with size parameter",
			in:   "//i.ytimg.com/vi/abc/default.jpg=s900",
			want: "https://i.ytimg.com/vi/abc/default.jpg=s0?imgmax=0",
		},
		{
			name: "absolute https url keeps its scheme",
			in:   "https://yt3.ggpht.com/photo=s88-c-k",
			want: "https://yt3.ggpht.com/photo=s0?imgmax=0",
		},
		{
			name: "http url keeps its scheme",
			in:   "http://example.com/img=s640",
			want: "http://example.com/img=s0?imgmax=0",
		},
		{
			name: "url without size parameter only gains the suffix",
			in:   "https://example.com/img.png",
			want: "https://example.com/img.png=s0?imgmax=0",
		},
		{
			name: "last size marker wins",
			in:   "//host/a=s100/b=s200",
			want: "https://host/a=s100/b=s0?imgmax=0",
		},
		{
			name: "empty input stays empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OriginImageURL(tt.in))
		})
	}
}
