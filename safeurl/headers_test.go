package safeurl

import (
	"reflect"
	"testing"
)

func TestSanitizeHeaders(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    map[string]string
	}{
		{
			name:    "nil input",
			headers: nil,
			want:    nil,
		},
		{
			name:    "empty input",
			headers: map[string]string{},
			want:    nil,
		},
		{
			name: "forbidden headers dropped case-insensitively",
			headers: map[string]string{
				"Host":              "evil.example",
				"CONTENT-LENGTH":    "999",
				"Transfer-Encoding": "chunked",
				"connection":        "keep-alive",
			},
			want: nil,
		},
		{
			name: "surviving keys lowercased",
			headers: map[string]string{
				"User-Agent":      "custom-agent/1.0",
				"Accept-Language": "ja-JP",
				"X-Custom":        "Value-Kept-As-Is",
			},
			want: map[string]string{
				"user-agent":      "custom-agent/1.0",
				"accept-language": "ja-JP",
				"x-custom":        "Value-Kept-As-Is",
			},
		},
		{
			name: "mixed forbidden and allowed",
			headers: map[string]string{
				"Host":          "evil.example",
				"Authorization": "Bearer token123",
				"Referer":       "https://example.com",
			},
			want: map[string]string{
				"authorization": "Bearer token123",
				"referer":       "https://example.com",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeHeaders(tt.headers)
			if tt.want == nil {
				if got != nil {
					t.Errorf("SanitizeHeaders() = %v, want nil", got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeHeaders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSanitizeHeadersDoesNotMutateInput(t *testing.T) {
	in := map[string]string{"Host": "a", "X-Keep": "b"}
	SanitizeHeaders(in)

	if len(in) != 2 || in["Host"] != "a" || in["X-Keep"] != "b" {
		t.Errorf("input map mutated: %v", in)
	}
}
