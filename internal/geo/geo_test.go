package geo

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    Location
	}{
		{
			name: "full headers",
			headers: map[string]string{
				"CF-IPCity":    "Austin",
				"CF-Region":    "Texas",
				"CF-IPCountry": "US",
				"CF-Timezone":  "America/Chicago",
			},
			want: Location{
				City: "Austin", Region: "Texas", Country: "US",
				Timezone: "America/Chicago", LocationString: "Austin, Texas", Detected: true,
			},
		},
		{
			name:    "city only",
			headers: map[string]string{"CF-IPCity": "Austin"},
			want:    Location{City: "Austin", LocationString: "Austin", Detected: true},
		},
		{
			name:    "region only",
			headers: map[string]string{"CF-Region": "Texas"},
			want:    Location{Region: "Texas", LocationString: "Texas", Detected: true},
		},
		{
			name:    "country only",
			headers: map[string]string{"CF-IPCountry": "US"},
			want:    Location{Country: "US", LocationString: "US", Detected: true},
		},
		{
			name:    "unknown country marker is dropped",
			headers: map[string]string{"CF-IPCountry": "XX"},
			want:    Location{},
		},
		{
			name:    "no headers",
			headers: nil,
			want:    Location{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/geo", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			got := FromRequest(r)
			if got != tt.want {
				t.Errorf("FromRequest() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
