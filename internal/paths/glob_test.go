package paths

import "testing"

func TestMatchGlob(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    bool
	}{
		{name: "exact", pattern: "animalia/chordata", path: "animalia/chordata", want: true},
		{name: "star within segment", pattern: "animalia/*", path: "animalia/chordata", want: true},
		{name: "star does not cross segments", pattern: "animalia/*", path: "animalia/chordata/aves", want: false},
		{name: "question mark", pattern: "felis-?atus", path: "felis-catus", want: true},
		{name: "double star any depth", pattern: "**/felis-*", path: "animalia/chordata/mammalia/carnivora/felidae/felis/felis-catus", want: true},
		{name: "double star matches zero segments", pattern: "animalia/**/chordata", path: "animalia/chordata", want: true},
		{name: "double star trailing", pattern: "animalia/**", path: "animalia/chordata/aves", want: true},
		{name: "double star no match", pattern: "plantae/**", path: "animalia/chordata", want: false},
		{name: "bad pattern", pattern: "[", path: "a", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchGlob(tt.pattern, tt.path); got != tt.want {
				t.Errorf("MatchGlob(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
			}
		})
	}
}

func TestIsGlobPattern(t *testing.T) {
	for s, want := range map[string]bool{"felis-*": true, "bubo?": true, "[ab]": true, "animalia/chordata": false} {
		if got := IsGlobPattern(s); got != want {
			t.Errorf("IsGlobPattern(%q) = %v, want %v", s, got, want)
		}
	}
}
