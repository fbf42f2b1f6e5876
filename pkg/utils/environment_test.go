package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvironmentStr(t *testing.T) {
	cases := map[string]struct {
		raw     string
		want    Environment
		devMode bool
	}{
		"production lower": {raw: "production", want: PRODUCTION},
		"production upper": {raw: "PRODUCTION", want: PRODUCTION},
		"development":      {raw: "Development", want: DEVELOPMENT, devMode: true},
		"staging":          {raw: "staging", want: DEVELOPMENT, devMode: true},
		"unset":            {raw: "", want: DEVELOPMENT, devMode: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			env := FromEnvironmentStr(tc.raw)
			assert.Equal(t, tc.want, env)
			assert.Equal(t, string(tc.want), env.Get())
			assert.Equal(t, tc.devMode, env.IsDevelopment())
		})
	}
}
