package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTimeLeft(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{in: -3, want: "calculating..."},
		{in: 0, want: "calculating..."},
		{in: 1, want: "1 sec"},
		{in: 59, want: "59 sec"},
		{in: 60, want: "1 min 0 sec"},
		{in: 135, want: "2 min 15 sec"},
		{in: 3725, want: "62 min 5 sec"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTimeLeft(tt.in), "seconds=%d", tt.in)
	}
}
