package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeForScreening(t *testing.T) {
	assert.Equal(t, "kil myself", normalizeForScreening("KILL   my$elf!!!"))
	assert.Equal(t, "want to die", normalizeForScreening("w4nt t0 diiiie"))
	assert.Equal(t, "", normalizeForScreening("  ... "))
}

func TestScreenForSelfHarm(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"I had a lovely walk today", nil},
		{"Sometimes I want to die!", []string{"want to die"}},
		{"i want to k1ll myseeelf", []string{"kil myself"}},
		{"feeling suicidal, and I might end it all", []string{"suicidal", "end it al"}},
		{"watched suicidesquad last night", nil},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ScreenForSelfHarm(tt.text), tt.text)
	}
}
