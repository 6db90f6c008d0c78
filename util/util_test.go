package util

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestSplitNumberPrefix(t *testing.T) {
	testData := []struct {
		in     string
		number string
		suffix string
	}{
		{"1000ms", "1000", "ms"},
		{"1.5s", "1.5", "s"},
		{"2h", "2", "h"},
		{"12", "12", ""},
		{"ms", "", "ms"},
	}
	for _, d := range testData {
		number, suffix := SplitNumberPrefix(d.in)
		assert.Equal(t, d.number, number, d.in)
		assert.Equal(t, d.suffix, suffix, d.in)
	}
}

func TestIsAllNumber(t *testing.T) {
	assert.True(t, IsAllNumber("13"))
	assert.False(t, IsAllNumber(""))
	assert.False(t, IsAllNumber("1a"))
}
