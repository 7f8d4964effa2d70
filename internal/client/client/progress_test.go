package client

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, r io.Reader, chunk int) {
	t.Helper()
	buf := make([]byte, chunk)
	for {
		_, err := r.Read(buf)
		if err == io.EOF {
			return
		}
		require.NoError(t, err)
	}
}

func TestProgressReader_WholePercents(t *testing.T) {
	var reports []int
	pr := newProgressReader(strings.NewReader("abc"), 3, func(p int) { reports = append(reports, p) })

	drain(t, pr, 1)

	assert.Equal(t, []int{33, 67, 100}, reports)
}

func TestProgressReader_SuppressesRepeats(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 1000)
	var reports []int
	pr := newProgressReader(bytes.NewReader(data), int64(len(data)), func(p int) { reports = append(reports, p) })

	// 1000 one-byte reads collapse to at most 101 distinct percents.
	drain(t, pr, 1)

	require.NotEmpty(t, reports)
	assert.Equal(t, 100, reports[len(reports)-1])
	for i := 1; i < len(reports); i++ {
		assert.Greater(t, reports[i], reports[i-1])
	}
}

func TestProgressReader_CapsAtHundred(t *testing.T) {
	// Declared total smaller than the actual payload.
	var reports []int
	pr := newProgressReader(strings.NewReader("abcdef"), 3, func(p int) { reports = append(reports, p) })

	drain(t, pr, 2)

	for _, p := range reports {
		assert.LessOrEqual(t, p, 100)
	}
	assert.Equal(t, 100, reports[len(reports)-1])
}

func TestProgressReader_NilSink(t *testing.T) {
	pr := newProgressReader(strings.NewReader("abc"), 3, nil)
	drain(t, pr, 1) // must not panic
}

func TestProgressReader_UnknownTotal(t *testing.T) {
	called := false
	pr := newProgressReader(strings.NewReader("abc"), 0, func(int) { called = true })
	drain(t, pr, 1)
	assert.False(t, called)
}
