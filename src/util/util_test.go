package util

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOption(t *testing.T) {
	none := None[int]()
	_, ok := none.Get()
	require.False(t, ok)
	require.False(t, none.IsSome())
	require.Equal(t, 7, none.OrElse(7))
	require.Equal(t, "-", FormatInt(none))

	some := Some(3)
	v, ok := some.Get()
	require.True(t, ok)
	require.Equal(t, 3, v)
	require.Equal(t, 3, some.OrElse(7))
	require.Equal(t, "3", FormatInt(some))

	var zero Option[string]
	require.False(t, zero.IsSome())

	n := 5
	require.Equal(t, Some(5), FromPtr(&n))
	require.False(t, FromPtr[int](nil).IsSome())
}

func TestPadOrTrim(t *testing.T) {
	require.Equal(t, "ab  ", padOrTrim("ab", 4))
	require.Equal(t, "abcd", padOrTrim("abcd", 4))
	require.Equal(t, "a...", padOrTrim("abcdefg", 4))
	require.Equal(t, "ab", padOrTrim("abcdefg", 2))
	require.Equal(t, "abc", padOrTrim("abc", 0))
}

func TestProgressRate(t *testing.T) {
	require.Equal(t, 0.0, progressRate(10, 0))
	require.Equal(t, 5.0, progressRate(10, 2))
}

func TestProgressLoggerCounts(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressLogger(2, "exporting", 5*time.Millisecond, &buf)
	p.UpdateBytes(100)
	p.UpdateBytes(0)
	p.UpdateObjects(1)
	p.UpdateObjects(1)
	p.Stop()
	p.Stop()

	objects, written := p.Snapshot()
	require.EqualValues(t, 2, objects)
	require.EqualValues(t, 100, written)
}

func TestProgressLoggerDisabled(t *testing.T) {
	p := NewProgressLogger(0, "exporting", time.Millisecond, nil)
	p.UpdateObjects(3)
	p.Stop()
	objects, _ := p.Snapshot()
	require.EqualValues(t, 3, objects)
}

func TestLoggerDropsEmptyStrings(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, false)
	l.Info("hello", "empty", "", "kept", "value")
	l.Debug("hidden")

	out := buf.String()
	require.Contains(t, out, "hello")
	require.Contains(t, out, "kept")
	require.NotContains(t, out, "empty=")
	require.NotContains(t, out, "hidden")
}

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2024, 3, 5, 10, 11, 12, 345_000_000, time.FixedZone("x", 3600))
	require.Equal(t, "2024-03-05T09:11:12.345Z", formatRFC3339Millis(ts))
}
