package httpservice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheOptions_Active(t *testing.T) {
	tests := []struct {
		name string
		opts CacheOptions
		want bool
	}{
		{name: "given enabled with minutes, then active", opts: CacheOptions{Enabled: true, Minutes: 10}, want: true},
		{name: "given enabled with zero minutes, then inactive", opts: CacheOptions{Enabled: true}, want: false},
		{name: "given enabled with negative minutes, then inactive", opts: CacheOptions{Enabled: true, Minutes: -1}, want: false},
		{name: "given disabled, then inactive", opts: CacheOptions{Minutes: 10}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opts.Active())
		})
	}
}

func TestOptions_EnableCache(t *testing.T) {
	var o Options
	o.EnableCache(3)
	assert.Equal(t, CacheOptions{Enabled: true, Minutes: 3}, o.Cache)
	assert.Equal(t, 3*time.Minute, o.Cache.TTL())

	o.EnableCache(0)
	assert.Equal(t, DefaultCacheMinutes, o.Cache.Minutes)
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()

	assert.False(t, o.Cache.Active())
	assert.Equal(t, DefaultCacheMinutes, o.Cache.Minutes)
	assert.Zero(t, o.Retry.MaxRetryTimes)
	assert.Equal(t, DefaultRetryInterval, o.Retry.Interval)
	assert.Empty(t, o.URL.CustomURL)
}

func TestBinding_String(t *testing.T) {
	assert.Equal(t, "query", BindQuery.String())
	assert.Equal(t, "multipart_json", BindMultipartJSON.String())
	assert.Equal(t, "none", Binding(99).String())
}
