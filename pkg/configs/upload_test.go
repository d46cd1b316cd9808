package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUploadLimits(t *testing.T) {
	tests := []struct {
		name string
		cfg  UploadConfig
		want UploadLimits
	}{
		{
			name: "zero values fall back to defaults",
			cfg:  UploadConfig{},
			want: UploadLimits{MaxFiles: 10, MaxTotalSize: DefaultMaxTotalSize, MaxSingleFileSize: DefaultMaxSingleFileSize},
		},
		{
			name: "negative values fall back to defaults",
			cfg:  UploadConfig{MaxFiles: -3, MaxTotalSize: -1, MaxSingleFileSize: -1},
			want: UploadLimits{MaxFiles: 10, MaxTotalSize: DefaultMaxTotalSize, MaxSingleFileSize: DefaultMaxSingleFileSize},
		},
		{
			name: "max files clamped to lower bound",
			cfg:  UploadConfig{MaxFiles: 1, MaxTotalSize: 1024, MaxSingleFileSize: 512},
			want: UploadLimits{MaxFiles: 2, MaxTotalSize: 1024, MaxSingleFileSize: 512},
		},
		{
			name: "max files clamped to upper bound",
			cfg:  UploadConfig{MaxFiles: 50},
			want: UploadLimits{MaxFiles: 10, MaxTotalSize: DefaultMaxTotalSize, MaxSingleFileSize: DefaultMaxSingleFileSize},
		},
		{
			name: "in range values kept",
			cfg:  UploadConfig{MaxFiles: 4, MaxTotalSize: 4096, MaxSingleFileSize: 2048},
			want: UploadLimits{MaxFiles: 4, MaxTotalSize: 4096, MaxSingleFileSize: 2048},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Limits())
		})
	}
}

func TestInitConfigWithoutFile(t *testing.T) {
	t.Setenv("RELAYVAULT_UPLOAD_MAX_FILES", "3")

	err := InitConfig(t.TempDir())
	assert.NoError(t, err)

	cfg := GetConfig()
	assert.Equal(t, KVTypeMemory, cfg.KV.Type)
	assert.Equal(t, 3, cfg.Upload.Limits().MaxFiles)
	assert.Equal(t, DefaultRelayAPIBase, cfg.Relay.APIBase)
}
