package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taigrr/sitefs/internal/types"
)

func TestService_ReadFile(t *testing.T) {
	tests := []struct {
		name string
		body string
		opts *types.ReadOptions
		want string
	}{
		{"plain", "test", nil, "test"},
		{"strips bom", "\uFEFFfoo", nil, "foo"},
		{"normalizes crlf", "foo\r\nbar", nil, "foo\nbar"},
		{"bom and crlf", "\uFEFFfoo\r\nbar\r\n", &types.ReadOptions{}, "foo\nbar\n"},
		{"raw keeps crlf", "foo\r\nbar", &types.ReadOptions{Raw: true}, "foo\r\nbar"},
		{"raw keeps bom", "\uFEFFfoo", &types.ReadOptions{Raw: true}, "\uFEFFfoo"},
		{"empty", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, svc := setupTestSite(t)
			target := filepath.Join(tmpDir, "test.txt")
			require.NoError(t, svc.WriteFile(t.Context(), target, []byte(tt.body), nil))

			got, err := svc.ReadFile(t.Context(), target, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			got, err = svc.ReadFileSync(target, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_ReadFileRawRoundTrip(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	target := filepath.Join(tmpDir, "bin.dat")
	body := []byte{0xef, 0xbb, 0xbf, 'a', '\r', '\n', 0x00, 0xff, 'z'}

	require.NoError(t, svc.WriteFileSync(target, body, nil))
	got, err := svc.ReadFileSync(target, &types.ReadOptions{Raw: true})
	require.NoError(t, err)
	assert.Equal(t, string(body), got)
}

func TestService_ReadFileEncoding(t *testing.T) {
	tmpDir, svc := setupTestSite(t)
	target := filepath.Join(tmpDir, "latin1.txt")
	require.NoError(t, os.WriteFile(target, []byte{'c', 'a', 'f', 0xe9, '\r', '\n'}, 0o644))

	got, err := svc.ReadFile(t.Context(), target, &types.ReadOptions{Encoding: "latin1"})
	require.NoError(t, err)
	assert.Equal(t, "café\n", got)

	_, err = svc.ReadFile(t.Context(), target, &types.ReadOptions{Encoding: "klingon"})
	require.Error(t, err)
	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "decode", pe.Op)
}

func TestService_ReadFileErrors(t *testing.T) {
	tmpDir, svc := setupTestSite(t)

	_, err := svc.ReadFile(t.Context(), filepath.Join(tmpDir, "missing"), nil)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.ReadFileSync(tmpDir, nil)
	assert.Equal(t, KindIsADirectory, KindOf(err))
}
