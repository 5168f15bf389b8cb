package crypto

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func TestEncryptDecryptString(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	require.True(t, svc.Configured())

	sealed, err := svc.EncryptString("50100012345678")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "50100012345678")

	plain, err := svc.DecryptString(sealed)
	require.NoError(t, err)
	assert.Equal(t, "50100012345678", plain)
}

func TestPassThroughWithoutKey(t *testing.T) {
	svc, err := New("")
	require.NoError(t, err)
	assert.False(t, svc.Configured())

	out, err := svc.Encrypt([]byte("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", string(out))
}

func TestNewRejectsShortKey(t *testing.T) {
	_, err := New("too-short")
	require.Error(t, err)
}

func TestDecryptTooShort(t *testing.T) {
	svc, err := New(testKey)
	require.NoError(t, err)
	_, err = svc.Decrypt([]byte{1, 2, 3})
	require.ErrorIs(t, err, ErrCiphertextTooShort)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	plainSvc, err := New("")
	require.NoError(t, err)
	path, err := plainSvc.WriteFile(filepath.Join(dir, "a.xlsx"), []byte("data"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "a.xlsx"), path)

	sealedSvc, err := New(testKey)
	require.NoError(t, err)
	path, err = sealedSvc.WriteFile(filepath.Join(dir, "b.xlsx"), []byte("data"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".xlsx.enc"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	plain, err := sealedSvc.Decrypt(raw)
	require.NoError(t, err)
	assert.Equal(t, "data", string(plain))
}
