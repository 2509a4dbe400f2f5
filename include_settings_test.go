package otterreceiver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_IncludeSettings_Empty(t *testing.T) {
	is, err := parseIncludeSettingsBuffer([]byte(``), "test.yml")
	require.NoError(t, err)
	assert.False(t, is.Include.Hostname)
	assert.False(t, is.Include.Pid)
}

func Test_IncludeSettings_HostnameAndPid(t *testing.T) {
	yml := `
include:
  hostname: true
  pid: true
`
	is, err := parseIncludeSettingsBuffer([]byte(yml), "test.yml")
	require.NoError(t, err)
	assert.True(t, is.Include.Hostname)
	assert.True(t, is.Include.Pid)
}

func Test_IncludeSettings_MalformedYAML(t *testing.T) {
	_, err := parseIncludeSettingsBuffer([]byte("include: [oops"), "test.yml")
	assert.Error(t, err)
}
