package config

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_YAML(t *testing.T) {
	t.Parallel()

	var v struct {
		Delay Duration `yaml:"delay"`
	}

	require.NoError(t, yaml.Unmarshal([]byte(`delay: 1m30s`), &v))
	assert.Equal(t, 90*time.Second, v.Delay.Duration())

	require.NoError(t, yaml.Unmarshal([]byte(`delay: ""`), &v))
	assert.Zero(t, v.Delay)

	assert.Error(t, yaml.Unmarshal([]byte(`delay: later`), &v))
	assert.Error(t, yaml.Unmarshal([]byte(`delay: [1s]`), &v))

	out, err := yaml.Marshal(struct {
		Delay Duration `yaml:"delay"`
	}{Duration(2 * time.Second)})
	require.NoError(t, err)
	assert.Equal(t, "delay: 2s\n", string(out))
}

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"250ms"`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Duration())

	require.NoError(t, json.Unmarshal([]byte(`null`), &d))
	assert.Zero(t, d)

	assert.Error(t, json.Unmarshal([]byte(`"xyz"`), &d))

	b, err := json.Marshal(Duration(time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"1s"`, string(b))
}
