package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"transpipe/internal/stage"
)

const sample = `schema_version: v1
strategy: merged
transformer:
  type: grpc
  address: localhost:50051
  timeout_ms: 1500
stages:
  - loader: ts
    tsconfig: tsconfig.json
    target: es2019
    define:
      DEBUG: "false"
  - include: "**/*.ts"
    exclude: []
    minify: true
  - output: true
    include: ['/\.js$/', "*.mjs"]
    banner: "/* built */"
reports: [stdout, kafka]
report_configs:
  kafka: kafka.yml
  stdout: { print_counter: true }
output:
  sourcemap: true
`

func TestFile_Decode(t *testing.T) {
	var f File
	require.NoError(t, yaml.Unmarshal([]byte(sample), &f))

	assert.Equal(t, "merged", f.Strategy)
	assert.Equal(t, TransformerSpec{Type: TransformerGRPC, Address: "localhost:50051", TimeoutMS: 1500}, f.Transformer)
	assert.Equal(t, []string{"stdout", "kafka"}, f.Reports)
	assert.Equal(t, "kafka.yml", f.ReportConfigs.Kafka)
	assert.True(t, f.ReportConfigs.Stdout.PrintCounter)
	assert.True(t, f.Output.Sourcemap)

	cfgs := f.StageConfigs()
	require.Len(t, cfgs, 3)

	assert.Equal(t, stage.KindTS, cfgs[0].Kind)
	assert.Nil(t, cfgs[0].Include)
	assert.Equal(t, "tsconfig.json", cfgs[0].Tsconfig)
	assert.Equal(t, stage.Options{"target": "es2019", "define": map[string]any{"DEBUG": "false"}}, cfgs[0].Options)

	assert.Equal(t, stage.Kind(""), cfgs[1].Kind)
	assert.Equal(t, []string{"**/*.ts"}, cfgs[1].Include)
	assert.NotNil(t, cfgs[1].Exclude)
	assert.Empty(t, cfgs[1].Exclude)
	assert.Equal(t, stage.Options{"minify": true}, cfgs[1].Options)

	assert.True(t, cfgs[2].Output)
	assert.Equal(t, []string{`/\.js$/`, "*.mjs"}, cfgs[2].Include)
}

func TestFile_DecodeRejectsBadStage(t *testing.T) {
	var f File
	err := yaml.Unmarshal([]byte("stages:\n  - [ts]\n"), &f)
	assert.Error(t, err)

	err = yaml.Unmarshal([]byte("stages:\n  - include: {a: b}\n"), &f)
	assert.Error(t, err)
}
