package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rainQML = `<qgis version="3.34.0-Prizren">
  <pipe>
    <rasterrenderer type="singlebandpseudocolor" band="1" classificationMin="0" classificationMax="30">
      <rastershader>
        <colorrampshader colorRampType="DISCRETE" classificationMode="2">
          <item alpha="255" value="10" label="10" color="#f7fbff"/>
          <item alpha="255" value="20" label="20" color="#6baed6"/>
          <item alpha="255" value="inf" label="inf" color="#08306b"/>
        </colorrampshader>
      </rastershader>
    </rasterrenderer>
  </pipe>
</qgis>`

const rainSnapshot = `layer: rain
renderer: singlebandpseudocolor
band: 1
classification_min: 0
classification_max: 30
color_ramp_type: DISCRETE
classification_mode: 2
items:
  - value: 10
    label: "10"
    color: "#f7fbff"
  - value: 20
    label: "20"
    color: "#6baed6"
  - value: 30
    label: "30"
    color: "#08306b"
`

// run executes the command tree in a fresh directory.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(viper.New())
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func workdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile("rain.qml", []byte(rainQML), 0o644))
	require.NoError(t, os.WriteFile("rain.yaml", []byte(rainSnapshot), 0o644))
	return dir
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand(viper.New())
	assert.Equal(t, "bccbar", cmd.Use)
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "export")
	assert.Contains(t, names, "inspect")
}

func TestHelp(t *testing.T) {
	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Available Commands:")
	assert.Contains(t, out, "symbology snapshot")
}

func TestExportCommand(t *testing.T) {
	dir := workdir(t)
	out, err := run(t, "export", "rain.qml", "--dir", "bars", "--png", "--dpi", "72", "--title", "Rain", "--units", "mm")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Join("bars", "rain.svg"))
	assert.FileExists(t, filepath.Join(dir, "bars", "rain.svg"))
	assert.FileExists(t, filepath.Join(dir, "bars", "rain.png"))
	assert.NoFileExists(t, filepath.Join(dir, "bars", "rain.pdf"))
}

func TestExportCommandOut(t *testing.T) {
	dir := workdir(t)
	_, err := run(t, "export", "rain.yaml", "-o", "legend.svg", "--orientation", "vertical")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "legend.svg"))

	_, err = run(t, "export", "rain.qml", "rain.yaml", "-o", "legend.svg")
	assert.ErrorContains(t, err, "exactly one")
}

func TestExportCommandDirectory(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.Mkdir("styles", 0o755))
	for _, name := range []string{"a.qml", "b.qml"} {
		require.NoError(t, os.WriteFile(filepath.Join("styles", name), []byte(rainQML), 0o644))
	}
	_, err := run(t, "export", "styles", "--dir", "out", "--workers", "2")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "out", "a.svg"))
	assert.FileExists(t, filepath.Join(dir, "out", "b.svg"))
}

func TestExportCommandSameName(t *testing.T) {
	dir := workdir(t)
	for _, sub := range []string{"north", "south"} {
		require.NoError(t, os.Mkdir(sub, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(sub, "rain.qml"), []byte(rainQML), 0o644))
	}
	_, err := run(t, "export", "north", "south", "--dir", "out")
	assert.ErrorContains(t, err, "both be written")
	assert.NoFileExists(t, filepath.Join(dir, "out", "rain.svg"))

	_, err = run(t, "export", "rain.qml", filepath.Join("north", "rain.qml"))
	assert.ErrorContains(t, err, "both be written")
}

func TestExportCommandErrors(t *testing.T) {
	workdir(t)
	_, err := run(t, "export")
	assert.Error(t, err)

	_, err = run(t, "export", "missing.qml")
	assert.Error(t, err)

	_, err = run(t, "export", "rain.qml", "--step", "0")
	assert.ErrorContains(t, err, "configuration")

	_, err = run(t, "export", "rain.qml", "--extras", "{colour: red}")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := workdir(t)
	require.NoError(t, os.WriteFile("bccbar.yaml", []byte("output:\n  dir: fromfile\n  pdf: true\n"), 0o644))
	_, err := run(t, "export", "rain.qml")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "fromfile", "rain.svg"))
	assert.FileExists(t, filepath.Join(dir, "fromfile", "rain.pdf"))
}

func TestInspectCommand(t *testing.T) {
	workdir(t)
	out, err := run(t, "inspect", "rain.qml", "--step", "1", "--placement", "alternate")
	require.NoError(t, err)
	assert.Contains(t, out, "rain - Ramp type: Discrete")
	assert.Contains(t, out, "COLOUR")
	assert.Contains(t, out, "#6baed6")
	assert.Contains(t, out, "primary")
	assert.Contains(t, out, "secondary")
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
