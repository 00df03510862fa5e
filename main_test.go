package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deepxi/sebatch/internal/audio"
	"github.com/deepxi/sebatch/internal/audio/audiotest"
	"github.com/deepxi/sebatch/internal/batch"
	"github.com/deepxi/sebatch/internal/catalog"
	"github.com/deepxi/sebatch/internal/config"
)

func TestDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "sebatch.yml")
	old := configFile
	configFile = path
	t.Cleanup(func() { configFile = old })

	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile failed: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("default config does not parse: %v", err)
	}
	cfg, err := config.LoadFromViper(v)
	if err != nil {
		t.Fatalf("default config is invalid: %v", err)
	}
	if len(cfg.SNRLevels) != 4 || cfg.Store != "file" {
		t.Errorf("unexpected config from default file: %+v", cfg)
	}

	// an existing file is left alone
	if err := os.WriteFile(path, []byte("store: sqlite\n"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := ensureConfigFile(); err != nil {
		t.Fatalf("ensureConfigFile failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "store: sqlite\n" {
		t.Error("ensureConfigFile overwrote an existing config")
	}
}

func TestConfigFlagKeepsDefaultPath(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("config")
	if f == nil {
		t.Fatal("config flag not registered")
	}
	if f.DefValue == "" {
		t.Fatal("config flag default is empty; sebatch config would have no file to edit")
	}
	if ext := filepath.Ext(f.DefValue); ext != ".yml" && ext != ".yaml" {
		t.Errorf("config flag default %q is not a YAML file", f.DefValue)
	}
	if configFile != f.DefValue {
		t.Errorf("configFile = %q, want flag default %q", configFile, f.DefValue)
	}
}

func TestValidateOptionsSkipsConfigAndMan(t *testing.T) {
	viper.Set("store", "redis")
	t.Cleanup(func() { viper.Set("store", config.DefaultConfig().Store) })

	for _, cmd := range []*cobra.Command{configCmd, manCmd} {
		if err := validateOptions(cmd); err != nil {
			t.Errorf("validateOptions(%s) failed on a broken config: %v", cmd.Name(), err)
		}
	}
	if err := validateOptions(catalogCmd); err == nil {
		t.Error("expected catalog to reject an invalid store")
	}
}

func TestEnsureConfigFileRejectsExtension(t *testing.T) {
	old := configFile
	configFile = filepath.Join(t.TempDir(), "sebatch.toml")
	t.Cleanup(func() { configFile = old })

	if err := ensureConfigFile(); err == nil {
		t.Error("expected error for .toml config")
	}
}

func TestCatalogSummaryPrint(t *testing.T) {
	s := catalogSummary{
		Name: "train",
		Entries: []catalog.Entry{
			{FilePath: "/d/speechA_0dB.wav", SeqLen: 16000},
			{FilePath: "/d/noise.flac", SeqLen: 8000},
		},
		SampleRate: 16000,
	}

	var out, errOut bytes.Buffer
	if err := s.print(&out, &errOut, false); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if out.String() != "/d/speechA_0dB.wav\t16000\n/d/noise.flac\t8000\n" {
		t.Errorf("unexpected entries output:\n%s", out.String())
	}
	summary := errOut.String()
	for _, want := range []string{"train (built)", "2 files", "24,000 samples", "1.5s", "16,000 Hz"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary %q missing %q", summary, want)
		}
	}

	out.Reset()
	errOut.Reset()
	s.Query = "speech"
	s.Cached = true
	if err := s.print(&out, &errOut, false); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if out.String() != "/d/speechA_0dB.wav\t16000\n" {
		t.Errorf("unexpected filtered output:\n%s", out.String())
	}
	if !strings.Contains(errOut.String(), "(1 shown)") || !strings.Contains(errOut.String(), "cached") {
		t.Errorf("unexpected summary: %s", errOut.String())
	}
}

func TestCatalogSummaryArtifact(t *testing.T) {
	artifact := filepath.Join(t.TempDir(), "train_list.cat")
	if err := os.WriteFile(artifact, make([]byte, 2048), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var out, errOut bytes.Buffer
	s := catalogSummary{Name: "train", SampleRate: 16000, Artifact: artifact}
	if err := s.print(&out, &errOut, false); err != nil {
		t.Fatalf("print failed: %v", err)
	}
	if !strings.Contains(errOut.String(), "2.0 kB") {
		t.Errorf("summary should report artifact size: %s", errOut.String())
	}
}

func TestPrintBatch(t *testing.T) {
	dir := t.TempDir()
	if err := audiotest.WriteMonoWAV(filepath.Join(dir, "speechA_0dB.wav"), audiotest.Ramp(500)); err != nil {
		t.Fatalf("WriteMonoWAV failed: %v", err)
	}
	if err := audiotest.WriteMonoWAV(filepath.Join(dir, "speechB.wav"), audiotest.Ramp(300)); err != nil {
		t.Fatalf("WriteMonoWAV failed: %v", err)
	}

	a := batch.NewAssembler(audio.DefaultRegistry(), batch.WithLogger(log.New(io.Discard)))
	b, err := a.Assemble(dir, []int{0, 5})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	var buf bytes.Buffer
	if err := printBatch(&buf, b, 0, false); err != nil {
		t.Fatalf("printBatch failed: %v", err)
	}
	want := "shape (2, 500), 2.0 kB\n" +
		"0\tspeechA_0dB\t500\t0\n" +
		"1\tspeechB\t300\t-\n" +
		"snr labels [0]\n"
	if buf.String() != want {
		t.Errorf("printBatch output:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	if err := printBatch(&buf, b, 1, false); err != nil {
		t.Fatalf("printBatch failed: %v", err)
	}
	if !strings.Contains(buf.String(), "... 1 more rows") {
		t.Errorf("expected truncation marker, got:\n%s", buf.String())
	}
}
