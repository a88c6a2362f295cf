package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sheldonrobinson/piper1-gpl/pkg/audio"
	"github.com/sheldonrobinson/piper1-gpl/pkg/checkpoint"
)

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	verbose = false
	cfgFile = ""
	pipelineConfig = nil
	configErr = nil

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	var outBuf, errBuf bytes.Buffer
	outBuf.ReadFrom(rOut)
	errBuf.ReadFrom(rErr)

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		if stderr == "" {
			stderr = err.Error()
		}
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCmd(t, "version")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "piper-train") {
		t.Fatalf("expected 'piper-train', got: %s", stdout)
	}
}

func TestPreprocessIDsMode(t *testing.T) {
	dir := t.TempDir()

	samples := make([]float32, 2205)
	for i := range samples {
		samples[i] = 0.25
	}
	if err := os.WriteFile(filepath.Join(dir, "utt1.wav"), audio.EncodeWAV(samples, 22050), 0o644); err != nil {
		t.Fatal(err)
	}
	metadata := filepath.Join(dir, "metadata.csv")
	if err := os.WriteFile(metadata, []byte("utt1.wav|spk1|Hi|1 2 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")

	stdout, stderr, code := runCmd(t, "preprocess",
		"--metadata", metadata,
		"--mode", "ids",
		"--multi-speaker",
		"--cache-dir", filepath.Join(dir, "cache"),
		"--out-dir", outDir,
		"--sample-rate", "22050",
		"--workers", "1",
	)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "processed 1 utterances") {
		t.Fatalf("stdout: %s", stdout)
	}

	listing, err := os.ReadFile(filepath.Join(outDir, "dataset.jsonl"))
	if err != nil {
		t.Fatalf("dataset listing: %v", err)
	}
	if !strings.Contains(string(listing), `"phoneme_ids":[1,2,3]`) {
		t.Fatalf("listing: %s", listing)
	}
	cfg, err := os.ReadFile(filepath.Join(outDir, "voice.json"))
	if err != nil {
		t.Fatalf("voice config: %v", err)
	}
	if !strings.Contains(string(cfg), `"phoneme_type": "ids"`) {
		t.Fatalf("voice config: %s", cfg)
	}
	if !strings.Contains(string(cfg), `"spk1": 0`) {
		t.Fatalf("voice config missing speaker map: %s", cfg)
	}
}

func TestPreprocessMissingMetadata(t *testing.T) {
	_, _, code := runCmd(t, "preprocess", "--mode", "ids")
	if code == 0 {
		t.Fatal("expected failure without metadata path")
	}
}

func TestTransplantWarmstart(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.ckpt")
	out := filepath.Join(dir, "out.ckpt")

	m, err := checkpoint.NewModel(checkpoint.VoiceModelSpecs(256, 1), 7)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.ToCheckpoint(256, 1).Save(src); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, code := runCmd(t, "transplant",
		"--warmstart", src,
		"--out", out,
		"--num-symbols", "100",
	)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "copied") {
		t.Fatalf("stdout: %s", stdout)
	}

	got, err := checkpoint.Load(out)
	if err != nil {
		t.Fatalf("Load result: %v", err)
	}
	if got.NumSymbols != 100 {
		t.Fatalf("result num_symbols = %d", got.NumSymbols)
	}
}

func TestTransplantFlagsMutuallyExclusive(t *testing.T) {
	_, _, code := runCmd(t, "transplant",
		"--resume", "a.ckpt", "--warmstart", "b.ckpt", "--out", "c.ckpt")
	if code == 0 {
		t.Fatal("expected flag conflict error")
	}
}

func TestTransplantRequiresPolicy(t *testing.T) {
	_, _, code := runCmd(t, "transplant", "--out", "c.ckpt")
	if code == 0 {
		t.Fatal("expected missing policy error")
	}
}

func TestExportConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "voice.json")
	if err := os.WriteFile(cfgPath, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	modelPath := filepath.Join(dir, "voice.onnx")

	stdout, stderr, code := runCmd(t, "export-config", cfgPath, modelPath)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, modelPath+".json") {
		t.Fatalf("stdout: %s", stdout)
	}
	if _, err := os.Stat(modelPath + ".json"); err != nil {
		t.Fatalf("config not copied: %v", err)
	}
}
