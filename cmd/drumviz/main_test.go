package main

import (
	"bytes"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"drumviz/internal/config"
	"drumviz/internal/history"
	"drumviz/internal/services"
	"drumviz/internal/testsupport"
)

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	encoded, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "drumviz.toml")
	if err := os.WriteFile(path, []byte(encoded), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}

	out, _, err = runCLI(t, target, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+target)
	requireContains(t, out, "4 x 2.50s at 16000 Hz")
	requireContains(t, out, "Configuration valid")
}

func TestConfigShowPrintsEffectiveValues(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	out, _, err := runCLI(t, writeTestConfig(t, cfg), "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "sample_rate = 4000")
	requireContains(t, out, "[video]")
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	path := writeTestConfig(t, cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if err := os.WriteFile(path, append(data, []byte("\n[unknown]\nkey = 1\n")...), 0o644); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}
	if _, _, err := runCLI(t, path, "history", "list"); err == nil {
		t.Fatal("expected unknown section to fail config load")
	}
}

func TestSpectrogramCommandWritesPNG(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	source := filepath.Join(testsupport.BaseDir(cfg), "audio", "tone.wav")
	testsupport.WriteToneWAV(t, source, 440, 3, cfg.Audio.SampleRate)
	target := filepath.Join(t.TempDir(), "tone.png")

	out, _, err := runCLI(t, configPath, "spectrogram", source, "-o", target, "--width", "96", "--height", "64")
	if err != nil {
		t.Fatalf("spectrogram: %v", err)
	}
	requireContains(t, out, "Wrote "+target+" (96x64)")

	f, err := os.Open(target)
	if err != nil {
		t.Fatalf("open png: %v", err)
	}
	defer f.Close()
	pc, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if pc.Width != 96 || pc.Height != 64 {
		t.Fatalf("unexpected size %dx%d", pc.Width, pc.Height)
	}
}

func TestSpectrogramDefaultOutputName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	source := filepath.Join(testsupport.BaseDir(cfg), "audio", "kick.wav")
	testsupport.WriteToneWAV(t, source, 60, 3, cfg.Audio.SampleRate)

	if _, _, err := runCLI(t, configPath, "spectrogram", source, "--width", "32", "--height", "24"); err != nil {
		t.Fatalf("spectrogram: %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "kick_spectrogram.png")); err != nil {
		t.Fatalf("expected default output: %v", err)
	}
}

func TestGridCommandUsesConfiguredSegments(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithSegments(300, 600, 900, 1200))
	configPath := writeTestConfig(t, cfg)
	target := filepath.Join(t.TempDir(), "grid.png")

	out, _, err := runCLI(t, configPath, "grid", "-o", target, "--shared-ref")
	if err != nil {
		t.Fatalf("grid: %v", err)
	}
	requireContains(t, out, "4 panels")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected grid output: %v", err)
	}

	if _, _, err := runCLI(t, configPath, "grid", "--title", "orphan"); err == nil {
		t.Fatal("expected --title without sources to fail")
	}
}

func TestPianoRollCommand(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(9, 60, 100))
	tr.Add(960, midi.NoteOff(9, 60))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	midiPath := filepath.Join(testsupport.BaseDir(cfg), "groove.mid")
	if err := s.WriteFile(midiPath); err != nil {
		t.Fatalf("write midi: %v", err)
	}

	out, _, err := runCLI(t, configPath, "pianoroll", midiPath)
	if err != nil {
		t.Fatalf("pianoroll: %v", err)
	}
	requireContains(t, out, "1 notes over 1.00s, pitch 58-62, 1500px wide")
	if _, err := os.Stat(filepath.Join(cfg.Paths.OutputDir, "piano_roll_midi.png")); err != nil {
		t.Fatalf("expected piano roll output: %v", err)
	}
}

func TestHistoryCommands(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := t.Context()

	const runID = "0badc0de-1111-4222-8333-444455556666"
	if _, err := store.StartRun(ctx, runID, filepath.Join(cfg.Paths.OutputDir, "video.mp4"), configPath, 4); err != nil {
		t.Fatalf("StartRun: %v", err)
	}
	if err := store.AddDiagnostic(ctx, runID, 2, "missing.wav", "open missing.wav: no such file"); err != nil {
		t.Fatalf("AddDiagnostic: %v", err)
	}
	if err := store.FinishRun(ctx, runID, history.Outcome{SubstitutedCount: 1, FrameCount: 300, DurationSeconds: 10, OutputBytes: 3 << 20}); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	out, _, err := runCLI(t, configPath, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "0badc0de")
	requireContains(t, out, "succeeded")
	requireContains(t, out, "3.0 MiB")
	requireContains(t, out, "1/4")

	out, _, err = runCLI(t, configPath, "history", "show", "0badc0de")
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "Run:       "+runID)
	requireContains(t, out, "Frames:    300 (10.00s)")
	requireContains(t, out, "no such file")

	if _, _, err := runCLI(t, configPath, "history", "show", "ffff"); err == nil {
		t.Fatal("expected unknown run to fail")
	}

	out, _, err = runCLI(t, configPath, "history", "prune", "--older-than", "1h")
	if err != nil {
		t.Fatalf("history prune: %v", err)
	}
	requireContains(t, out, "Removed 0 runs")
}

func TestHistoryListEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	out, _, err := runCLI(t, writeTestConfig(t, cfg), "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestCheckReportsMissingFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := writeTestConfig(t, cfg)
	t.Setenv("DRUMVIZ_FFMPEG", filepath.Join(t.TempDir(), "no-ffmpeg"))

	out, _, err := runCLI(t, configPath, "check")
	if err == nil {
		t.Fatal("expected check to fail without ffmpeg")
	}
	if services.Classify(err) != "configuration" {
		t.Fatalf("unexpected classification %q", services.Classify(err))
	}
	requireContains(t, out, "FAIL")
	if exitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d", exitCode(err))
	}
}

func TestCheckPassesWithCapableFFmpeg(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	stub := filepath.Join(testsupport.BaseDir(cfg), "bin", "ffmpeg")
	if err := os.MkdirAll(filepath.Dir(stub), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	script := "#!/bin/sh\nprintf 'Encoders:\\n ------\\n V....D libx264  H.264\\n A....D aac  AAC\\n'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	cfg.Tools.FFmpeg = stub

	out, _, err := runCLI(t, writeTestConfig(t, cfg), "check")
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "Ready to render")
}

func TestRenderRejectsUnpairedSegmentFlags(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, _, err := runCLI(t, writeTestConfig(t, cfg), "render", "--segment", "a.wav", "--segment", "b.wav", "--label", "A")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSegmentsFromFlagsKeepsEquals(t *testing.T) {
	dir := t.TempDir()
	segments, err := segmentsFromFlags(
		[]string{filepath.Join(dir, "use_midi=False.wav")},
		[]string{" CFG w=1.0 "},
	)
	if err != nil {
		t.Fatalf("segmentsFromFlags: %v", err)
	}
	if segments[0].Source != filepath.Join(dir, "use_midi=False.wav") || segments[0].Label != "CFG w=1.0" {
		t.Fatalf("unexpected segment %+v", segments[0])
	}
}

func TestFormatErrorNamesKind(t *testing.T) {
	err := services.Wrap(services.ErrEncode, "encode", "ffmpeg", "exit status 1", nil)
	requireContains(t, formatError(err), "drumviz: encode error:")
	if exitCode(err) != 1 {
		t.Fatalf("expected exit code 1 for encode failures")
	}
	if got := formatError(errors.New("plain")); got != "drumviz: plain" {
		t.Fatalf("unexpected plain format %q", got)
	}
	if exitCode(services.Wrap(services.ErrLocked, "pipeline", "lock", "", nil)) != 3 {
		t.Fatal("expected exit code 3 for a locked output")
	}
}
