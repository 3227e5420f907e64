package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/volsungdenichor/edn"
)

func writeConfig(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func Test_Config_Defaults_When_No_File(t *testing.T) {
	opts, err := loadFormatOptions(t.TempDir())
	if err != nil {
		t.Fatalf("loadFormatOptions error: %v", err)
	}
	def := edn.DefaultPrettyOptions()
	if opts != def {
		t.Fatalf("want defaults %+v, got %+v", def, opts)
	}
}

func Test_Config_Reads_TOML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".ednfmt.toml",
		"indent = 4\nmax-inline-length = 80\ncompact-maps = true\n")

	opts, err := loadFormatOptions(dir)
	if err != nil {
		t.Fatalf("loadFormatOptions error: %v", err)
	}
	if opts.Indent != 4 || opts.MaxInlineLength != 80 || !opts.CompactMaps {
		t.Fatalf("toml values not applied: %+v", opts)
	}
}

func Test_Config_Reads_YAML_And_Keeps_Default_For_Absent_Keys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".ednfmt.yaml", "indent: 3\ncompact-maps: true\n")

	opts, err := loadFormatOptions(dir)
	if err != nil {
		t.Fatalf("loadFormatOptions error: %v", err)
	}
	if opts.Indent != 3 || !opts.CompactMaps {
		t.Fatalf("yaml values not applied: %+v", opts)
	}
	if opts.MaxInlineLength != edn.DefaultPrettyOptions().MaxInlineLength {
		t.Fatalf("absent key should keep default, got %+v", opts)
	}
}

func Test_Config_Reads_Yml_Extension(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".ednfmt.yml", "indent: 8\n")

	opts, err := loadFormatOptions(dir)
	if err != nil {
		t.Fatalf("loadFormatOptions error: %v", err)
	}
	if opts.Indent != 8 {
		t.Fatalf("yml values not applied: %+v", opts)
	}
}

func Test_Config_TOML_Wins_When_Both_Exist(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".ednfmt.toml", "indent = 4\n")
	writeConfig(t, dir, ".ednfmt.yaml", "indent: 9\n")

	opts, err := loadFormatOptions(dir)
	if err != nil {
		t.Fatalf("loadFormatOptions error: %v", err)
	}
	if opts.Indent != 4 {
		t.Fatalf("first config file should win, got %+v", opts)
	}
}

func Test_Config_Malformed_File_Is_An_Error(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".ednfmt.toml", "indent = [not toml")

	_, err := loadFormatOptions(dir)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if !strings.Contains(err.Error(), ".ednfmt.toml") {
		t.Fatalf("error should name the file: %v", err)
	}
}

func Test_Config_Rejects_Negative_Values(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, ".ednfmt.toml", "indent = -1\n")

	_, err := loadFormatOptions(dir)
	if err == nil || !strings.Contains(err.Error(), "must be non-negative") {
		t.Fatalf("expected validation error, got %v", err)
	}
}
