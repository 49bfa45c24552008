package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/satchel/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Decode overlays a configuration mapping on Default.
// Keys that match no option are rejected with domain.ErrUnknownOption.
func Decode(m map[string]any) (Config, error) {
	cfg := Default()
	if err := decodeInto(m, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DecodeFile overlays a mapping of file backend options on DefaultFile.
func DecodeFile(m map[string]any) (File, error) {
	cfg := DefaultFile()
	if err := decodeInto(m, &cfg); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// DecodeRedis overlays a mapping of remote backend options on DefaultRedis.
func DecodeRedis(m map[string]any) (Redis, error) {
	cfg := DefaultRedis()
	if err := decodeInto(m, &cfg); err != nil {
		return Redis{}, err
	}
	return cfg, nil
}

// DecodeProcess overlays a mapping of process backend options on DefaultProcess.
func DecodeProcess(m map[string]any) (Process, error) {
	cfg := DefaultProcess()
	if err := decodeInto(m, &cfg); err != nil {
		return Process{}, err
	}
	return cfg, nil
}

// Load reads a configuration file (YAML or JSON) and decodes it over Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var raw map[string]any
	ext := strings.ToLower(filepath.Ext(path))

	if ext == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	cfg, err := Decode(raw)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

func decodeInto(m map[string]any, out any) error {
	var md mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         &md,
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}
	if len(md.Unused) > 0 {
		sort.Strings(md.Unused)
		return fmt.Errorf("%w: %s", domain.ErrUnknownOption, strings.Join(md.Unused, ", "))
	}
	return nil
}
