package matjson

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config names every document key and steers which material categories are
// converted. It is read-only during a conversion and may be shared between
// goroutines.
type Config struct {
	// GeoVersion is written to the document root and logged on import.
	GeoVersion string `yaml:"geoversion" toml:"geoversion"`

	DetectorKey     string `yaml:"detkey" toml:"detkey"`
	VolumesKey      string `yaml:"volkey" toml:"volkey"`
	NameKey         string `yaml:"namekey" toml:"namekey"`
	BoundariesKey   string `yaml:"boukey" toml:"boukey"`
	LayersKey       string `yaml:"laykey" toml:"laykey"`
	MaterialKey     string `yaml:"matkey" toml:"matkey"`
	ApproachKey     string `yaml:"appkey" toml:"appkey"`
	SensitiveKey    string `yaml:"senkey" toml:"senkey"`
	RepresentingKey string `yaml:"repkey" toml:"repkey"`
	Bin0Key         string `yaml:"bin0key" toml:"bin0key"`
	Bin1Key         string `yaml:"bin1key" toml:"bin1key"`
	TypeKey         string `yaml:"typekey" toml:"typekey"`
	DataKey         string `yaml:"datakey" toml:"datakey"`
	GeoIDKey        string `yaml:"geoidkey" toml:"geoidkey"`
	TransformKey    string `yaml:"transformkey" toml:"transformkey"`

	ProcessSensitives   bool `yaml:"processSensitives" toml:"processSensitives"`
	ProcessApproaches   bool `yaml:"processApproaches" toml:"processApproaches"`
	ProcessRepresenting bool `yaml:"processRepresenting" toml:"processRepresenting"`
	ProcessBoundaries   bool `yaml:"processBoundaries" toml:"processBoundaries"`
	ProcessVolumes      bool `yaml:"processVolumes" toml:"processVolumes"`

	// WriteData=false exports a skeleton: type tags and binning only.
	WriteData bool `yaml:"writeData" toml:"writeData"`
}

// versionKey holds GeoVersion at the document root.
const versionKey = "geoversion"

// DefaultConfig returns the stock key names with every category enabled.
func DefaultConfig() Config {
	return Config{
		GeoVersion:          "undefined",
		DetectorKey:         "detector",
		VolumesKey:          "volumes",
		NameKey:             "name",
		BoundariesKey:       "boundaries",
		LayersKey:           "layers",
		MaterialKey:         "material",
		ApproachKey:         "approach",
		SensitiveKey:        "sensitive",
		RepresentingKey:     "representing",
		Bin0Key:             "bin0",
		Bin1Key:             "bin1",
		TypeKey:             "type",
		DataKey:             "data",
		GeoIDKey:            "geoid",
		TransformKey:        "transform",
		ProcessSensitives:   true,
		ProcessApproaches:   true,
		ProcessRepresenting: true,
		ProcessBoundaries:   true,
		ProcessVolumes:      true,
		WriteData:           true,
	}
}

// LoadConfig reads a YAML (.yaml, .yml) or TOML (.toml) file over DefaultConfig.
// Keys absent from the file keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return Config{}, fmt.Errorf("%w: unsupported config format %q", ErrInvalidConfig, filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects empty keys and keys that collide within one object level.
func (c Config) Validate() error {
	levels := []struct {
		name string
		keys map[string]string
	}{
		{"root", map[string]string{"detkey": c.DetectorKey, "geoversion": versionKey}},
		{"detector", map[string]string{"volkey": c.VolumesKey}},
		{"volume", map[string]string{
			"namekey": c.NameKey, "matkey": c.MaterialKey, "boukey": c.BoundariesKey,
			"laykey": c.LayersKey, "geoidkey": c.GeoIDKey,
		}},
		{"layer", map[string]string{
			"repkey": c.RepresentingKey, "senkey": c.SensitiveKey, "appkey": c.ApproachKey,
			"geoidkey": c.GeoIDKey,
		}},
		{"material", map[string]string{
			"typekey": c.TypeKey, "geoidkey": c.GeoIDKey, "datakey": c.DataKey,
			"bin0key": c.Bin0Key, "bin1key": c.Bin1Key, "transformkey": c.TransformKey,
		}},
	}
	for _, level := range levels {
		seen := make(map[string]string, len(level.keys))
		for option, key := range level.keys {
			if strings.TrimSpace(key) == "" {
				return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, option)
			}
			if other, ok := seen[key]; ok {
				return fmt.Errorf("%w: %s and %s both use %q in %s objects", ErrInvalidConfig, other, option, key, level.name)
			}
			seen[key] = option
		}
	}
	return nil
}
