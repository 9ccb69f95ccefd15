package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/oxy-deferred/engine/graphics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// ErrInvalidConfig is returned when a configuration file cannot be used.
var ErrInvalidConfig = errors.New("engine: invalid config")

// Config holds the settings of an engine run, loadable from TOML or YAML.
type Config struct {
	Title             string         `toml:"title" yaml:"title"`
	Width             int            `toml:"width" yaml:"width"`
	Height            int            `toml:"height" yaml:"height"`
	TickRate          float64        `toml:"tick_rate" yaml:"tick_rate"`
	VSync             bool           `toml:"vsync" yaml:"vsync"`
	Profiling         bool           `toml:"profiling" yaml:"profiling"`
	InitWorkers       int            `toml:"init_workers" yaml:"init_workers"`
	TransformPoolSize int            `toml:"transform_pool_size" yaml:"transform_pool_size"`
	Graphics          GraphicsConfig `toml:"graphics" yaml:"graphics"`
}

// GraphicsConfig holds the rendering pipeline settings.
type GraphicsConfig struct {
	ShadowMapSize int     `toml:"shadow_map_size" yaml:"shadow_map_size"`
	AOSamples     int     `toml:"ao_samples" yaml:"ao_samples"`
	AORadius      float32 `toml:"ao_radius" yaml:"ao_radius"`
	NoiseSize     int     `toml:"noise_size" yaml:"noise_size"`
	BloomSteps    int     `toml:"bloom_steps" yaml:"bloom_steps"`
	Exposure      float32 `toml:"exposure" yaml:"exposure"`
	ShaderDir     string  `toml:"shader_dir" yaml:"shader_dir"`
	HotReload     bool    `toml:"hot_reload" yaml:"hot_reload"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Title:             "oxy-deferred",
		Width:             768,
		Height:            576,
		TickRate:          DefaultTickRate,
		VSync:             true,
		InitWorkers:       2,
		TransformPoolSize: 2,
		Graphics: GraphicsConfig{
			ShadowMapSize: light.DefaultShadowMapSize,
			AOSamples:     graphics.DefaultAOSamples,
			AORadius:      graphics.DefaultAORadius,
			NoiseSize:     graphics.DefaultNoiseSize,
			BloomSteps:    graphics.DefaultBloomSteps,
			Exposure:      graphics.DefaultExposure,
		},
	}
}

// LoadConfig reads a configuration file over DefaultConfig. The format is chosen by extension: .toml,
// .yaml or .yml. Keys absent from the file keep their defaults.
//
// Parameters:
//   - path: the file to read
//
// Returns:
//   - Config: the loaded settings
//   - error: a read or decode error, or ErrInvalidConfig
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("engine: reading config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: unsupported extension %q", ErrInvalidConfig, ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, filepath.Base(path), err)
	}
	return cfg, cfg.Validate()
}

// Validate checks every setting is usable.
//
// Returns:
//   - error: ErrInvalidConfig naming the first bad field
func (c Config) Validate() error {
	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.TickRate <= 0:
		return fmt.Errorf("%w: tick_rate %v", ErrInvalidConfig, c.TickRate)
	case c.InitWorkers < 0:
		return fmt.Errorf("%w: init_workers %d", ErrInvalidConfig, c.InitWorkers)
	case c.TransformPoolSize <= 0:
		return fmt.Errorf("%w: transform_pool_size %d", ErrInvalidConfig, c.TransformPoolSize)
	}

	g := c.Graphics
	switch {
	case g.ShadowMapSize <= 0:
		return fmt.Errorf("%w: shadow_map_size %d", ErrInvalidConfig, g.ShadowMapSize)
	case g.AOSamples <= 0 || g.AOSamples > graphics.MaxAOSamples:
		return fmt.Errorf("%w: ao_samples %d not in 1..%d", ErrInvalidConfig, g.AOSamples, graphics.MaxAOSamples)
	case g.AORadius <= 0:
		return fmt.Errorf("%w: ao_radius %v", ErrInvalidConfig, g.AORadius)
	case g.NoiseSize <= 0:
		return fmt.Errorf("%w: noise_size %d", ErrInvalidConfig, g.NoiseSize)
	case g.BloomSteps < 0:
		return fmt.Errorf("%w: bloom_steps %d", ErrInvalidConfig, g.BloomSteps)
	case g.Exposure <= 0:
		return fmt.Errorf("%w: exposure %v", ErrInvalidConfig, g.Exposure)
	case g.HotReload && g.ShaderDir == "":
		return fmt.Errorf("%w: hot_reload needs shader_dir", ErrInvalidConfig)
	}
	return nil
}

// GraphicsOptions converts the graphics section to pipeline options.
func (c Config) GraphicsOptions() []graphics.GraphicsBuilderOption {
	g := c.Graphics
	opts := []graphics.GraphicsBuilderOption{
		graphics.WithShadowMapSize(g.ShadowMapSize),
		graphics.WithAO(g.AOSamples, g.AORadius),
		graphics.WithNoiseSize(g.NoiseSize),
		graphics.WithBloomSteps(g.BloomSteps),
		graphics.WithExposure(g.Exposure),
	}
	if g.ShaderDir != "" {
		opts = append(opts, graphics.WithShaderDir(g.ShaderDir))
	}
	return opts
}

// PresentMode returns the presentation mode selected by VSync.
func (c Config) PresentMode() renderer.PresentMode {
	if c.VSync {
		return renderer.PresentModeVSync
	}
	return renderer.PresentModeUncapped
}
