package config

import (
	"fmt"
	"time"

	"xrdsim/pkg/domain"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration. Every value has a default,
// so the simulator runs without a config file and reproduces the ZnS / Cu Kα
// setup.
type Config struct {
	// Environment selects the logger flavour (development or production).
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`
	// LogLevel overrides the environment's default log level when set.
	LogLevel string `env:"LOG_LEVEL" yaml:"logLevel"`

	// Crystal describes the cubic cell.
	Crystal struct {
		// Name is used in the chart title and reports.
		Name string `env:"CRYSTAL_NAME" env-default:"ZnS" yaml:"name"`
		// LatticeParameter is the cube edge a in Å.
		LatticeParameter float64 `env:"CRYSTAL_LATTICE_PARAMETER" env-default:"5.41" yaml:"latticeParameter"`
	} `yaml:"crystal"`

	// Wavelength is the incident X-ray wavelength in Å.
	Wavelength float64 `env:"WAVELENGTH" env-default:"1.5406" yaml:"wavelength"`

	// Sites is the atom basis. Empty means the zinc-blende ZnS basis.
	Sites []Site `yaml:"sites"`

	// Reflections lists Miller triples as [h, k, l]. Empty means the default
	// (111), (220), (311), (222), (400) list.
	Reflections [][3]int `yaml:"reflections"`

	// Output controls the rendered chart.
	Output struct {
		// Path is where the PNG is written; an existing file is overwritten.
		Path string `env:"OUTPUT_PATH" env-default:"xrd_sim.png" yaml:"path"`
		// DPI is the raster resolution.
		DPI int `env:"OUTPUT_DPI" env-default:"200" yaml:"dpi"`
		// Width and Height are the canvas size in inches.
		Width  float64 `env:"OUTPUT_WIDTH" env-default:"8" yaml:"width"`
		Height float64 `env:"OUTPUT_HEIGHT" env-default:"4" yaml:"height"`
		// Cutoff hides peaks whose normalized intensity is not above it.
		Cutoff float64 `env:"OUTPUT_CUTOFF" env-default:"1" yaml:"cutoff"`
		// Format is the report format printed to stdout: table, json or yaml.
		Format string `env:"OUTPUT_FORMAT" env-default:"table" yaml:"format"`
	} `yaml:"output"`

	// HTTP configures the optional API server.
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"30s" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"1m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"10s" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MaxBodyBytes limits POSTed structure documents
		MaxBodyBytes int64 `env:"HTTP_MAX_BODY_BYTES" env-default:"1048576" yaml:"maxBodyBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// Pprof mounts the profiling handlers under /debug/pprof/
		Pprof bool `env:"HTTP_PPROF" env-default:"true" yaml:"pprof"`
	} `yaml:"http"`

	// GracefulShutdownTimeout bounds how long the server waits for in-flight requests on shutdown.
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// Site is the yaml form of an atom site. Positions are [x, y, z] triples.
type Site struct {
	Species          string       `yaml:"species"`
	ScatteringFactor float64      `yaml:"scatteringFactor"`
	Positions        [][3]float64 `yaml:"positions"`
}

// Load reads the yaml file at configPath, then applies environment overrides
// and defaults. An empty configPath reads the environment only.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("could not read environment: %w", err)
		}

		return &cfg, nil
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// Structure converts the configured crystal, basis and reflections into a
// domain.Structure, falling back to the ZnS basis and default reflections for
// empty lists.
func (c *Config) Structure() domain.Structure {
	s := domain.Structure{
		Crystal: domain.Crystal{
			Name:             c.Crystal.Name,
			LatticeParameter: c.Crystal.LatticeParameter,
		},
		Wavelength: c.Wavelength,
	}

	if len(c.Sites) == 0 {
		s.Sites = domain.ZincBlendeSites()
	} else {
		s.Sites = make([]domain.AtomSite, len(c.Sites))
		for i, site := range c.Sites {
			s.Sites[i] = domain.AtomSite{
				Species:          site.Species,
				ScatteringFactor: site.ScatteringFactor,
				Positions:        make([]domain.Position, len(site.Positions)),
			}
			for j, p := range site.Positions {
				s.Sites[i].Positions[j] = domain.Position{X: p[0], Y: p[1], Z: p[2]}
			}
		}
	}

	if len(c.Reflections) == 0 {
		s.Reflections = domain.DefaultReflections()
	} else {
		s.Reflections = make([]domain.Miller, len(c.Reflections))
		for i, r := range c.Reflections {
			s.Reflections[i] = domain.Miller{H: r[0], K: r[1], L: r[2]}
		}
	}

	return s
}
