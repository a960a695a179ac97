package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDate      = "2025-04-07"
	DefaultStartHour = 0
	DefaultEndHour   = 4
	DefaultMinLevel  = 400
	DefaultMaxLevel  = 1000
	DefaultLevel     = 1000
	DefaultFormat    = "vti"
	DefaultTempFile  = "temp_hrrr.grib2"

	DefaultMapImage    = "images/NA_MAP_NO_BORDER_WHITE.png"
	DefaultMapWidth    = 1798
	DefaultMapHeight   = 1058
	DefaultScaleFactor = 0.5
	// DefaultStride decimates x and y of the full CONUS grid before meshing.
	DefaultStride = 4
	DefaultLayerOffset = -100.0
)

type Config struct {
	Archive ArchiveConfig `yaml:"archive"`
	Volume  Job           `yaml:"volume"`
	Layer   Job           `yaml:"layer"`
	Viewer  ViewerConfig  `yaml:"viewer"`
}

// ArchiveConfig locates the forecast files and the decoder.
type ArchiveConfig struct {
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	Product  string `yaml:"product"`
	Fxx      int    `yaml:"fxx"`
	Subset   bool   `yaml:"subset"`
	Wgrib2   string `yaml:"wgrib2"`
	TempFile string `yaml:"temp_file"`
}

// Job describes one extraction run over a day's hourly analyses. EndHour is
// inclusive. Volume jobs use MinLevel..MaxLevel, layer jobs use Level.
type Job struct {
	Variable  string `yaml:"variable"`
	Date      string `yaml:"date"`
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	MinLevel  int    `yaml:"min_level,omitempty"`
	MaxLevel  int    `yaml:"max_level,omitempty"`
	Level     int    `yaml:"level,omitempty"`
	Out       string `yaml:"out"`
	Format    string `yaml:"format"`
}

// ViewerConfig holds scene constants of the viewer.
type ViewerConfig struct {
	MapImage    string     `yaml:"map_image"`
	MapWidth    float64    `yaml:"map_width"`
	MapHeight   float64    `yaml:"map_height"`
	Background  [3]uint8   `yaml:"background,flow"`
	Stride      int        `yaml:"stride"`
	Folder1     SeriesLook `yaml:"folder1"`
	Folder2     SeriesLook `yaml:"folder2"`
	Pressure    SeriesLook `yaml:"pressure"`
	ScaleFactor float64    `yaml:"scale_factor"`
}

// SeriesLook is the per-series actor appearance.
type SeriesLook struct {
	Opacity  float64    `yaml:"opacity"`
	Scale    [3]float64 `yaml:"scale,flow"`
	Position [3]float64 `yaml:"position,flow"`
	Color    [3]uint8   `yaml:"color,flow"`
}

func DefaultConfig() *Config {
	return &Config{
		Archive: ArchiveConfig{
			Model:    "hrrr",
			Product:  "prs",
			Wgrib2:   "wgrib2",
			TempFile: DefaultTempFile,
		},
		Volume: Job{
			Variable:  "Absolute vorticity",
			Date:      DefaultDate,
			StartHour: DefaultStartHour,
			EndHour:   DefaultEndHour,
			MinLevel:  DefaultMinLevel,
			MaxLevel:  DefaultMaxLevel,
			Out:       ".",
			Format:    DefaultFormat,
		},
		Layer: Job{
			Variable:  "Geopotential height",
			Date:      DefaultDate,
			StartHour: DefaultStartHour,
			EndHour:   DefaultEndHour,
			Level:     DefaultLevel,
			Out:       ".",
			Format:    DefaultFormat,
		},
		Viewer: ViewerConfig{
			MapImage:    DefaultMapImage,
			MapWidth:    DefaultMapWidth,
			MapHeight:   DefaultMapHeight,
			Background:  [3]uint8{249, 242, 237},
			Stride:      DefaultStride,
			ScaleFactor: DefaultScaleFactor,
			Folder1: SeriesLook{
				Opacity: 1,
				Scale:   [3]float64{1, 1, 5},
				Color:   [3]uint8{200, 60, 40},
			},
			Folder2: SeriesLook{
				Opacity: 0.5,
				Scale:   [3]float64{1, 1, 5},
				Color:   [3]uint8{40, 90, 200},
			},
			Pressure: SeriesLook{
				Opacity:  0.8,
				Scale:    [3]float64{1, 1, 1},
				Position: [3]float64{0, 0, DefaultLayerOffset},
				Color:    [3]uint8{255, 255, 255},
			},
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RunDate parses Date as YYYY-MM-DD in UTC.
func (j *Job) RunDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", j.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", j.Date, err)
	}
	return t, nil
}

// Hours lists StartHour..EndHour inclusive.
func (j *Job) Hours() []int {
	var hours []int
	for h := j.StartHour; h <= j.EndHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// Validate checks a job before any download starts.
func (j *Job) Validate() error {
	if j.Variable == "" {
		return fmt.Errorf("variable is required")
	}
	if _, err := j.RunDate(); err != nil {
		return err
	}
	if j.StartHour < 0 || j.EndHour > 23 || j.StartHour > j.EndHour {
		return fmt.Errorf("invalid hour range %d..%d", j.StartHour, j.EndHour)
	}
	if j.MinLevel != 0 && j.MaxLevel != 0 && j.MinLevel > j.MaxLevel {
		return fmt.Errorf("invalid level range %d..%d", j.MinLevel, j.MaxLevel)
	}
	return nil
}
