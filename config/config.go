package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Logging Logging `mapstructure:"logging" validate:"required"`
	Output  Output  `mapstructure:"output" validate:"required"`
	// Percentiles are reported for every group unless an analysis overrides
	// them.
	Percentiles []float64  `mapstructure:"percentiles" validate:"dive,min=0,max=100"`
	Schemas     []Schema   `mapstructure:"schemas" validate:"dive"`
	Analyses    []Analysis `mapstructure:"analyses" validate:"required,min=1,dive"`
}

type Logging struct {
	Driver  *string `mapstructure:"driver" validate:"oneof=noop stdout influxdb"`
	Verbose *bool   `mapstructure:"verbose" validate:"required"`
	// Run tags every InfluxDB point so several runs can share a bucket.
	Run      *string   `mapstructure:"run" validate:"required"`
	InfluxDB *InfluxDB `mapstructure:"influxdb" validate:"required_if=Driver influxdb"`
}

type InfluxDB struct {
	Host   *string `mapstructure:"host" validate:"required"`
	Token  *string `mapstructure:"token" validate:"required"`
	Org    *string `mapstructure:"org" validate:"required"`
	Bucket *string `mapstructure:"bucket" validate:"required"`
}

type Output struct {
	Dir      *string `mapstructure:"dir" validate:"required"`
	Progress *bool   `mapstructure:"progress" validate:"required"`
	Plots    *bool   `mapstructure:"plots" validate:"required"`
}

// Schema declares a log format that is not built in.
type Schema struct {
	Name   *string `mapstructure:"name" validate:"required"`
	Fields []Field `mapstructure:"fields" validate:"required,min=1,dive"`
	Status *Status `mapstructure:"status"`
}

type Field struct {
	Name *string `mapstructure:"name" validate:"required"`
	Kind *string `mapstructure:"kind" validate:"required,oneof=string number duration bool"`
	// Column addresses delimited logs; Path addresses CSV headers and JSON.
	Column   *int    `mapstructure:"column" validate:"omitempty,min=0"`
	Path     *string `mapstructure:"path"`
	Optional *bool   `mapstructure:"optional"`
}

type Status struct {
	Field   *string  `mapstructure:"field" validate:"required"`
	Pass    []string `mapstructure:"pass"`
	NonZero *bool    `mapstructure:"nonZero"`
}

type Analysis struct {
	Name            *string      `mapstructure:"name" validate:"required"`
	Sources         []Source     `mapstructure:"sources" validate:"required,min=1,dive"`
	IncludeFailures *bool        `mapstructure:"includeFailures"`
	PreFilters      []Filter     `mapstructure:"preFilters" validate:"dive"`
	Derive          []Derivation `mapstructure:"derive" validate:"dive"`
	PostFilters     []Filter     `mapstructure:"postFilters" validate:"dive"`
	Value           *string      `mapstructure:"value" validate:"required"`
	GroupBy         []string     `mapstructure:"groupBy"`
	// ThenBy groups every GroupBy cohort a second time, e.g. protocol then
	// resolver.
	ThenBy      []string     `mapstructure:"thenBy"`
	Separator   *string      `mapstructure:"separator"`
	Percentiles []float64    `mapstructure:"percentiles" validate:"dive,min=0,max=100"`
	Compare     []Comparison `mapstructure:"compare" validate:"dive"`
	Plots       []Plot       `mapstructure:"plots" validate:"dive"`
	Records     *bool        `mapstructure:"records"`
	Samples     *bool        `mapstructure:"samples"`
}

type Source struct {
	Name          *string    `mapstructure:"name" validate:"required"`
	Kind          *string    `mapstructure:"kind" validate:"required,oneof=delimited csv jsonl cloud"`
	Path          *string    `mapstructure:"path" validate:"required"`
	Schema        *string    `mapstructure:"schema" validate:"required"`
	Delimiter     *string    `mapstructure:"delimiter"`
	Exclude       []string   `mapstructure:"exclude"`
	Tags          []Tag      `mapstructure:"tags" validate:"dive"`
	FilenameTag   *string    `mapstructure:"filenameTag"`
	FilenameTrim  *string    `mapstructure:"filenameTrim"`
	Platforms     []Platform `mapstructure:"platforms" validate:"required_if=Kind cloud,dive"`
	PlatformField *string    `mapstructure:"platformField"`
}

type Tag struct {
	Field *string `mapstructure:"field" validate:"required"`
	Value *string `mapstructure:"value" validate:"required"`
}

type Platform struct {
	LogName *string `mapstructure:"logName" validate:"required"`
	Name    *string `mapstructure:"name" validate:"required"`
}

type Filter struct {
	Field  *string  `mapstructure:"field" validate:"required"`
	Op     *string  `mapstructure:"op" validate:"required,oneof=eq ne gt ge lt le in notin contains"`
	Value  *string  `mapstructure:"value"`
	Values []string `mapstructure:"values"`
}

type Derivation struct {
	Result *string `mapstructure:"result" validate:"required"`
	From   *string `mapstructure:"from"`
	To     *string `mapstructure:"to" validate:"required"`
	// Divisor may instead be given as a unit conversion, e.g. ns to ms.
	Divisor  *float64 `mapstructure:"divisor" validate:"omitempty,gt=0"`
	FromUnit *string  `mapstructure:"fromUnit" validate:"required_with=ToUnit,omitempty,oneof=ns us ms s"`
	ToUnit   *string  `mapstructure:"toUnit" validate:"required_with=FromUnit,omitempty,oneof=ns us ms s"`
	// UnitField selects a divisor per record from Divisors.
	UnitField      *string       `mapstructure:"unitField" validate:"required_with=Divisors"`
	Divisors       []UnitDivisor `mapstructure:"divisors" validate:"dive"`
	DefaultDivisor *float64      `mapstructure:"defaultDivisor" validate:"omitempty,gt=0"`
}

type UnitDivisor struct {
	Unit    *string  `mapstructure:"unit" validate:"required"`
	Divisor *float64 `mapstructure:"divisor" validate:"required,gt=0"`
}

// Comparison names two groups by their key parts.
type Comparison struct {
	Baseline  []string `mapstructure:"baseline" validate:"required,min=1"`
	Candidate []string `mapstructure:"candidate" validate:"required,min=1"`
}

type Plot struct {
	Kind  *string `mapstructure:"kind" validate:"required,oneof=cdf boxplot histogram"`
	File  *string `mapstructure:"file" validate:"required"`
	Title *string `mapstructure:"title"`
	XAxis *string `mapstructure:"xAxis"`
	LogX  *bool   `mapstructure:"logX"`
	// Truncate cuts CDF curves at the quantile and draws the tail separately.
	Truncate *float64 `mapstructure:"truncate" validate:"omitempty,gt=0,lt=1"`
	// Aggregate adds the union of all groups as an extra curve.
	Aggregate *bool `mapstructure:"aggregate"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Logging.Driver", "noop")
	v.SetDefault("Logging.Verbose", false)
	v.SetDefault("Logging.Run", "dnslatency")

	v.SetDefault("Output.Dir", "results")
	v.SetDefault("Output.Progress", true)
	v.SetDefault("Output.Plots", true)
}

// ReadConfig reads and validates the YAML configuration at path. Environment
// variables prefixed DNSLATENCY_ override keys, e.g. DNSLATENCY_OUTPUT_DIR.
func ReadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("dnslatency")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("ReadConfig() error when reading config file at %s: %w", path, err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("ReadConfig() error occured while decoding %s: %w", path, err)
	}
	if err := Validate(&config); err != nil {
		return nil, fmt.Errorf("ReadConfig() %s: %w", path, err)
	}
	return &config, nil
}

// Validate checks struct tags and the constraints tags cannot express.
func Validate(config *Config) error {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("unable to validate config: %w", err)
		}

		var lines []string
		for _, err := range err.(validator.ValidationErrors) {
			lines = append(lines, "\t"+err.Error())
		}
		return fmt.Errorf("encountered validation errors:\n%s", strings.Join(lines, "\n"))
	}

	names := map[string]bool{}
	for _, a := range config.Analyses {
		if names[*a.Name] {
			return fmt.Errorf("analysis %q is declared twice", *a.Name)
		}
		names[*a.Name] = true
		if len(a.ThenBy) > 0 && len(a.GroupBy) == 0 {
			return fmt.Errorf("analysis %s sets thenBy without groupBy", *a.Name)
		}
		for _, d := range a.Derive {
			if d.Divisor != nil && d.FromUnit != nil {
				return fmt.Errorf("analysis %s derivation %s sets both divisor and units", *a.Name, *d.Result)
			}
		}
		for _, c := range a.Compare {
			if len(c.Baseline) != len(a.GroupBy) || len(c.Candidate) != len(a.GroupBy) {
				return fmt.Errorf("analysis %s comparison %v vs %v expected %d key parts matching groupBy", *a.Name, c.Baseline, c.Candidate, len(a.GroupBy))
			}
		}
	}
	return nil
}
