package detection

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// DefaultClassThreshold is the acceptance threshold applied to any class
// with no explicit entry in the threshold table.
const DefaultClassThreshold = 0.30

// DefaultObjectnessThreshold gates "is this a cell at all" before any
// class decision is attempted.
const DefaultObjectnessThreshold = 0.20

// ThresholdTable maps class name to acceptance threshold. Immutable
// configuration, loaded once.
type ThresholdTable map[string]float32

// Config carries the acceptance policy for the decision engine. It is
// passed explicitly into every call so one engine can serve concurrent
// requests with different policies; nothing here is shared mutable state.
type Config struct {
	// Classes lists the known class names in detector index order.
	Classes []string `json:"classes"`

	// ObjectnessThreshold discards detections below it before any class
	// decision is made.
	ObjectnessThreshold float32 `json:"objectness_threshold"`

	// Thresholds holds the per-class acceptance thresholds.
	Thresholds ThresholdTable `json:"thresholds"`

	// DefaultThreshold is used for classes absent from Thresholds.
	DefaultThreshold float32 `json:"default_threshold"`
}

// DefaultConfig returns the clinical acceptance policy used in
// production. Lower thresholds on the severe categories deliberately
// favor recall: missing an HSIL or SCC cell costs far more than an extra
// review of a normal one.
func DefaultConfig() Config {
	return Config{
		Classes:             BethesdaClasses,
		ObjectnessThreshold: DefaultObjectnessThreshold,
		Thresholds: ThresholdTable{
			"NILM":   0.40,
			"ASC-US": 0.35,
			"ASC-H":  0.30,
			"LSIL":   0.30,
			"HSIL":   0.25,
			"SCC":    0.25,
		},
		DefaultThreshold: DefaultClassThreshold,
	}
}

// LoadConfig reads a Config from a JSON file and validates it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading decision config")
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing decision config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every threshold lies in [0, 1] and at least one
// class is configured.
func (c Config) Validate() error {
	if len(c.Classes) == 0 {
		return errors.New("decision config has no classes")
	}
	if c.ObjectnessThreshold < 0 || c.ObjectnessThreshold > 1 {
		return fmt.Errorf("objectness threshold %.3f outside [0,1]", c.ObjectnessThreshold)
	}
	if c.DefaultThreshold < 0 || c.DefaultThreshold > 1 {
		return fmt.Errorf("default threshold %.3f outside [0,1]", c.DefaultThreshold)
	}
	for name, thr := range c.Thresholds {
		if thr < 0 || thr > 1 {
			return fmt.Errorf("threshold %.3f for class %q outside [0,1]", thr, name)
		}
	}
	return nil
}

// ClassName resolves a detector class index to its name, falling back to
// a synthetic "class_N" label for indices outside the known set.
func (c Config) ClassName(id int) string {
	if id >= 0 && id < len(c.Classes) {
		return c.Classes[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// ThresholdFor returns the acceptance threshold for a class name and
// whether an explicit entry existed. Missing entries fall back to
// DefaultThreshold; this is a warning condition, never a failure.
func (c Config) ThresholdFor(className string) (float32, bool) {
	if thr, ok := c.Thresholds[className]; ok {
		return thr, true
	}
	return c.DefaultThreshold, false
}

// MissingThresholds lists configured classes that have no explicit
// threshold entry, so callers can log the fallback once at startup.
func (c Config) MissingThresholds() []string {
	var missing []string
	for _, name := range c.Classes {
		if _, ok := c.Thresholds[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
