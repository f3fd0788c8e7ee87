package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/btgate/hardware/parani"
	"github.com/temoto/btgate/hardware/uconnect"
	"github.com/temoto/btgate/helpers"
	"github.com/temoto/btgate/log2"
)

const DefaultConfigPath = "/iox_data/btgate.hcl"

const (
	EnvParaniDevice   = "IR_PARANI_SERIAL"
	EnvUconnectDevice = "IR_OTHER_SERIAL"
)

const DefaultHeartbeatInterval = 15 * time.Second

// Config is read once at start and then passed by value to every source.
// hcl v1 can't decode into uint16, so numbers are int and range checked in Validate.
type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Server struct {
		Address string `hcl:"address"`
		Port    int    `hcl:"port"`
	} `hcl:"server"`
	AssetNumber int `hcl:"asset_number"`

	Heartbeat struct {
		Disable     bool `hcl:"disable"`
		IntervalSec int  `hcl:"interval_sec"`
	} `hcl:"heartbeat"`
	Parani   SerialConfig `hcl:"parani"`
	Uconnect SerialConfig `hcl:"uconnect"`

	Log struct {
		Level  string `hcl:"level"`
		Syslog string `hcl:"syslog"`
	} `hcl:"log"`
	Metrics struct {
		Listen string `hcl:"listen"`
	} `hcl:"metrics"`
}

type SerialConfig struct {
	Disable    bool   `hcl:"disable"`
	Device     string `hcl:"device"`
	Baud       int    `hcl:"baud"`
	TimeoutSec int    `hcl:"timeout_sec"`
}

func (sc SerialConfig) Timeout(def time.Duration) time.Duration {
	return helpers.IntSecondDefault(sc.TimeoutSec, def)
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

func (c *Config) HeartbeatInterval() time.Duration {
	return helpers.IntSecondDefault(c.Heartbeat.IntervalSec, DefaultHeartbeatInterval)
}

func (c *Config) ParaniTimeout() time.Duration   { return c.Parani.Timeout(parani.DefaultTimeout) }
func (c *Config) UconnectTimeout() time.Duration { return c.Uconnect.Timeout(uconnect.DefaultTimeout) }

// ApplyEnv overrides device paths from environment, empty values are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if s := getenv(EnvParaniDevice); s != "" {
		c.Parani.Device = s
	}
	if s := getenv(EnvUconnectDevice); s != "" {
		c.Uconnect.Device = s
	}
}

func (c *Config) applyDefaults() {
	if c.Parani.Device == "" {
		c.Parani.Device = parani.DefaultDevice
	}
	if c.Parani.Baud == 0 {
		c.Parani.Baud = parani.DefaultBaud
	}
	if c.Uconnect.Device == "" {
		c.Uconnect.Device = uconnect.DefaultDevice
	}
	if c.Uconnect.Baud == 0 {
		c.Uconnect.Baud = uconnect.DefaultBaud
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) Validate() error {
	errs := make([]error, 0, 4)
	if c.Server.Address == "" {
		errs = append(errs, errors.NotValidf("config server.address=empty"))
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, errors.NotValidf("config server.port=%d", c.Server.Port))
	}
	if c.AssetNumber < 0 || c.AssetNumber > 65535 {
		errs = append(errs, errors.NotValidf("config asset_number=%d", c.AssetNumber))
	}
	if c.Heartbeat.IntervalSec < 0 {
		errs = append(errs, errors.NotValidf("config heartbeat.interval_sec=%d", c.Heartbeat.IntervalSec))
	}
	for _, x := range []struct {
		name string
		sc   SerialConfig
	}{{"parani", c.Parani}, {"uconnect", c.Uconnect}} {
		if x.sc.Baud < 0 {
			errs = append(errs, errors.NotValidf("config %s.baud=%d", x.name, x.sc.Baud))
		}
		if x.sc.TimeoutSec < 0 {
			errs = append(errs, errors.NotValidf("config %s.timeout_sec=%d", x.name, x.sc.TimeoutSec))
		}
	}
	if _, err := log2.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, errors.Annotate(err, "config log.level"))
	}
	return helpers.FoldErrors(errs)
}

func (c *Config) String() string {
	return fmt.Sprintf("server=%s:%d asset=%d heartbeat=%t parani=%s uconnect=%s",
		c.Server.Address, c.Server.Port, c.AssetNumber,
		!c.Heartbeat.Disable, c.Parani.describe(), c.Uconnect.describe())
}

func (sc SerialConfig) describe() string {
	if sc.Disable {
		return "disabled"
	}
	return fmt.Sprintf("%s@%d", sc.Device, sc.Baud)
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		*errs = append(*errs, errors.Errorf("config duplicate source=%s", source.Name))
		return
	}
	log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
		}
		return
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// ReadConfig reads and merges names in order, later values win.
// Then environment overrides and defaults apply, then validation.
func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if err := helpers.FoldErrors(errs); err != nil {
		return nil, err
	}
	c.ApplyEnv(os.Getenv)
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
