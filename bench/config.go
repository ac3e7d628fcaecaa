package bench

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
)

const (
	DefaultServers    = "localhost:2181"
	DefaultTimeout    = 5000 * time.Millisecond
	DefaultRootZnode  = "/zk-latencies"
	DefaultZnodeSize  = 25
	DefaultZnodeCount = 10000
	DefaultCSVFile    = "latency.csv"
)

// Config is everything a run needs. It is passed by value into each
// component; nothing reads process-wide option state.
type Config struct {
	Servers    string        `toml:"servers"`
	Cluster    string        `toml:"cluster"`
	ConfigFile string        `toml:"config"`
	Timeout    time.Duration `toml:"-"`
	TimeoutMs  int           `toml:"timeout"`
	RootZnode  string        `toml:"root_znode"`
	ZnodeSize  int           `toml:"znode_size"`
	ZnodeCount int           `toml:"znode_count"`
	// WatchMultiple is accepted for compatibility and not used by any phase.
	WatchMultiple int      `toml:"watch_multiple"`
	CSVFile       string   `toml:"csv"`
	Force         bool     `toml:"force"`
	SampleOps     []string `toml:"sample_ops"`
	ClientLog     string   `toml:"client_log"`
	Verbose       bool     `toml:"verbose"`
	Quiet         bool     `toml:"quiet"`
}

func DefaultConfig() Config {
	return Config{
		Servers:       DefaultServers,
		Timeout:       DefaultTimeout,
		TimeoutMs:     int(DefaultTimeout / time.Millisecond),
		RootZnode:     DefaultRootZnode,
		ZnodeSize:     DefaultZnodeSize,
		ZnodeCount:    DefaultZnodeCount,
		WatchMultiple: 1,
		CSVFile:       DefaultCSVFile,
		SampleOps:     []string{OpWrite.String()},
		ClientLog:     fmt.Sprintf("cli_log_%d.txt", os.Getpid()),
	}
}

// LoadConfigFile decodes a TOML file over the defaults. Unknown keys are
// rejected.
func LoadConfigFile(file string) (Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(file) == "" {
		return cfg, WrapError(ErrConfig, errors.New("bench config path is empty"), "bench config")
	}
	meta, err := toml.DecodeFile(file, &cfg)
	if err != nil {
		return cfg, WrapError(ErrConfig, err, file)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return cfg, ErrConfig.GenWithStackByArgs(fmt.Sprintf("unknown keys in %s: %v", file, undecoded))
	}
	if meta.IsDefined("timeout") {
		cfg.Timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}
	return cfg, nil
}

// Validate checks the values a run depends on.
func (self *Config) Validate() error {
	if self.Timeout <= 0 {
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("timeout must be positive, got %v", self.Timeout))
	}
	if err := validateRoot(self.RootZnode); err != nil {
		return err
	}
	if self.ZnodeSize < 0 {
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("znode_size must be >= 0, got %d", self.ZnodeSize))
	}
	if self.ZnodeCount < 0 {
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("znode_count must be >= 0, got %d", self.ZnodeCount))
	}
	if self.WatchMultiple < 1 {
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("watch_multiple must be positive, got %d", self.WatchMultiple))
	}
	if self.CSVFile == "" {
		return ErrConfig.GenWithStackByArgs("csv file is empty")
	}
	if self.Verbose && self.Quiet {
		return ErrConfig.GenWithStackByArgs("verbose and quiet are mutually exclusive")
	}
	if _, err := ParseOpKinds(self.SampleOps); err != nil {
		return err
	}
	return nil
}

func validateRoot(root string) error {
	switch {
	case !strings.HasPrefix(root, "/"):
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("root_znode must be absolute: %q", root))
	case root == "/":
		return ErrConfig.GenWithStackByArgs("root_znode cannot be /")
	case path.Clean(root) != root:
		return ErrConfig.GenWithStackByArgs(fmt.Sprintf("root_znode is not a clean path: %q", root))
	}
	return nil
}

// Payload returns the data written to every child node.
func (self *Config) Payload() []byte {
	return []byte(strings.Repeat("x", self.ZnodeSize))
}
