// Package config reads line oriented key=value files such as a
// ZooKeeper server configuration (zoo.cfg).
package config

import (
	"bufio"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pingcap/errors"
)

type Config struct {
	path   string
	values map[string]string
	// keys in file order, last assignment wins for the value
	keys []string
}

// ParseConfig reads path. Blank lines and lines starting with '#' are
// skipped; any other line must contain '='.
func ParseConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Annotatef(err, "open config %s", path)
	}
	defer f.Close()

	config := &Config{path: path, values: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("%s:%d: expected key=value, got %q", path, lineno, line)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.Errorf("%s:%d: empty key", path, lineno)
		}
		if _, seen := config.values[key]; !seen {
			config.keys = append(config.keys, key)
		}
		config.values[key] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Annotatef(err, "read config %s", path)
	}
	return config, nil
}

func (self *Config) Path() string {
	return self.path
}

func (self *Config) Has(key string) bool {
	_, ok := self.values[key]
	return ok
}

func (self *Config) GetString(key string) (string, error) {
	v, ok := self.values[key]
	if !ok {
		return "", errors.Errorf("missing key '%s' in %s", key, self.path)
	}
	return v, nil
}

func (self *Config) GetInt(key string) (int, error) {
	v, err := self.GetString(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("key '%s' in %s is not an integer: %q", key, self.path, v)
	}
	return n, nil
}

// GetKeys returns the keys of the form "<prefix>.<id>". Keys whose id is
// numeric sort numerically (server.2 before server.10) and come before
// the rest, which sort lexically.
func (self *Config) GetKeys(prefix string) []string {
	var keys []string
	for _, k := range self.keys {
		if strings.HasPrefix(k, prefix+".") {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		a, aerr := strconv.Atoi(strings.TrimPrefix(keys[i], prefix+"."))
		b, berr := strconv.Atoi(strings.TrimPrefix(keys[j], prefix+"."))
		switch {
		case aerr == nil && berr == nil:
			return a < b
		case aerr == nil:
			return true
		case berr == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
