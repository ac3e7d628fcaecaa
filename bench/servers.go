package bench

import (
	"fmt"
	"strings"

	zkc "github.com/OrderLab/go-zklatency/config"
)

// ResolveServers returns the connect strings to open sessions against.
// A cluster, or an ensemble read from a config file, is a single connect
// string; a server list yields one entry per server.
func ResolveServers(cfg Config) ([]string, error) {
	if cfg.Cluster != "" {
		return []string{cfg.Cluster}, nil
	}
	if cfg.ConfigFile != "" {
		ensemble, err := ensembleFromFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		return []string{ensemble}, nil
	}
	var servers []string
	for _, s := range strings.Split(cfg.Servers, ",") {
		if s = strings.TrimSpace(s); s != "" {
			servers = append(servers, s)
		}
	}
	if len(servers) == 0 {
		return nil, ErrConfig.GenWithStackByArgs("no servers given")
	}
	return servers, nil
}

func ensembleFromFile(file string) (string, error) {
	config, err := zkc.ParseConfig(file)
	if err != nil {
		return "", WrapError(ErrConfig, err, file)
	}
	clientPort, err := config.GetString("clientPort")
	if err != nil {
		return "", WrapError(ErrConfig, err, file)
	}
	keys := config.GetKeys("server")
	if len(keys) == 0 {
		return "", ErrConfig.GenWithStackByArgs(fmt.Sprintf("no server.N entries in %s", file))
	}
	members := make([]string, 0, len(keys))
	for _, key := range keys {
		v, _ := config.GetString(key)
		host, _, _ := strings.Cut(v, ":")
		members = append(members, host+":"+clientPort)
	}
	return strings.Join(members, ","), nil
}
