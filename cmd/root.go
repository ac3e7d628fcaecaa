package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/OrderLab/go-zklatency/bench"
)

type options struct {
	benchConfig   string
	servers       string
	cluster       string
	configFile    string
	timeoutMs     int
	rootZnode     string
	znodeSize     int
	znodeCount    int
	watchMultiple int
	csvFile       string
	force         bool
	sampleOps     []string
	clientLog     string
	verbose       bool
	quiet         bool
}

// RootCmd builds the zklatency command.
func RootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "zklatency",
		Short: "Measure ZooKeeper operation latency.",
		Long: `zklatency creates znode_count znodes under root_znode, times a set on each
of them and writes one CSV row per set:

  timestamp_ns,op_index,duration_ns,payload_size,op_kind

The root znode is created for the test and deleted afterwards. If it already
exists the test refuses to run unless --force is given, in which case its
children are deleted first.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd.Flags())
			if err != nil {
				return err
			}
			return run(cmd, cfg)
		},
	}
	opts.addFlags(cmd.Flags())
	return cmd
}

func (o *options) addFlags(flags *pflag.FlagSet) {
	def := bench.DefaultConfig()
	flags.StringVar(&o.benchConfig, "bench_config", "", "TOML file with option defaults, flags given on the command line take precedence")
	flags.StringVar(&o.servers, "servers", def.Servers, "comma separated list of host:port, test each in turn")
	flags.StringVar(&o.cluster, "cluster", def.Cluster, "comma separated list of host:port, test as a cluster, alternative to --servers")
	flags.StringVar(&o.configFile, "config", def.ConfigFile, "zookeeper configuration file to lookup cluster from")
	flags.IntVar(&o.timeoutMs, "timeout", int(def.Timeout/time.Millisecond), "session timeout in milliseconds")
	flags.StringVar(&o.rootZnode, "root_znode", def.RootZnode, "root for the test, will be created as part of test")
	flags.IntVar(&o.znodeSize, "znode_size", def.ZnodeSize, "data size when creating/setting znodes")
	flags.IntVar(&o.znodeCount, "znode_count", def.ZnodeCount, "the number of znodes to operate on in each performance section")
	flags.IntVar(&o.watchMultiple, "watch_multiple", def.WatchMultiple, "number of watches to put on each znode (reserved)")
	flags.StringVar(&o.csvFile, "csv", def.CSVFile, "file to write the measurements to")
	flags.BoolVar(&o.force, "force", def.Force, "force the test to run, even if root_znode exists - WARNING! don't run this on a real znode or you'll lose it!!!")
	flags.StringSliceVar(&o.sampleOps, "sample_ops", def.SampleOps, "operations sampled per op: create, write, read, sync-read, delete")
	flags.StringVar(&o.clientLog, "client_log", def.ClientLog, "file receiving zookeeper client library messages")
	flags.BoolVarP(&o.verbose, "verbose", "v", def.Verbose, "verbose output, include more detail")
	flags.BoolVarP(&o.quiet, "quiet", "q", def.Quiet, "quiet output, basically just success/failure")
}

// config starts from the defaults or the --bench_config file and applies
// the flags set on the command line.
func (o *options) config(flags *pflag.FlagSet) (bench.Config, error) {
	cfg := bench.DefaultConfig()
	if flags.Changed("bench_config") {
		var err error
		if cfg, err = bench.LoadConfigFile(o.benchConfig); err != nil {
			return cfg, err
		}
	}
	set := func(name string, apply func()) {
		if flags.Changed(name) {
			apply()
		}
	}
	set("servers", func() { cfg.Servers = o.servers })
	set("cluster", func() { cfg.Cluster = o.cluster })
	set("config", func() { cfg.ConfigFile = o.configFile })
	set("timeout", func() {
		cfg.TimeoutMs = o.timeoutMs
		cfg.Timeout = time.Duration(o.timeoutMs) * time.Millisecond
	})
	set("root_znode", func() { cfg.RootZnode = o.rootZnode })
	set("znode_size", func() { cfg.ZnodeSize = o.znodeSize })
	set("znode_count", func() { cfg.ZnodeCount = o.znodeCount })
	set("watch_multiple", func() { cfg.WatchMultiple = o.watchMultiple })
	set("csv", func() { cfg.CSVFile = o.csvFile })
	set("force", func() { cfg.Force = o.force })
	set("sample_ops", func() { cfg.SampleOps = o.sampleOps })
	set("client_log", func() { cfg.ClientLog = o.clientLog })
	set("verbose", func() { cfg.Verbose = o.verbose })
	set("quiet", func() { cfg.Quiet = o.quiet })
	return cfg, cfg.Validate()
}

func logLevel(cfg bench.Config) string {
	switch {
	case cfg.Verbose:
		return "debug"
	case cfg.Quiet:
		return "warn"
	default:
		return "info"
	}
}

func initLogger(cfg bench.Config) error {
	logger, props, err := log.InitLogger(&log.Config{Level: logLevel(cfg), Format: "text"})
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

func run(cmd *cobra.Command, cfg bench.Config) error {
	if err := initLogger(cfg); err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	clientLog, err := bench.OpenClientLog(cfg.ClientLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := clientLog.Close(); err != nil {
			log.Debug("close client log failed", zap.Error(err))
		}
	}()

	b, err := bench.New(cfg, bench.WithDialer(bench.ZKDialer(clientLog)))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = b.Run(ctx)
	if !cfg.Quiet {
		for _, stat := range b.Stats() {
			fmt.Fprintln(cmd.OutOrStdout(), stat.String())
		}
	}
	if err != nil {
		log.Error("latency test failed", zap.String("runID", b.RunID), zap.Error(err))
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Latency test complete, %d samples written to %s\n", b.Rows(), cfg.CSVFile)
	return nil
}
