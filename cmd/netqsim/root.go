package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iti/netqsim"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// options holds the command line
type options struct {
	cfgFile    string
	noRandom   bool
	endTime    float64
	endCount   int
	debug      int
	reportFile string
	traceFile  string
	dumpFile   string
	saveCfg    string
	seed       uint64
}

// newRootCmd builds the command.  Report and diagnostics go to out as well
// as to the report file
func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "netqsim",
		Short: "Discrete-event simulation of a router feeding two servers",
		Long: `netqsim simulates two packet streams, Px and Py, sharing a router that
forwards Px packets to server S1 and Py packets to server S2, and reports
interarrival and service-time metrics.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, v, out)
		},
	}
	rootCmd.SetOut(out)

	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.noRandom, "no-random", "n", false, "do not use random number stream generation")
	flags.Float64VarP(&opts.endTime, "time", "t", netqsim.DefaultEndTime, "simulation ending time in seconds")
	flags.IntVarP(&opts.endCount, "count", "x", netqsim.DefaultEndCount, "simulation ending packet count (packets served by S1)")
	flags.CountVarP(&opts.debug, "debug", "d", "increase debugging verbosity (-dd even more)")
	flags.StringVar(&opts.cfgFile, "config", "", "yaml or json file with model parameters")
	flags.StringVar(&opts.reportFile, "report-file", "output1.txt", "file mirroring the report and diagnostics")
	flags.StringVar(&opts.traceFile, "trace-file", "output2.txt", "file receiving one line per completed service")
	flags.StringVar(&opts.dumpFile, "dump", "", "yaml or json file receiving the structured trace")
	flags.StringVar(&opts.saveCfg, "save-config", "", "yaml or json file receiving the effective model parameters")
	flags.Uint64Var(&opts.seed, "seed", 0, "rngstream master seed (default: taken from the clock)")

	v.BindPFlag("report-file", flags.Lookup("report-file"))
	v.BindPFlag("trace-file", flags.Lookup("trace-file"))
	v.BindPFlag("seed", flags.Lookup("seed"))

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprint(w, netqsim.Diagram)
		fmt.Fprintf(w, "\nUsage: %s [options]\nOptions:\n%s\n", cmd.Name(), cmd.Flags().FlagUsages())
	})

	return rootCmd
}

// setDefaults seeds v with the parameters of the reference network
func setDefaults(v *viper.Viper) {
	dflt := netqsim.DefaultSimCfg()
	v.SetDefault("name", dflt.Name)
	v.SetDefault("deterministic", dflt.Deterministic)
	v.SetDefault("seed", dflt.Seed)

	streams := map[string]netqsim.StreamDesc{"px": dflt.Px, "py": dflt.Py}
	for key, sd := range streams {
		v.SetDefault(key+".interarrival", sd.Interarrival)
		v.SetDefault(key+".dist", sd.Dist)
		v.SetDefault(key+".dst", sd.Dst)
	}

	nodes := map[string]netqsim.NodeDesc{"router": dflt.Router, "server1": dflt.Server1, "server2": dflt.Server2}
	for key, nd := range nodes {
		v.SetDefault(key+".mean", nd.Mean)
		v.SetDefault(key+".sigma", nd.Sigma)
		v.SetDefault(key+".dist", nd.Dist)
	}
}

// loadSimCfg reads the model parameters from defaults, the optional
// configuration file and NETQSIM_* environment variables
func loadSimCfg(v *viper.Viper, cfgFile string) (*netqsim.SimCfg, error) {
	setDefaults(v)
	v.SetEnvPrefix("NETQSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	streamDesc := func(key string) netqsim.StreamDesc {
		return netqsim.StreamDesc{Interarrival: v.GetFloat64(key + ".interarrival"),
			Dist: v.GetString(key + ".dist"), Dst: v.GetString(key + ".dst")}
	}
	nodeDesc := func(key string) netqsim.NodeDesc {
		return netqsim.NodeDesc{Mean: v.GetFloat64(key + ".mean"),
			Sigma: v.GetFloat64(key + ".sigma"), Dist: v.GetString(key + ".dist")}
	}

	cfg := &netqsim.SimCfg{
		Name:          v.GetString("name"),
		Px:            streamDesc("px"),
		Py:            streamDesc("py"),
		Router:        nodeDesc("router"),
		Server1:       nodeDesc("server1"),
		Server2:       nodeDesc("server2"),
		Deterministic: v.GetBool("deterministic"),
		Seed:          v.GetUint64("seed"),
	}
	if cfg.Seed == 0 {
		cfg.Seed = clockSeed()
	}
	return cfg, nil
}

// clockSeed derives a master seed from the wall clock, so unseeded runs differ
func clockSeed() uint64 {
	return uint64(time.Now().UnixNano())%netqsim.MaxSeed + 1
}

// logLevel maps the number of -d flags to a logrus level
func logLevel(debug int) logrus.Level {
	switch {
	case debug >= 2:
		return logrus.TraceLevel
	case debug == 1:
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// run validates the command line, builds the simulation, runs it and writes the outputs
func run(cmd *cobra.Command, opts *options, v *viper.Viper, out io.Writer) error {
	flags := cmd.Flags()
	stop, err := netqsim.CreateStopCondition(opts.endTime, flags.Changed("time"), opts.endCount, flags.Changed("count"))
	if err != nil {
		return err
	}

	cfg, err := loadSimCfg(v, opts.cfgFile)
	if err != nil {
		return err
	}
	if opts.noRandom {
		cfg.Deterministic = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	reportFile := v.GetString("report-file")
	traceFile := v.GetString("trace-file")
	if _, err := netqsim.CheckOutputFiles([]string{reportFile, traceFile, opts.dumpFile, opts.saveCfg}); err != nil {
		return err
	}

	rf, err := os.Create(reportFile)
	if err != nil {
		return err
	}
	defer rf.Close()

	tf, err := os.Create(traceFile)
	if err != nil {
		return err
	}
	defer tf.Close()
	tw := bufio.NewWriter(tf)

	tee := io.MultiWriter(out, rf)

	log := logrus.New()
	log.SetOutput(tee)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableQuote: true})
	log.SetLevel(logLevel(opts.debug))

	fmt.Fprint(tee, netqsim.Diagram)

	trace := netqsim.CreateTraceManager(cfg.Name, opts.dumpFile != "", tw)
	sim, err := netqsim.BuildSimulation(cfg, stop, trace, log)
	if err != nil {
		return err
	}

	sim.Run()

	fmt.Fprintln(tee)
	if err := sim.Report(tee, opts.debug); err != nil {
		return err
	}

	if err := trace.Err(); err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.dumpFile != "" {
		if err := trace.WriteToFile(opts.dumpFile); err != nil {
			return err
		}
	}
	if opts.saveCfg != "" {
		if err := cfg.WriteToFile(opts.saveCfg); err != nil {
			return err
		}
	}
	return nil
}
