// Command abductio is the driver binary: it wires the S-expression
// loader, compiled knowledge base, proof-graph builder, ILP encoder, and
// solver into a single CLI surface (-m, -k, -p, -f, -T, -c), following
// the cobra command layout other_examples's
// theRebelliousNerd-codenerd and jinterlante1206-AleutianLocal repos use
// for their own driver binaries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gitrdm/abductio/internal/xlog"
)

var (
	mode       string
	kbPath     string
	paramArgs  []string
	flagArgs   []string
	timeoutArg []string
	compArgs   []string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "abductio [files...]",
	Short: "Abductive-reasoning engine driver",
	Long: "abductio compiles S-expression rule libraries into a queryable knowledge base\n" +
		"and runs abductive inference over observations against one.",
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&mode, "mode", "m", "", "mode: compile, infer, or learn")
	rootCmd.PersistentFlags().StringVarP(&kbPath, "kb", "k", "", "KB directory prefix")
	rootCmd.PersistentFlags().StringArrayVarP(&paramArgs, "param", "p", nil, "parameter key=value (repeatable)")
	rootCmd.PersistentFlags().StringArrayVarP(&flagArgs, "flag", "f", nil, "named boolean flag (repeatable)")
	rootCmd.PersistentFlags().StringArrayVarP(&timeoutArg, "timeout", "T", nil, "[phase=]seconds timeout (repeatable)")
	rootCmd.PersistentFlags().StringArrayVarP(&compArgs, "component", "c", nil, "{lhs|ilp|sol|dist}=key component selection (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, or error")
}

func runRoot(cmd *cobra.Command, args []string) error {
	params, err := parseParams(paramArgs)
	if err != nil {
		return err
	}
	flags := parseFlags(flagArgs)
	timeouts, err := parseTimeouts(timeoutArg)
	if err != nil {
		return err
	}
	components, err := parseComponents(compArgs)
	if err != nil {
		return err
	}

	log := xlog.New(xlog.Config{Name: "abductio", Level: logLevel, JSON: flags["json"]})

	o := options{
		kbPath:     kbPath,
		params:     params,
		flags:      flags,
		timeouts:   timeouts,
		components: components,
		log:        log,
	}

	switch mode {
	case "compile":
		return runCompile(o, args)
	case "infer":
		return runInfer(o, args)
	case "learn":
		return runLearn(o, args)
	case "":
		return fmt.Errorf("-m is required (compile, infer, or learn)")
	default:
		return fmt.Errorf("-m: unknown mode %q (want compile, infer, or learn)", mode)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "abductio:", err)
		os.Exit(1)
	}
}
