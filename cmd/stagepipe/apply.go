package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/stagepipe/pkg/actor"
	"github.com/cuemby/stagepipe/pkg/dispatcher"
	"github.com/cuemby/stagepipe/pkg/metrics"
	"github.com/cuemby/stagepipe/pkg/stage"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply a pipeline topology file and run it until interrupted",
	Long: `Apply loads a declarative pipeline topology from YAML, wires every
stage it names, and keeps the process alive until interrupted.

Examples:
  # Run a topology, exposing metrics on the default address
  stagepipe apply -f pipeline.yaml

  # Run on a custom metrics/health address
  stagepipe apply -f pipeline.yaml --metrics-addr 127.0.0.1:9191`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "Pipeline topology file to apply (required)")
	applyCmd.Flags().String("metrics-addr", "127.0.0.1:9090", "Address to serve /metrics, /health, /ready, /live on")
	_ = applyCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(applyCmd)
}

// PipelineResource is the top-level document applied by `stagepipe apply`,
// deliberately shaped like a Kubernetes-style resource so a topology file
// reads the same way any other YAML manifest in this ecosystem does.
type PipelineResource struct {
	APIVersion string       `yaml:"apiVersion"`
	Kind       string       `yaml:"kind"`
	Metadata   ResourceMeta `yaml:"metadata"`
	Spec       PipelineSpec `yaml:"spec"`
}

type ResourceMeta struct {
	Name string `yaml:"name"`
}

type PipelineSpec struct {
	Stages []StageSpec `yaml:"stages"`
}

// StageSpec describes one stage node. Role is one of "producer",
// "producer_consumer", "consumer". Module names a built-in module kind
// ("sequence", "multiply", "sink"); Params carries its configuration.
// SubscribeTo references earlier stages by name.
type StageSpec struct {
	Name        string                 `yaml:"name"`
	Role        string                 `yaml:"role"`
	Module      string                 `yaml:"module"`
	Dispatcher  string                 `yaml:"dispatcher"` // "demand_fair" (default) or "broadcast" — partition needs a Go func and is demo-only
	BufferSize  int                    `yaml:"bufferSize"`
	BufferKeep  string                 `yaml:"bufferKeep"` // "last" (default) or "first"
	Params      map[string]interface{} `yaml:"params"`
	SubscribeTo []SubscribeToSpec      `yaml:"subscribeTo"`
}

type SubscribeToSpec struct {
	Stage     string `yaml:"stage"`
	MaxDemand int    `yaml:"maxDemand"`
	MinDemand int    `yaml:"minDemand"`
}

func runApply(cmd *cobra.Command, args []string) error {
	filename, _ := cmd.Flags().GetString("file")
	metricsAddr, _ := cmd.Flags().GetString("metrics-addr")

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %v", err)
	}

	var resource PipelineResource
	if err := yaml.Unmarshal(data, &resource); err != nil {
		return fmt.Errorf("failed to parse YAML: %v", err)
	}
	if resource.Kind != "Pipeline" {
		return fmt.Errorf("unsupported resource kind: %s (want Pipeline)", resource.Kind)
	}

	collector := metrics.NewCollector(5 * time.Second)
	addrs := map[string]stage.Address{}
	sys := actor.NewSystem()

	fmt.Printf("Applying pipeline: %s\n", resource.Metadata.Name)
	for _, spec := range resource.Spec.Stages {
		addr, err := applyStage(sys, spec, addrs)
		if err != nil {
			return fmt.Errorf("stage %q: %w", spec.Name, err)
		}
		addrs[spec.Name] = addr
		collector.Register(spec.Name, stage.AddressStats{Addr: addr})
		fmt.Printf("✓ Stage started: %s (role=%s, module=%s)\n", spec.Name, spec.Role, spec.Module)
	}

	collector.Start()
	defer collector.Stop()

	metrics.SetVersion(Version)
	metrics.RegisterComponent("pipeline", true, fmt.Sprintf("%d stages running", len(resource.Spec.Stages)))
	metrics.RegisterComponent("api", true, "ready")

	go func() {
		http.Handle("/metrics", metrics.Handler())
		http.Handle("/health", metrics.HealthHandler())
		http.Handle("/ready", metrics.ReadyHandler())
		http.Handle("/live", metrics.LivenessHandler())
		if err := http.ListenAndServe(metricsAddr, nil); err != nil {
			fmt.Printf("metrics server error: %v\n", err)
		}
	}()
	fmt.Printf("✓ Metrics endpoint: http://%s/metrics\n", metricsAddr)
	fmt.Printf("✓ Health endpoints: http://%s/{health,ready,live}\n", metricsAddr)
	fmt.Println("Pipeline is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	fmt.Println("\nShutting down...")
	return nil
}

func applyStage(sys *actor.System, spec StageSpec, addrs map[string]stage.Address) (stage.Address, error) {
	opts := stage.ProducerOptions{BufferSize: spec.BufferSize}
	if spec.BufferKeep == "first" {
		opts.BufferKeep = stage.KeepFirst
	}

	disp, err := buildDispatcher(spec.Dispatcher)
	if err != nil {
		return stage.Address{}, err
	}

	subscribeTo, err := resolveSubscriptions(spec.SubscribeTo, addrs)
	if err != nil {
		return stage.Address{}, err
	}

	switch spec.Role {
	case "producer":
		mod, err := buildProducerModule(spec.Module, spec.Params)
		if err != nil {
			return stage.Address{}, err
		}
		return stage.NewProducer(sys, mod, opts, disp)
	case "producer_consumer":
		mod, err := buildConsumerModule(spec.Module, spec.Params)
		if err != nil {
			return stage.Address{}, err
		}
		return stage.NewProducerConsumer(sys, mod, opts, disp, subscribeTo)
	case "consumer":
		mod, err := buildConsumerModule(spec.Module, spec.Params)
		if err != nil {
			return stage.Address{}, err
		}
		return stage.NewConsumer(sys, mod, subscribeTo)
	default:
		return stage.Address{}, fmt.Errorf("unknown role %q (want producer, producer_consumer, or consumer)", spec.Role)
	}
}

func buildDispatcher(name string) (dispatcher.Dispatcher, error) {
	switch name {
	case "", "demand_fair":
		return nil, nil // stage.New* defaults to dispatcher.NewDemandFair
	case "broadcast":
		return dispatcher.NewBroadcast(), nil
	default:
		return nil, fmt.Errorf("unknown dispatcher %q (want demand_fair or broadcast)", name)
	}
}

func resolveSubscriptions(specs []SubscribeToSpec, addrs map[string]stage.Address) ([]stage.SubscribeTo, error) {
	out := make([]stage.SubscribeTo, 0, len(specs))
	for _, s := range specs {
		producer, ok := addrs[s.Stage]
		if !ok {
			return nil, fmt.Errorf("subscribeTo references unknown stage %q (must be defined earlier in the file)", s.Stage)
		}
		out = append(out, stage.SubscribeTo{
			Producer: producer,
			Options: stage.SubscriptionOptions{
				MaxDemand: s.MaxDemand,
				MinDemand: s.MinDemand,
				HasMin:    s.MinDemand > 0,
			},
		})
	}
	return out, nil
}

func buildProducerModule(kind string, params map[string]interface{}) (stage.Producer, error) {
	switch kind {
	case "sequence":
		return newSequenceProducer(intParam(params, "start", 0), intParam(params, "step", 1)), nil
	default:
		return nil, fmt.Errorf("unknown producer module %q (want sequence)", kind)
	}
}

func buildConsumerModule(kind string, params map[string]interface{}) (stage.Consumer, error) {
	switch kind {
	case "multiply":
		return multiplyConsumer{factor: intParam(params, "factor", 2)}, nil
	case "sink":
		return &printSink{name: stringParam(params, "name", "sink")}, nil
	default:
		return nil, fmt.Errorf("unknown consumer module %q (want multiply or sink)", kind)
	}
}

func intParam(params map[string]interface{}, key string, def int) int {
	switch v := params[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok {
		return v
	}
	return def
}
