package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"salesetl/internal/config"
	"salesetl/internal/metrics"
	"salesetl/internal/metrics/datadog"
	"salesetl/internal/metrics/prompush"
	"salesetl/internal/pipeline"

	// register all backends with the storage factory; the config picks one.
	_ "salesetl/internal/storage/all"
)

// main loads the pipeline config (built-in defaults when -config is empty),
// wires the metrics backend and runs the sales job once.
func main() {
	var (
		cfgPath           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		dogstatsdAddrFlg  string
		validate          bool
		inspectFlg        bool
	)

	flag.StringVar(&cfgPath, "config", "", "pipeline config JSON path (empty: built-in sales job)")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides env METRICS_BACKEND)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.StringVar(&dogstatsdAddrFlg, "dogstatsd-addr", "", "DogStatsD address (overrides env DOGSTATSD_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	flag.BoolVar(&inspectFlg, "inspect", false, "print shape, head rows and numeric summaries of each stage to stdout")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	p, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}

	issues := config.ValidatePipeline(p)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("Configuration is invalid: %q", cfgPath)
		os.Exit(1)
	}
	if validate {
		log.Printf("Configuration is valid: %q", cfgPath)
		os.Exit(0)
	}

	flush := setupMetrics(
		resolve(metricsBackendFlg, "METRICS_BACKEND", "none"),
		resolve(pushGatewayURLFlg, "PUSHGATEWAY_URL", "http://localhost:9091"),
		resolve(dogstatsdAddrFlg, "DOGSTATSD_ADDR", "127.0.0.1:8125"),
		p.Job, *verbose,
	)

	opts := []pipeline.Option{pipeline.WithVerbose(*verbose)}
	if inspectFlg {
		opts = append(opts, pipeline.WithInspect(os.Stdout))
	}
	d, err := pipeline.New(p, opts...)
	if err != nil {
		fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *verbose {
		log.Printf("pipeline: source=%s url=%s grouped=%s storage=%s",
			p.Source.Kind, p.Source.URL, p.Output.Grouped, p.Storage.Kind)
	}

	start := time.Now()
	_, runErr := d.Run(ctx)
	flush()
	if runErr != nil {
		log.Fatalf("%v", runErr)
	}

	if *verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
}

// resolve picks a setting: flag → env → default.
func resolve(flagVal, env, def string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}

// setupMetrics installs the named backend and returns the function that
// flushes it. An unusable backend leaves the nop backend in place.
func setupMetrics(backendName, gwURL, dogAddr, job string, verbose bool) func() {
	var b metrics.Backend
	switch backendName {
	case "pushgateway":
		pb, err := prompush.NewBackend(job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, job)
		b = pb

	case "datadog":
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       dogAddr,
			Namespace:  "salesetl.",
			GlobalTags: []string{"job:" + job},
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return func() {}
		}
		log.Printf("metrics: addr=%v, backend=%v", dogAddr, backendName)
		b = db

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}
		return func() {}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
		return func() {}
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
