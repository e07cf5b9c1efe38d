package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"silence-excise/cmd"
	cfg "silence-excise/internal/config"
	"silence-excise/internal/excise"
	"silence-excise/internal/job"
	"silence-excise/internal/samplecache"
	"silence-excise/internal/server"
	"silence-excise/internal/transcoder"
	"silence-excise/pkg/deps"
)

func main() {
	// ─── Step 1: Parse CLI arguments ───
	config, err := cmd.ParseArgs()
	if err != nil {
		fmt.Println("[ERROR]", err)
		cmd.PrintUsageAndExit()
	}

	// ─── Step 2: Check dependencies ───
	checker := deps.NewChecker("ffmpeg", "ffprobe")
	if err := checker.CheckAndPrint(); err != nil {
		os.Exit(1)
	}

	// ─── Step 3: Wire up the driver, cache and job manager ───
	envCfg := cfg.LoadFromEnv()
	if config.Addr == ":8080" && envCfg.HTTPAddr != "" {
		config.Addr = envCfg.HTTPAddr
	}

	driver := transcoder.NewDriver(transcoder.Locator{SidecarDir: envCfg.TranscoderDir})
	cache := samplecache.New(envCfg.SampleCacheMaxBytes)
	manager := job.NewManager(driver, cache)
	manager.SetRenderConcurrency(envCfg.RenderConcurrency)

	// ─── Step 4: Setup context with signal handling ───
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sig
		fmt.Println("\n[INFO] Cancelling...")
		manager.CancelExport()
		cancel()
	}()

	if config.Serve {
		runServer(manager, config.Addr)
		return
	}

	runOneShot(ctx, manager, config)
}

// runServer starts the HTTP command surface and blocks until it exits.
func runServer(manager *job.Manager, addr string) {
	api := server.NewAPI(manager)
	router := server.SetupRouter(api)

	fmt.Printf("[INFO] Listening on %s\n", addr)
	if err := http.ListenAndServe(addr, router); err != nil {
		fmt.Println("[ERROR]", err)
		os.Exit(1)
	}
}

// runOneShot runs a single process_video job against the given config and
// prints the resulting summary as JSON.
func runOneShot(ctx context.Context, manager *job.Manager, config *cmd.Config) {
	fmt.Println("[INFO] Input:", config.InputPath)
	fmt.Println("[INFO] Press Ctrl+C to cancel")

	// The one-shot CLI path has no SSE consumer draining the peak-batch
	// channel (server/api.go's /events handler is the only reader). Since
	// EmitPeakBatch blocks until received (spec §5: peak events must never
	// be dropped), extraction would stall partway through any input longer
	// than a few seconds without something to drain it here.
	stopDrain := make(chan struct{})
	go drainPeaks(manager, ctx, stopDrain)
	defer close(stopDrain)

	resp, err := manager.ProcessVideo(ctx, job.ProcessVideoRequest{
		InputPath:             config.InputPath,
		OutputPath:            config.OutputPath,
		ThresholdDB:           config.ThresholdDB,
		MinSilenceDurationSec: config.MinSilenceDurationSec,
		SampleRate:            config.SampleRate,
	})
	if err != nil {
		if _, ok := err.(excise.ErrExportCancelled); ok {
			fmt.Println("[INFO] Export cancelled")
			os.Exit(130)
		}
		fmt.Println("[ERROR]", err)
		os.Exit(1)
	}

	out, _ := json.MarshalIndent(resp.Result, "", "  ")
	fmt.Println(string(out))
}

// drainPeaks discards peak-batch events for the duration of a one-shot CLI
// job, unblocking EmitPeakBatch on the producer side.
func drainPeaks(manager *job.Manager, ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-manager.Events.Peaks():
		case <-ctx.Done():
			return
		case <-stop:
			return
		}
	}
}
