package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/convert"
	"murmur/doctor"
	"murmur/log"
	"murmur/state"
	"murmur/transcriber"
	"murmur/vosk"
)

var version = "dev"

const stopWait = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	modelPath := flag.String("model", "", "speech model directory (overrides config)")
	filePath := flag.String("file", "", "transcribe a single audio file")
	dirPath := flag.String("dir", "", "transcribe every audio file in a directory")
	micMode := flag.Bool("mic", false, "transcribe live microphone input")
	deviceName := flag.String("device", "", "capture device name substring")
	pickDevice := flag.Bool("pick-device", false, "interactively select the capture device")
	logPath := flag.String("logpath", "", "log directory")
	runDoctor := flag.Bool("doctor", false, "run system diagnostics and exit")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("murmur %s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *modelPath != "" {
		cfg.Model.Path = *modelPath
	}

	if *runDoctor {
		os.Exit(doctor.Run(cfg))
	}

	if !*micMode && *filePath == "" && *dirPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: murmur -mic | -file <audio> | -dir <directory>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	dir, err := log.ResolveDir(*logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not resolve log directory: %v\n", err)
	} else {
		log.SetDir(dir)
		if err := log.Init(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
		}
	}
	defer log.Close()

	states := state.NewManager()

	service := &vosk.Service{}
	if err := service.Open(cfg.Model.Path); err != nil {
		states.TransitionTo(state.Error)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		shutdown(states, service)
		os.Exit(1)
	}
	states.TransitionTo(state.Ready)

	exitCode := 0
	switch {
	case *micMode:
		exitCode = runMic(cfg, service, states, *deviceName, *pickDevice)
	case *filePath != "":
		exitCode = runFile(cfg, service, states, *filePath)
	default:
		exitCode = runDir(cfg, service, states, *dirPath)
	}

	shutdown(states, service)
	os.Exit(exitCode)
}

func shutdown(states *state.Manager, service *vosk.Service) {
	states.TransitionTo(state.ShuttingDown)
	service.Close()
}

func newConverter(cfg config.Config) *convert.FFmpeg {
	return convert.NewFFmpeg(cfg.Convert.FFmpegPath, cfg.Audio.SampleRate,
		time.Duration(cfg.Convert.ProbeTimeoutSec)*time.Second)
}

func fileConfig(cfg config.Config) transcriber.FileConfig {
	return transcriber.FileConfig{
		SampleRate: cfg.Audio.SampleRate,
		ChunkSize:  cfg.Audio.ChunkSize,
	}
}

func runFile(cfg config.Config, service *vosk.Service, states *state.Manager, path string) int {
	log.SessionStart("file", cfg.Model.Path)
	states.TransitionTo(state.Processing)

	ft := transcriber.NewFile(service, newConverter(cfg), fileConfig(cfg))
	text, err := ft.Transcribe(path)
	if err != nil {
		states.TransitionTo(state.Error)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	states.TransitionTo(state.Ready)

	if text == "" {
		fmt.Println("(no speech detected)")
	} else {
		fmt.Println(text)
	}
	return 0
}

func runDir(cfg config.Config, service *vosk.Service, states *state.Manager, dir string) int {
	log.SessionStart("batch", cfg.Model.Path)
	states.TransitionTo(state.Processing)

	ft := transcriber.NewFile(service, newConverter(cfg), fileConfig(cfg))
	results, err := ft.TranscribeDir(dir)
	if err != nil {
		states.TransitionTo(state.Error)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	states.TransitionTo(state.Ready)

	failed := 0
	for _, r := range results {
		fmt.Printf("=== %s\n", r.Path)
		switch {
		case r.Err != nil:
			failed++
			fmt.Printf("error: %v\n", r.Err)
		case r.Text == "":
			fmt.Println("(no speech detected)")
		default:
			fmt.Println(r.Text)
		}
	}
	fmt.Printf("%d file(s), %d failed\n", len(results), failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runMic(cfg config.Config, service *vosk.Service, states *state.Manager, deviceName string, pickDevice bool) int {
	ctx, err := audio.NewContext()
	if err != nil {
		states.TransitionTo(state.Error)
		fmt.Fprintf(os.Stderr, "Error: cannot connect to audio: %v\n", err)
		return 1
	}
	defer ctx.Close()

	var device *audio.DeviceInfo
	switch {
	case deviceName != "":
		device, err = audio.FindDevice(ctx, deviceName)
	case pickDevice:
		device, err = audio.SelectDevice(ctx)
	}
	if err != nil {
		states.TransitionTo(state.Error)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	source, err := audio.NewCaptureSource(ctx, device, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   uint32(cfg.Audio.Channels),
	})
	if err != nil {
		states.TransitionTo(state.Error)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	phrases := 0
	sink := func(text string) {
		phrases++
		fmt.Printf("\r\x1b[K>>> %s\n", text)
	}

	mic := transcriber.NewMic(service, source, sink, transcriber.MicConfig{
		SampleRate: cfg.Audio.SampleRate,
		ChunkSize:  cfg.Audio.ChunkSize,
		IdleSleep:  time.Duration(cfg.Audio.IdleSleepMs) * time.Millisecond,
		OnPartial: func(partial string) {
			fmt.Printf("\r\x1b[K... %s", partial)
		},
	})

	log.SessionStart("mic", cfg.Model.Path)
	states.TransitionTo(state.Processing)
	fmt.Println("Listening... press Ctrl+C to stop.")

	runErr := make(chan error, 1)
	go func() {
		runErr <- mic.Run()
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	code := 0
	select {
	case err := <-runErr:
		// Fatal decoder or source error; the loop already cleaned up.
		if err != nil {
			states.TransitionTo(state.Error)
			fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
			code = 1
		}
	case <-sig:
		fmt.Println("\nStopping...")
		mic.Stop()
		select {
		case <-mic.Done():
			if err := <-runErr; err != nil {
				states.TransitionTo(state.Error)
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				code = 1
			}
		case <-time.After(stopWait):
			// Abandon the wait; the loop still converges on its own.
			log.Warnf("capture loop did not stop within %v", stopWait)
		}
	}

	if code == 0 {
		states.TransitionTo(state.Ready)
	}
	log.SessionEnd(phrases)
	return code
}
