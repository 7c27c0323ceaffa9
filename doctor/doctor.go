// Package doctor runs preflight diagnostics for the pieces the pipeline
// depends on: the external converter, the speech model, and audio capture.
package doctor

import (
	"fmt"
	"os"
	"time"

	"murmur/audio"
	"murmur/config"
	"murmur/convert"
)

// Run executes the diagnostic checks and returns an exit code (0=all pass,
// 1=any fail).
func Run(cfg config.Config) int {
	fmt.Println("murmur doctor - system diagnostics")
	fmt.Println("==================================")

	allPass := true

	if !checkFFmpeg(cfg) {
		allPass = false
	}
	if !checkModel(cfg) {
		allPass = false
	}
	if !checkCapture() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkFFmpeg(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[1/3] External converter")

	ffmpeg := convert.NewFFmpeg(cfg.Convert.FFmpegPath, cfg.Audio.SampleRate,
		time.Duration(cfg.Convert.ProbeTimeoutSec)*time.Second)
	if err := ffmpeg.Probe(); err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	fmt.Printf("  PASS: %s responds\n", cfg.Convert.FFmpegPath)
	return true
}

func checkModel(cfg config.Config) bool {
	fmt.Println()
	fmt.Println("[2/3] Speech model")

	info, err := os.Stat(cfg.Model.Path)
	if err != nil || !info.IsDir() {
		fmt.Printf("  FAIL: no model directory at %s\n", cfg.Model.Path)
		fmt.Println("        download one from https://alphacephei.com/vosk/models")
		return false
	}
	fmt.Printf("  PASS: model directory found at %s\n", cfg.Model.Path)
	return true
}

func checkCapture() bool {
	fmt.Println()
	fmt.Println("[3/3] Audio capture")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}
	fmt.Printf("  PASS: %d capture device(s):\n", len(devices))
	for _, d := range devices {
		fmt.Printf("        - %s\n", d.Name)
	}
	return true
}
