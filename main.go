/*
Runs the skybox renderer against the simulated compositor and world
tracking provider.
*/
package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-skybox/engine"
	"github.com/spaghettifunk/anima-skybox/engine/compositor"
	"github.com/spaghettifunk/anima-skybox/engine/core"
)

var (
	cfgFile     string
	duration    time.Duration
	mono        bool
	width       int
	height      int
	sampleCount int
	logLevel    string
)

var rootCmd = &cobra.Command{
	Use:   "anima-skybox",
	Short: "Stereoscopic skybox renderer",
	Long: `anima-skybox renders a cube-mapped sky into a head-mounted display
compositor, pacing frames against the display and sampling the head pose
at the predicted presentation time.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Render the skybox in the simulated compositor",
	RunE:  runSkybox,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	runCmd.Flags().DurationVar(&duration, "duration", 0, "stop after this long (0 runs until interrupted)")
	runCmd.Flags().BoolVar(&mono, "mono", false, "render a single view instead of two")
	runCmd.Flags().IntVar(&width, "width", 0, "per-view width in pixels")
	runCmd.Flags().IntVar(&height, "height", 0, "per-view height in pixels")
	runCmd.Flags().IntVar(&sampleCount, "sample-count", 0, "preferred multisample count")

	rootCmd.AddCommand(runCmd)
}

func loadConfig(cmd *cobra.Command) (*engine.ApplicationConfig, error) {
	config := engine.DefaultApplicationConfig()
	if cfgFile != "" {
		var err error
		if config, err = engine.LoadApplicationConfig(cfgFile); err != nil {
			return nil, err
		}
	}

	// Flags win over the file.
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		config.LogLevel = logLevel
	}
	if flags.Changed("mono") {
		config.Simulator.Stereo = !mono
		if mono && config.Simulator.Layout == compositor.LayoutLayered {
			config.Simulator.Layout = compositor.LayoutDedicated
		}
	}
	if flags.Changed("width") {
		config.Simulator.Width = width
	}
	if flags.Changed("height") {
		config.Simulator.Height = height
	}
	if flags.Changed("sample-count") {
		config.Renderer.SampleCountPreference = sampleCount
	}
	return config, config.Validate()
}

func runSkybox(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	e, err := engine.New(config)
	if err != nil {
		return err
	}
	if err := e.Initialize(); err != nil {
		return err
	}

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		core.LogInfo("interrupted, closing the immersive space")
		e.Quit()
	}()

	if duration > 0 {
		timer := time.AfterFunc(duration, e.Quit)
		defer timer.Stop()
	}

	runErr := e.Run()
	if err := e.Shutdown(); err != nil {
		core.LogError(err.Error())
	}
	return runErr
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		core.LogFatal("%s", err)
	}
}
