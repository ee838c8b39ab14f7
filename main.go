// Package main provides the entry point for the subvox CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/muesli/gitcha"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/voxlab/subvox/internal/audio"
	"github.com/voxlab/subvox/internal/pipeline"
	"github.com/voxlab/subvox/internal/voices"
	"github.com/voxlab/subvox/tts"
	"github.com/voxlab/subvox/tts/engines/piper"
	"github.com/voxlab/subvox/utils"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	subtitleExtensions = []string{"*.srt"}

	configFile   string
	outputDir    string
	voice        string
	sampleRate   int
	bitrate      string
	jobs         int
	fetchMissing bool
	debug        bool

	rootCmd = &cobra.Command{
		Use:   "subvox [PATH|FILE...]",
		Short: "Turn subtitle files into narrated audio tracks",
		Long: paragraph(
			fmt.Sprintf("\nRead SRT subtitles, speak every cue with %s, and write an MP3 whose speech lands on the subtitle timeline.", keyword("a local TTS voice")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return []string{"srt"}, cobra.ShellCompDirectiveFilterFileExt
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	// flags are parsed by now, so --debug can take effect
	setupLog()

	// grab config values from Viper
	voice = viper.GetString("voice")
	sampleRate = viper.GetInt("sample_rate")
	bitrate = viper.GetString("bitrate")
	jobs = viper.GetInt("jobs")
	outputDir = utils.ExpandPath(viper.GetString("output"))
	fetchMissing = viper.GetBool("fetch_missing")

	if voice == "" {
		return errors.New("a voice must be configured")
	}
	if sampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if bitrate == "" {
		return errors.New("bitrate must not be empty")
	}
	if jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", jobs)
	}

	min := viper.GetFloat64("stretch.min")
	max := viper.GetFloat64("stretch.max")
	if min <= 0 || max < min {
		return fmt.Errorf("stretch bounds must satisfy 0 < min <= max, got [%.2f, %.2f]", min, max)
	}
	if min > 1 || max < 1 {
		return fmt.Errorf("stretch bounds must bracket 1.0, got [%.2f, %.2f]", min, max)
	}
	return nil
}

// discoverInputs resolves command arguments to subtitle files. A directory
// argument is searched recursively; no arguments searches the working
// directory.
func discoverInputs(args []string) ([]string, error) {
	if len(args) == 0 {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("unable to get working directory: %w", err)
		}
		args = []string{cwd}
	}

	var inputs []string
	for _, arg := range args {
		arg = utils.ExpandPath(arg)
		st, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("unable to stat %s: %w", arg, err)
		}
		if !st.IsDir() {
			inputs = append(inputs, arg)
			continue
		}

		ch, err := gitcha.FindAllFilesExcept(arg, subtitleExtensions, nil)
		if err != nil {
			return nil, fmt.Errorf("unable to search %s: %w", arg, err)
		}
		for res := range ch {
			inputs = append(inputs, res.Path)
		}
	}

	sort.Strings(inputs)
	return inputs, nil
}

// outputPath derives the track path from a subtitle path: same base name
// with an .mp3 extension, optionally redirected into outputDir.
func outputPath(input string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ".mp3"
	if outputDir != "" {
		return filepath.Join(outputDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

// resolveVoice makes sure the configured voice model is on disk and fills
// the model paths into cfg. An explicit model path from the environment
// wins over the cache.
func resolveVoice(ctx context.Context, cfg *piper.Config) error {
	if cfg.ModelPath != "" {
		cfg.ModelPath = utils.ExpandPath(cfg.ModelPath)
		return nil
	}

	cacheDir, err := voices.DefaultCacheDir()
	if err != nil {
		return err
	}
	mgr := voices.NewManager(cacheDir, viper.GetString("voice_base_url"))

	if !mgr.IsCached(voice) {
		if !fetchMissing {
			return fmt.Errorf("voice %q is not cached; run 'subvox voices fetch %s' or pass --fetch-missing", voice, voice)
		}
		if err := mgr.Fetch(ctx, voice); err != nil {
			return err
		}
	}

	cfg.ModelPath = mgr.ModelPath(voice)
	cfg.ConfigPath = mgr.ConfigPath(voice)
	return nil
}

// checkDependencies verifies the external tools the pipeline shells out to.
func checkDependencies(ctx context.Context, piperBinary string) error {
	ffmpeg := audio.CheckFFmpeg(ctx)
	if !ffmpeg.Installed {
		return fmt.Errorf("ffmpeg not found: %s", ffmpeg.Instructions)
	}
	log.Debug("found ffmpeg", "path", ffmpeg.Path, "version", ffmpeg.Version)

	piperStatus := audio.CheckTool(piperBinary, "install piper (https://github.com/rhasspy/piper)", true)
	if !piperStatus.Installed {
		return fmt.Errorf("%s not found: %s", piperBinary, piperStatus.Instructions)
	}
	log.Debug("found piper", "path", piperStatus.Path)
	return nil
}

func execute(_ *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inputs, err := discoverInputs(args)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return errors.New("no subtitle files found")
	}

	piperConfig, err := env.ParseAs[piper.Config]()
	if err != nil {
		return fmt.Errorf("error parsing engine config: %w", err)
	}
	if err := checkDependencies(ctx, piperConfig.BinaryPath); err != nil {
		return err
	}
	if err := resolveVoice(ctx, &piperConfig); err != nil {
		return err
	}

	engineConfig, err := tts.LoadEngineConfig()
	if err != nil {
		return fmt.Errorf("error parsing engine config: %w", err)
	}
	engineConfig.Voice = voice
	engineConfig.SampleRate = sampleRate

	engine, err := piper.New(piperConfig)
	if err != nil {
		return err
	}
	if err := engine.Initialize(engineConfig); err != nil {
		return err
	}
	defer func() { _ = engine.Shutdown() }()

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("unable to create output directory: %w", err)
		}
	}

	format := audio.DefaultFormat(sampleRate)
	runner := audio.NewRunner(engineConfig.Timeout)
	converter := pipeline.New(
		engine,
		audio.NewFFmpegStretcher(runner, format),
		audio.NewFFmpegEncoder(runner, format, bitrate),
		pipeline.Options{
			SampleRate: sampleRate,
			StretchMin: viper.GetFloat64("stretch.min"),
			StretchMax: viper.GetFloat64("stretch.max"),
			GapEpsilon: viper.GetDuration("gap_epsilon"),
			Jobs:       jobs,
		},
	)

	var (
		converted int
		failed    int
		voiced    int
		skipped   int
		total     time.Duration
	)
	for _, input := range inputs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		report, err := convertFile(ctx, converter, input)
		if err != nil {
			failed++
			fmt.Printf("%s %s: %v\n", failStyle.Render("FAIL"), input, err)
			continue
		}
		converted++
		voiced += report.CuesVoiced
		skipped += report.CuesSkipped
		total += report.OutputDuration
		fmt.Printf("%s %s -> %s (%s)\n",
			okStyle.Render("  OK"), input, report.OutputPath,
			report.OutputDuration.Round(time.Second))
	}

	printSummary(converted, failed, voiced, skipped, total)

	if converted == 0 {
		return fmt.Errorf("all %d files failed", failed)
	}
	return nil
}

func convertFile(ctx context.Context, converter *pipeline.Converter, input string) (*pipeline.Report, error) {
	f, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	return converter.Convert(ctx, f, outputPath(input))
}

func printSummary(converted, failed, voiced, skipped int, total time.Duration) {
	lines := []string{
		fmt.Sprintf("files converted  %d", converted),
		fmt.Sprintf("files failed     %d", failed),
		fmt.Sprintf("cues voiced      %d", voiced),
		fmt.Sprintf("cues skipped     %d", skipped),
		fmt.Sprintf("audio written    %s", total.Round(time.Second)),
	}
	fmt.Println(summaryStyle.Render(strings.Join(lines, "\n")))
}

func main() {
	setupLog()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory for generated audio (default: next to each input)")
	rootCmd.Flags().StringVarP(&voice, "voice", "v", "", "voice model id")
	rootCmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "PCM sample rate in Hz")
	rootCmd.Flags().StringVarP(&bitrate, "bitrate", "b", "", "MP3 bitrate (e.g. 128k)")
	rootCmd.Flags().IntVarP(&jobs, "jobs", "j", 0, "number of cues to synthesize in parallel")
	rootCmd.Flags().BoolVar(&fetchMissing, "fetch-missing", false, "download the configured voice model if it is not cached")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("sample_rate", rootCmd.Flags().Lookup("sample-rate"))
	_ = viper.BindPFlag("bitrate", rootCmd.Flags().Lookup("bitrate"))
	_ = viper.BindPFlag("jobs", rootCmd.Flags().Lookup("jobs"))
	_ = viper.BindPFlag("fetch_missing", rootCmd.Flags().Lookup("fetch-missing"))

	viper.SetDefault("voice", "en_US-lessac-medium")
	viper.SetDefault("sample_rate", 22050)
	viper.SetDefault("bitrate", "128k")
	viper.SetDefault("jobs", 1)
	viper.SetDefault("output", "")
	viper.SetDefault("fetch_missing", false)
	viper.SetDefault("voice_base_url", "")
	viper.SetDefault("stretch.min", 0.5)
	viper.SetDefault("stretch.max", 2.0)
	viper.SetDefault("gap_epsilon", 100*time.Millisecond)

	rootCmd.AddCommand(configCmd, manCmd, depsCmd, voicesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "subvox")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "subvox")}, dirs...)
	}

	if c := os.Getenv("SUBVOX_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("subvox")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("subvox")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "subvox.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
