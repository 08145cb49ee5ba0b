// Package config holds the construction-time configuration of the corpus
// index, the example loader and the batch assembler, loaded viper-style from
// flags, environment and an optional config file.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Dataset  DatasetConfig `mapstructure:"dataset"`
	Batch    BatchConfig   `mapstructure:"batch"`
	Text     TextConfig    `mapstructure:"text"`
	Audio    AudioConfig   `mapstructure:"audio"`
	LogLevel string        `mapstructure:"log_level"`
}

type DatasetConfig struct {
	CSVFile   string `mapstructure:"csv_file"`
	RootDir   string `mapstructure:"root_dir"`
	MinSeqLen int    `mapstructure:"min_seq_len"`
}

type BatchConfig struct {
	OutputsPerStep int `mapstructure:"outputs_per_step"`
	Size           int `mapstructure:"size"`
}

type TextConfig struct {
	Cleaner            string `mapstructure:"cleaner"`
	SentencePieceModel string `mapstructure:"sentencepiece_model"`
}

// AudioConfig mirrors the analysis parameters of the upstream feature
// extraction. Only sample_rate and frame_shift_ms are consumed here (by the
// doctor duration check); the rest is accepted for interface compatibility.
type AudioConfig struct {
	SampleRate    int     `mapstructure:"sample_rate"`
	NumMels       int     `mapstructure:"num_mels"`
	MinLevelDB    float64 `mapstructure:"min_level_db"`
	FrameShiftMS  float64 `mapstructure:"frame_shift_ms"`
	FrameLengthMS float64 `mapstructure:"frame_length_ms"`
	Preemphasis   float64 `mapstructure:"preemphasis"`
	RefLevelDB    float64 `mapstructure:"ref_level_db"`
	NumFreq       int     `mapstructure:"num_freq"`
	Power         float64 `mapstructure:"power"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Dataset: DatasetConfig{
			CSVFile:   "data/metadata.csv",
			RootDir:   "data/world",
			MinSeqLen: 0,
		},
		Batch: BatchConfig{
			OutputsPerStep: 5,
			Size:           32,
		},
		Text: TextConfig{
			Cleaner:            "english_cleaners",
			SentencePieceModel: "",
		},
		Audio: AudioConfig{
			SampleRate:    22050,
			NumMels:       80,
			MinLevelDB:    -100,
			FrameShiftMS:  12.5,
			FrameLengthMS: 50,
			Preemphasis:   0.97,
			RefLevelDB:    20,
			NumFreq:       1025,
			Power:         1.5,
		},
		LogLevel: "info",
	}
}

// Validate checks the fields the batching core depends on.
func (c Config) Validate() error {
	if c.Dataset.CSVFile == "" {
		return fmt.Errorf("dataset.csv_file must not be empty")
	}

	if c.Dataset.RootDir == "" {
		return fmt.Errorf("dataset.root_dir must not be empty")
	}

	if c.Dataset.MinSeqLen < 0 {
		return fmt.Errorf("dataset.min_seq_len must not be negative, got %d", c.Dataset.MinSeqLen)
	}

	if c.Batch.OutputsPerStep <= 0 {
		return fmt.Errorf("batch.outputs_per_step must be positive, got %d", c.Batch.OutputsPerStep)
	}

	if c.Batch.Size <= 0 {
		return fmt.Errorf("batch.size must be positive, got %d", c.Batch.Size)
	}

	return nil
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("dataset-csv-file", defaults.Dataset.CSVFile, "Path to the pipe-delimited manifest")
	fs.String("dataset-root-dir", defaults.Dataset.RootDir, "Root directory of the feature files")
	fs.Int("dataset-min-seq-len", defaults.Dataset.MinSeqLen, "Drop records with raw text shorter than this")
	fs.Int("batch-outputs-per-step", defaults.Batch.OutputsPerStep, "Decoder reduction factor r; frame axes are padded to a multiple of it")
	fs.Int("batch-size", defaults.Batch.Size, "Number of examples per assembled batch")
	fs.String("text-cleaner", defaults.Text.Cleaner, "Text cleaner profile (basic_cleaners|english_cleaners)")
	fs.String("text-sentencepiece-model", defaults.Text.SentencePieceModel, "Optional SentencePiece model; replaces the symbol-table tokenizer")
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Extraction sample rate in Hz")
	fs.Int("audio-num-mels", defaults.Audio.NumMels, "Mel channels of the extraction (compatibility)")
	fs.Float64("audio-min-level-db", defaults.Audio.MinLevelDB, "Extraction floor in dB (compatibility)")
	fs.Float64("audio-frame-shift-ms", defaults.Audio.FrameShiftMS, "Extraction hop size in ms")
	fs.Float64("audio-frame-length-ms", defaults.Audio.FrameLengthMS, "Extraction window size in ms (compatibility)")
	fs.Float64("audio-preemphasis", defaults.Audio.Preemphasis, "Extraction preemphasis coefficient (compatibility)")
	fs.Float64("audio-ref-level-db", defaults.Audio.RefLevelDB, "Extraction reference level in dB (compatibility)")
	fs.Int("audio-num-freq", defaults.Audio.NumFreq, "Extraction frequency bins (compatibility)")
	fs.Float64("audio-power", defaults.Audio.Power, "Extraction spectrogram power (compatibility)")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := bindFlags(v, opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	v.SetEnvPrefix("WORLDPREP")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("worldprep")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("dataset.csv_file", c.Dataset.CSVFile)
	v.SetDefault("dataset.root_dir", c.Dataset.RootDir)
	v.SetDefault("dataset.min_seq_len", c.Dataset.MinSeqLen)
	v.SetDefault("batch.outputs_per_step", c.Batch.OutputsPerStep)
	v.SetDefault("batch.size", c.Batch.Size)
	v.SetDefault("text.cleaner", c.Text.Cleaner)
	v.SetDefault("text.sentencepiece_model", c.Text.SentencePieceModel)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("audio.num_mels", c.Audio.NumMels)
	v.SetDefault("audio.min_level_db", c.Audio.MinLevelDB)
	v.SetDefault("audio.frame_shift_ms", c.Audio.FrameShiftMS)
	v.SetDefault("audio.frame_length_ms", c.Audio.FrameLengthMS)
	v.SetDefault("audio.preemphasis", c.Audio.Preemphasis)
	v.SetDefault("audio.ref_level_db", c.Audio.RefLevelDB)
	v.SetDefault("audio.num_freq", c.Audio.NumFreq)
	v.SetDefault("audio.power", c.Audio.Power)
	v.SetDefault("log_level", c.LogLevel)
}

// flagKeys maps each nested config key to the flag that can override it.
var flagKeys = map[string]string{
	"dataset.csv_file":         "dataset-csv-file",
	"dataset.root_dir":         "dataset-root-dir",
	"dataset.min_seq_len":      "dataset-min-seq-len",
	"batch.outputs_per_step":   "batch-outputs-per-step",
	"batch.size":               "batch-size",
	"text.cleaner":             "text-cleaner",
	"text.sentencepiece_model": "text-sentencepiece-model",
	"audio.sample_rate":        "audio-sample-rate",
	"audio.num_mels":           "audio-num-mels",
	"audio.min_level_db":       "audio-min-level-db",
	"audio.frame_shift_ms":     "audio-frame-shift-ms",
	"audio.frame_length_ms":    "audio-frame-length-ms",
	"audio.preemphasis":        "audio-preemphasis",
	"audio.ref_level_db":       "audio-ref-level-db",
	"audio.num_freq":           "audio-num-freq",
	"audio.power":              "audio-power",
	"log_level":                "log-level",
}

// bindFlags binds each flag to its nested key. Binding (instead of aliasing
// the keys to the flag names) keeps viper defaults and config-file values
// visible under the nested keys when a flag was not set on the command line.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for key, name := range flagKeys {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}

		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}
