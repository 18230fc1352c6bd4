package config

const (
	defaultConfigPath          = "~/.config/hebrewtutor/config.toml"
	projectConfigName          = "hebrewtutor.toml"
	historyFileName            = "alignment.db"
	defaultAPIBind             = "127.0.0.1:7488"
	defaultPythonBinary        = "python3"
	defaultAlignmentLanguage   = "heb"
	defaultAlignmentTimeout    = 900
	defaultMaxConcurrent       = 1
	defaultPlaceholderSeconds  = 0.1
	defaultSimilarityThreshold = 0.35
	defaultTranscriptionModel  = "large-v3"
	defaultTranscriptionLang   = "he"
	defaultAudioExtension      = "mp3"
	defaultAudioPrefix         = "t"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults. Directories
// left empty are derived from the data directory during normalization.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir(),
			APIBind: defaultAPIBind,
		},
		Alignment: Alignment{
			PythonBinary:        defaultPythonBinary,
			Language:            defaultAlignmentLanguage,
			TimeoutSeconds:      defaultAlignmentTimeout,
			MaxConcurrent:       defaultMaxConcurrent,
			PlaceholderSeconds:  defaultPlaceholderSeconds,
			SimilarityThreshold: defaultSimilarityThreshold,
		},
		Transcription: Transcription{
			Model:    defaultTranscriptionModel,
			Language: defaultTranscriptionLang,
		},
		Audio: Audio{
			Extension: defaultAudioExtension,
			Prefix:    defaultAudioPrefix,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
