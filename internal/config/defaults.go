package config

const (
	defaultWorkDir             = "."
	defaultLogDir              = "~/.local/share/bdetect/logs"
	defaultModelPath           = "bdetectionmodel_05_01_23.onnx"
	defaultSampleRate          = 32000
	defaultBatchSize           = 960000
	defaultPrecision           = 100
	defaultThreshold           = 20
	defaultAudioFormat         = "bestaudio[ext=m4a]/bestaudio"
	defaultConcurrentFragments = 20
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Detector: Detector{
			ModelPath:  defaultModelPath,
			SampleRate: defaultSampleRate,
			BatchSize:  defaultBatchSize,
			Precision:  defaultPrecision,
			Threshold:  defaultThreshold,
		},
		Fetch: Fetch{
			AudioFormat:         defaultAudioFormat,
			ConcurrentFragments: defaultConcurrentFragments,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
