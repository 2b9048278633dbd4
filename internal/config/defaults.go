package config

const (
	defaultWorkspaceDir            = ""
	defaultStateDir                = "~/.local/share/systemqa"
	defaultLogDir                  = "~/.local/share/systemqa/logs"
	defaultHealthBind              = "127.0.0.1:7488"
	defaultAWSRegion               = "ap-northeast-1"
	defaultQueueWaitSeconds        = 20
	defaultQueueVisibilityTimeout  = 900
	defaultQueueMaxMessages        = 1
	defaultGeminiModel             = "gemini-1.5-pro"
	defaultGeminiTimeoutSeconds    = 120
	defaultGeminiMaxOutputTokens   = 500
	defaultFFmpegBinary            = "ffmpeg"
	defaultFFprobeBinary           = "ffprobe"
	defaultFFmpegTimeoutSeconds    = 120
	defaultWorkerListeners         = 1
	defaultWorkerHeartbeatInterval = 30
	defaultWorkerLeaseTimeout      = 600
	defaultWorkerReapInterval      = 60
	defaultStaleWorkspaceHours     = 24
	defaultNtfyRequestTimeout      = 10
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
	defaultLogRetentionDays        = 14
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			StateDir:     defaultStateDir,
			LogDir:       defaultLogDir,
			HealthBind:   defaultHealthBind,
		},
		AWS: AWS{
			Region: defaultAWSRegion,
		},
		Queue: Queue{
			WaitSeconds:       defaultQueueWaitSeconds,
			VisibilityTimeout: defaultQueueVisibilityTimeout,
			MaxMessages:       defaultQueueMaxMessages,
		},
		Gemini: Gemini{
			Model:           defaultGeminiModel,
			TimeoutSeconds:  defaultGeminiTimeoutSeconds,
			MaxOutputTokens: defaultGeminiMaxOutputTokens,
		},
		FFmpeg: FFmpeg{
			Binary:         defaultFFmpegBinary,
			FFprobeBinary:  defaultFFprobeBinary,
			TimeoutSeconds: defaultFFmpegTimeoutSeconds,
		},
		Worker: Worker{
			Listeners:           defaultWorkerListeners,
			HeartbeatInterval:   defaultWorkerHeartbeatInterval,
			LeaseTimeout:        defaultWorkerLeaseTimeout,
			ReapInterval:        defaultWorkerReapInterval,
			StaleWorkspaceHours: defaultStaleWorkspaceHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Failures:       true,
			Reclaims:       true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,

			RetentionDays: defaultLogRetentionDays,
		},
	}
}
