package config

const (
	defaultConfigPath            = "~/.config/animebot/config.toml"
	defaultStateDir              = "~/.local/share/animebot"
	defaultLogDir                = "~/.local/share/animebot/logs"
	defaultAniListEndpoint       = "https://graphql.anilist.co"
	defaultAniListUserAgent      = "animebot/0.1"
	defaultAniListTimeoutSeconds = 10
	defaultCacheTopN             = 500
	defaultCachePerPage          = 50
	defaultCacheFreshnessSeconds = 600
	defaultCachePageDelayMillis  = 200
	defaultCacheSuggestionLimit  = 25
	defaultAPIBind               = "127.0.0.1:7488"
	defaultNotifyRequestTimeout  = 10
	defaultTracingEndpoint       = "localhost:4318"
	defaultTracingServiceName    = "animebot"
	defaultTracingSampleRate     = 1.0
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		AniList: AniList{
			Endpoint:              defaultAniListEndpoint,
			UserAgent:             defaultAniListUserAgent,
			RequestTimeoutSeconds: defaultAniListTimeoutSeconds,
		},
		Cache: Cache{
			TopN:             defaultCacheTopN,
			PerPage:          defaultCachePerPage,
			FreshnessSeconds: defaultCacheFreshnessSeconds,
			PageDelayMillis:  defaultCachePageDelayMillis,
			SuggestionLimit:  defaultCacheSuggestionLimit,
			SnapshotEnabled:  true,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Notifications: Notifications{
			RequestTimeout:  defaultNotifyRequestTimeout,
			RefreshFailures: true,
		},
		Tracing: Tracing{
			Endpoint:    defaultTracingEndpoint,
			ServiceName: defaultTracingServiceName,
			SampleRate:  defaultTracingSampleRate,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
