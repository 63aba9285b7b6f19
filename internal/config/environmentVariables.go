package config

import (
	"log/slog"
	"time"
)

const (
	IS_PROD        = false
	LOG_LEVEL_PROD = slog.LevelInfo
	TRACE_ID_KEY   = "traceId"

	RATE_LIMIT_PER_SECOND       = 2
	BURST_RATE_LIMIT_PER_SECOND = 5

	RequestsPerNewWorkerCount int64 = 10
	MaxWorkerCount            int64 = 10
	MinWorkerCount            int64 = 1
	IdleWorkerTimeout               = 1 * time.Minute
	SubmissionTimeout               = 90 * time.Second

	//serverTimeouts
	ReadTimeout            = 5 * time.Second
	WriteTimeout           = 30 * time.Second
	IdleTimeout            = 120 * time.Second
	ShutdownContextTimeout = 10 * time.Second

	//server listening port
	ServerListenAddr = ":3000"

	//submission buffer limit
	BufferLimit = 100

	//llm
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
	GeminiModelName   = "gemini-3-flash-preview"
	LLMTimeout        = 60 * time.Second

	//router: consecutive silent fallbacks before a degraded warning
	RouterDegradedThreshold = 3

	//documents
	DocumentRoot     = "./public"
	DocumentCacheTTL = 30 * time.Minute
	DocumentMaxBytes = 50 << 20

	MaxIdleConns        = 50
	MaxIdleConnsPerHost = 25
	IdleConnTimeout     = 60 * time.Second

	//redis
	redisHost = "127.0.0.1"
	redisPort = "6379"
	RedisAddr = redisHost + ":" + redisPort

	//redis has 16 DB we can use
	RedisSubmissionStore = 0
	RedisMessageStore    = 1

	RedisSubmissionStoreTTL = 24 * time.Hour
	RedisMessageStoreTTL    = 24 * time.Hour

	EnvPrefix = "SECOURSTECH_"
)
