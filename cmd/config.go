package main

import "time"

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,required=true"`

	KVBackend      string `env:"KV_BACKEND,default=badger"`
	BadgerFilepath string `env:"BADGER_FILEPATH,default=./data/badger"`
	RedisAddr      string `env:"REDIS_ADDR,default=localhost:6379"`
	BlugeFilepath  string `env:"BLUGE_FILEPATH,required=true"`

	ModerationFailMode   string `env:"MODERATION_FAIL_MODE,required=true"`
	EnforcePostingWindow bool   `env:"ENFORCE_POSTING_WINDOW,default=true"`

	AdminPasswordHash  string        `env:"ADMIN_PASSWORD_HASH,required=true"`
	AdminTokenSecret   string        `env:"ADMIN_TOKEN_SECRET,required=true"`
	AdminTokenDuration time.Duration `env:"ADMIN_TOKEN_DURATION,default=1h"`

	DebugPort int `env:"DEBUG_PORT,default=8081"`
}
