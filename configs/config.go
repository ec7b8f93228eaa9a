package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	AyrshareBaseURL  string
	AyrshareAPIKey   string
	MultiProfileMode bool
	PostgresURI      string
	RedisURI         string
	FrontendURL      string
	R2               R2
	SecretKey        string
	CookieName       string
}

func LoadConfig() *Config {
	return &Config{
		AyrshareBaseURL:  getEnv("AYRSHARE_BASE_URL", "https://app.ayrshare.com/api"),
		AyrshareAPIKey:   getEnv("AYRSHARE_API_KEY", ""),
		MultiProfileMode: getEnv("AYRSHARE_MULTI_PROFILE", "") == "true",
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "127.0.0.1:6379"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "crosswire_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
