package config

import (
	"os"
	"path/filepath"
)

// GetDataDir returns the directory holding history, credentials and settings:
// ANIMVID_DATA_DIR, or "./data". The environment is read on every call so
// tests can point it at a temp dir.
func GetDataDir() string {
	if dir := os.Getenv("ANIMVID_DATA_DIR"); dir != "" {
		return dir
	}
	return "./data"
}

// GetHistoryDBPath returns the path of the job history database.
// Path: {data dir}/history.db
func GetHistoryDBPath() string {
	return filepath.Join(GetDataDir(), "history.db")
}

// GetCredentialsDBPath returns the full path to the credentials database.
// Publishing destinations reference entries in it by key.
// Path: {data dir}/credentials.db
func GetCredentialsDBPath() string {
	return filepath.Join(GetDataDir(), "credentials.db")
}

// GetSettingsPath returns the persisted settings file.
// ANIMVID_SETTINGS overrides the default {data dir}/settings.toml.
func GetSettingsPath() string {
	if p := os.Getenv("ANIMVID_SETTINGS"); p != "" {
		return p
	}
	return filepath.Join(GetDataDir(), "settings.toml")
}

// GetDirectServeBaseDir returns the base directory for the directServe destination.
// Configurable via ANIMVID_SERVE_DIR for server administrators, not by job requests.
// Defaults to "./serve".
func GetDirectServeBaseDir() string {
	if dir := os.Getenv("ANIMVID_SERVE_DIR"); dir != "" {
		return dir
	}
	return "./serve"
}

// GetListenAddr returns the HTTP listen address for `animvid serve`.
func GetListenAddr() string {
	if addr := os.Getenv("ANIMVID_LISTEN_ADDR"); addr != "" {
		return addr
	}
	return ":8080"
}

// GetJWTSecret returns the HS256 secret used to verify convert requests.
// Empty means the convert endpoint rejects every request.
func GetJWTSecret() []byte {
	return []byte(os.Getenv("ANIMVID_JWT_SECRET"))
}

// GetFFmpegBinary returns the ffmpeg executable name or path.
func GetFFmpegBinary() string {
	if bin := os.Getenv("ANIMVID_FFMPEG"); bin != "" {
		return bin
	}
	return "ffmpeg"
}
