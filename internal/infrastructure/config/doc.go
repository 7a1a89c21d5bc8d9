// Package config provides 12-factor configuration for the file manager.
//
// Configuration is loaded from environment variables with defaults declared
// in struct tags. CLI flags override the loaded values.
//
// Configuration Sections:
//   - Server: listen address and shutdown grace period
//   - Storage: sandbox root, credential file, hidden globs and size ceilings
//   - Auth: bcrypt work factor
//   - Session: lifetime, sweep interval and cookie attributes
//   - CORS: allowed origins (empty disables CORS)
//   - Logging: level and output format
//
// Example Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Storage.UsersFilePath())
//
// Environment Variables:
//   - PORT, HOST, SHUTDOWN_TIMEOUT
//   - STORAGE_ROOT, STORAGE_USERS_FILE, STORAGE_HIDDEN, SANDBOX_STRICT_SYMLINKS
//   - MAX_UPLOAD_SIZE, PREVIEW_MAX_SIZE
//   - BCRYPT_COST
//   - SESSION_TTL, SESSION_SWEEP_INTERVAL, SESSION_COOKIE, COOKIE_SECURE
//   - CORS_ORIGINS
//   - LOG_LEVEL, LOG_DEV
package config
