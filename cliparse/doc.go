// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p             PORT                (default 3318)
	-d             DATABASE_URL        (required)
	-t             DATABASE_TYPE       sqlite or postgres (default sqlite)
	-gate-secret   GATE_SECRET         (required)
	-pattern-hash  PATTERN_HASH        bcrypt hash of the unlock pattern (required)
	-tz            TIMEZONE            IANA name (default Local)
	-recompute     RECOMPUTE_SCHEDULE  cron spec with seconds (default "0 5 0 * * *")
	-log-level     LOG_LEVEL
	-log-path      LOG_PATH
	               UNLOCK_PER_MINUTE   unlock attempts per IP (default 10)
	               IFTTT_KEY, IFTTT_BASE_URL

CLI flags take precedence over environment variables. Variables from the file
named by -env-file (default .env) are loaded first but never override values
already present in the environment.
*/
package cliparse
