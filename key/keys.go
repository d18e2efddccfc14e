// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Media Acceptance - these keys govern which local files may be turned into playback handles.
const (
	MediaMaxSizeMB = "media.max_size_mb"
)

// Resource Handles - these keys configure the loopback server that exposes mapped files to the engines.
const (
	HandleListen = "handle.listen"
)

// Media Playback - these keys select and tune the playback engines.
const (
	Player                 = "player.default"
	PlayerReadyTimeout     = "player.ready_timeout"
	PlayerRetryMax         = "player.retry.max"
	PlayerRetryDelayMs     = "player.retry.delay_ms"
	PlayerFallbackPrecheck = "player.fallback_precheck"
	PlayerAutoplay         = "player.autoplay"
	PlayerVolume           = "player.volume"
	PlayerControls         = "player.controls"
	PlayerMPVPath          = "player.mpv.path"
	PlayerVLCPath          = "player.vlc.path"
)

// History Tracking - these keys configure the per-file backend memory.
const (
	HistoryRememberBackend = "history.remember_backend"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
