package errs

var suggestions = map[Code][]string{
	CodeFileMissing: {
		"Check that the path is spelled correctly",
	},
	CodeFileNotLocal: {
		"Download the file first and open the local copy",
	},
	CodeFileNotRegular: {
		"Point reel at a media file rather than a directory",
	},
	CodeFileEmpty: {
		"The file has no content; it may still be downloading",
	},
	CodeFileTooLarge: {
		"Raise media.max_size_mb if you trust this file",
		"Split or re-encode the file into smaller parts",
	},
	CodeFileUnreadable: {
		"Check the file permissions",
	},
	CodeAborted: {
		"Try again; loading was interrupted",
	},
	CodeNetwork: {
		"Make sure nothing blocks connections to 127.0.0.1",
		"Try again in a moment",
	},
	CodeDecode: {
		"The file may be corrupted; try re-downloading it",
		"Try the other backend",
	},
	CodeUnsupportedFormat: {
		"Try the other backend",
		"Convert the file to a widely supported format such as MP4 (H.264/AAC)",
	},
	CodeLibrary: {
		"Make sure the backend is installed and on your PATH (run: reel check)",
		"Try the other backend",
	},
	CodeInit: {
		"Try again",
		"Try the other backend",
	},
	CodeUnsupportedBackend: {
		"Use one of: mpv, vlc",
	},
}
