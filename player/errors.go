package player

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/reel-cli/reel/engine/mpv"
	"github.com/reel-cli/reel/engine/vlc"
	"github.com/reel-cli/reel/errs"
	"github.com/samber/lo"
)

// class is the engine independent failure class both taxonomies reduce to.
type class int

const (
	classInit class = iota
	classAborted
	classNetwork
	classDecode
	classUnsupported
	classLibrary
)

// translate builds the PlayerError for a failure class.
func translate(kind Kind, c class, detail string, cause error) *errs.Error {
	name := kind.Display()

	switch c {
	case classAborted:
		return errs.NewPlayer(errs.CodeAborted, "Video loading was aborted", true, cause)
	case classNetwork:
		return errs.NewPlayer(errs.CodeNetwork, "Network error occurred while loading video", true, cause)
	case classDecode:
		return errs.NewPlayer(errs.CodeDecode, "Video decoding error", true, cause)
	case classUnsupported:
		return errs.NewPlayer(errs.CodeUnsupportedFormat, "Video format not supported by "+name, false, cause)
	case classLibrary:
		return errs.NewPlayer(errs.CodeLibrary, fmt.Sprintf("%s library error: %s", name, detail), true, cause)
	default:
		return errs.NewPlayer(errs.CodeInit, fmt.Sprintf("%s error: %s", name, detail), true, cause)
	}
}

// missingLibrary reports failures to load the engine binary or its shared libraries.
func missingLibrary(err error) bool {
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return true
	}
	return strings.Contains(err.Error(), "error while loading shared libraries")
}

func aborted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// mpvReasons maps mpv's file_error strings to failure classes.
var mpvReasons = map[string]class{
	mpv.ReasonAborted:                    classAborted,
	"loading failed":                     classNetwork,
	"no audio or video data played":      classDecode,
	"audio output initialization failed": classDecode,
	"video output initialization failed": classDecode,
	"unrecognized file format":           classUnsupported,
	"unsupported":                        classUnsupported,
}

// TranslateMPV converts an mpv failure into a PlayerError.
func TranslateMPV(err error) *errs.Error {
	return translateWith(MPV, err, func(err error) (class, string) {
		var e *mpv.Error
		if !errors.As(err, &e) {
			return classInit, err.Error()
		}

		if e.Reason == mpv.ReasonSpawn && e.Err != nil && missingLibrary(e.Err) {
			return classLibrary, e.Err.Error()
		}

		c, ok := mpvReasons[strings.ToLower(e.Reason)]
		if !ok {
			c = classInit
		}
		return c, strings.TrimPrefix(e.Error(), "mpv: ")
	})
}

// vlcCodes maps VLC's numeric error codes to failure classes.
var vlcCodes = map[int]class{
	vlc.CodeAborted:     classAborted,
	vlc.CodeNetwork:     classNetwork,
	vlc.CodeDecode:      classDecode,
	vlc.CodeUnsupported: classUnsupported,
}

// TranslateVLC converts a VLC failure into a PlayerError.
func TranslateVLC(err error) *errs.Error {
	return translateWith(VLC, err, func(err error) (class, string) {
		var e *vlc.Error
		if !errors.As(err, &e) {
			return classInit, err.Error()
		}

		if e.Code == vlc.CodeNone && e.Err != nil && missingLibrary(e.Err) {
			return classLibrary, e.Err.Error()
		}

		c, ok := vlcCodes[e.Code]
		if !ok {
			c = classInit
		}

		detail := e.Message
		if detail == "" && e.Err != nil {
			detail = e.Err.Error()
		}
		return c, detail
	})
}

// Translate converts any failure from kind's engine into a PlayerError.
func Translate(kind Kind, err error) *errs.Error {
	if kind == VLC {
		return TranslateVLC(err)
	}
	return TranslateMPV(err)
}

func translateWith(kind Kind, err error, classify func(error) (class, string)) *errs.Error {
	if err == nil {
		return nil
	}

	if e, ok := errs.As(err); ok {
		return e
	}

	if missingLibrary(err) {
		return translate(kind, classLibrary, err.Error(), err)
	}

	c, detail := classify(err)
	if c == classInit && aborted(err) {
		c = classAborted
	}

	return translate(kind, c, detail, err)
}

// formats lists the container extensions each backend claims to play.
var formats = map[Kind][]string{
	MPV: {
		"3gp", "aac", "avi", "flac", "flv", "m2ts", "m4a", "m4v", "mkv", "mov", "mp3", "mp4",
		"mpeg", "mpg", "ogg", "ogv", "opus", "ts", "wav", "webm", "wmv",
	},
	VLC: {
		"3gp", "aac", "asf", "avi", "divx", "flac", "flv", "iso", "m2ts", "m4a", "m4v", "mkv",
		"mov", "mp3", "mp4", "mpeg", "mpg", "mxf", "ogg", "ogv", "opus", "rm", "rmvb", "ts",
		"vob", "wav", "webm", "wmv",
	},
}

// Claims reports whether kind declares support for the file extension ext (with or without the dot).
func (k Kind) Claims(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	return lo.Contains(formats[k], ext)
}
