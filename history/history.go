// Package history remembers which backend last played each file, keyed by file identity.
package history

import (
	"sort"

	"github.com/metafates/gache"
	"github.com/reel-cli/reel/filesystem"
	"github.com/reel-cli/reel/media"
	"github.com/reel-cli/reel/player"
	"github.com/reel-cli/reel/where"
	"github.com/samber/mo"
)

// Limit caps the number of remembered files. The oldest entries are dropped first.
const Limit = 500

var cacher = gache.New[map[string]*Entry](
	&gache.Options{
		Path:       where.History(),
		FileSystem: &filesystem.GacheFs{},
	},
)

// Get returns every remembered entry keyed by file identity.
func Get() (map[string]*Entry, error) {
	cached, expired, err := cacher.Get()
	if err != nil {
		return nil, err
	}
	if expired || cached == nil {
		return make(map[string]*Entry), nil
	}
	return cached, nil
}

// Remember records kind as the backend that played file.
func Remember(file *media.File, kind player.Kind) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	saved[file.Identity().String()] = newEntry(file, kind)
	prune(saved)

	return cacher.Set(saved)
}

// Backend returns the remembered backend for file. A modified file is a different file.
func Backend(file *media.File) mo.Option[player.Kind] {
	saved, err := Get()
	if err != nil {
		return mo.None[player.Kind]()
	}

	entry, ok := saved[file.Identity().String()]
	if !ok {
		return mo.None[player.Kind]()
	}

	kind, err := player.ParseKind(entry.Backend)
	if err != nil {
		return mo.None[player.Kind]()
	}
	return mo.Some(kind)
}

// Forget removes the entry for file.
func Forget(file *media.File) error {
	saved, err := Get()
	if err != nil {
		return err
	}

	delete(saved, file.Identity().String())
	return cacher.Set(saved)
}

// Clear removes every entry.
func Clear() error {
	return cacher.Set(make(map[string]*Entry))
}

func prune(saved map[string]*Entry) {
	if len(saved) <= Limit {
		return
	}

	keys := make([]string, 0, len(saved))
	for k := range saved {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return saved[keys[i]].PlayedAt.Before(saved[keys[j]].PlayedAt)
	})

	for _, k := range keys[:len(keys)-Limit] {
		delete(saved, k)
	}
}
