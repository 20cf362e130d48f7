package dataset

import (
	"github.com/fsnotify/fsnotify"

	"schoolpulse/internal/config"
)

func fsnotifyEvent(path string) fsnotify.Event {
	return fsnotify.Event{Name: path, Op: fsnotify.Write}
}

func sourceAt(path string) config.Source {
	return config.Source{Year: 2022, Path: path}
}
