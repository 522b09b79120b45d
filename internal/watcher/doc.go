// Package watcher feeds transcripts dropped into an inbox directory to the
// analysis pipeline. Only create events for .json files are considered and
// each file is processed once, sequentially, after a short settle delay.
package watcher
