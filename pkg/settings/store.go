package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
)

// Key names a setting.
type Key string

// Known settings.
const (
	DestinationAddress Key = "destination_address"
	FriendlyName       Key = "friendly_name"
	SilentNotification Key = "silent_notification"
	LoginPIN           Key = "login_pin"
	LoginName          Key = "login_name"
)

// Keys lists the known settings in display order.
var Keys = []Key{DestinationAddress, FriendlyName, SilentNotification, LoginPIN, LoginName}

// ErrUnknownKey is returned by SetString for keys not in Keys.
var ErrUnknownKey = errors.New("unknown setting")

// WatchFunc is called with the previous and new value of a key.
type WatchFunc func(old, new string)

type watcher struct {
	id int
	fn WatchFunc
}

// Store holds the current settings.
type Store struct {
	mu       sync.Mutex
	values   map[Key]string
	watchers map[Key][]watcher
	nextID   int

	saveMu sync.Mutex
	file   *FileStore
	logger *slog.Logger
}

// Config configures a Store.
type Config struct {
	// File persists values. Nil keeps them in memory only.
	File *FileStore

	// Defaults seed keys absent from the file.
	Defaults map[Key]string

	Logger *slog.Logger
}

// Open creates a Store and loads the file, if any.
func Open(cfg Config) (*Store, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Store{
		values:   make(map[Key]string),
		watchers: make(map[Key][]watcher),
		file:     cfg.File,
		logger:   logger,
	}
	for k, v := range cfg.Defaults {
		s.values[k] = v
	}

	if cfg.File != nil {
		loaded, err := cfg.File.Load()
		if err != nil {
			return nil, fmt.Errorf("load settings: %w", err)
		}
		for k, v := range loaded {
			s.values[Key(k)] = v
		}
	}
	return s, nil
}

// NewMemoryStore creates an unpersisted store.
func NewMemoryStore(initial map[Key]string) *Store {
	s, _ := Open(Config{Defaults: initial})
	return s
}

// String returns the value of key, or "" when unset.
func (s *Store) String(key Key) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// Bool parses the value of key as a boolean; unset or invalid is false.
func (s *Store) Bool(key Key) bool {
	b, _ := strconv.ParseBool(s.String(key))
	return b
}

// All returns a copy of every set value.
func (s *Store) All() map[Key]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[Key]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Set stores value under key, persists, and notifies watchers when the
// value changed. A persistence failure is returned after the in-memory
// value and watchers have been updated.
func (s *Store) Set(key Key, value string) error {
	s.mu.Lock()
	old, had := s.values[key]
	if had && old == value {
		s.mu.Unlock()
		return nil
	}
	s.values[key] = value
	ws := append([]watcher(nil), s.watchers[key]...)
	s.mu.Unlock()

	err := s.save()
	if err != nil {
		s.logger.Warn("settings not saved", "key", string(key), "error", err)
	}

	for _, w := range ws {
		w.fn(old, value)
	}
	return err
}

// SetBool stores a boolean.
func (s *Store) SetBool(key Key, v bool) error {
	return s.Set(key, strconv.FormatBool(v))
}

// SetString is Set restricted to known keys, for user input.
func (s *Store) SetString(key, value string) error {
	for _, k := range Keys {
		if string(k) == key {
			return s.Set(k, value)
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

// Watch registers fn for changes to key. It returns a function that
// removes the registration.
func (s *Store) Watch(key Key, fn WatchFunc) (stop func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.watchers[key] = append(s.watchers[key], watcher{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ws := s.watchers[key]
		for i, w := range ws {
			if w.id == id {
				s.watchers[key] = append(ws[:i:i], ws[i+1:]...)
				return
			}
		}
	}
}

// save writes the current values. Saves are serialized and each takes
// a fresh snapshot, so the last save always holds the latest values.
func (s *Store) save() error {
	if s.file == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	snapshot := make(map[string]string, len(s.values))
	for k, v := range s.values {
		snapshot[string(k)] = v
	}
	s.mu.Unlock()

	if err := s.file.Save(snapshot); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
