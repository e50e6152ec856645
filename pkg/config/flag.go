package config

import (
	"errors"
	"io/fs"
)

// Flag is a flag.Value that loads the configuration file it is set to.
type Flag struct {
	File   string
	Config *Configuration
	IsSet  bool
}

// NewFlag loads the default configuration file into cfg and returns a flag to override it.
// A missing default file is not an error.
func NewFlag(defaultFile string, cfg *Configuration) (*Flag, error) {
	f := &Flag{File: defaultFile, Config: cfg}

	c, err := FromFile(defaultFile)
	*cfg = c

	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return f, err
	}

	return f, nil
}

func (f *Flag) Set(path string) error {
	cfg, err := FromFile(path)
	if err != nil {
		return err
	}

	f.File = path
	*f.Config = cfg
	f.IsSet = true

	return nil
}

func (f *Flag) String() string {
	return f.File
}
