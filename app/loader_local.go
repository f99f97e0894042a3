package app

import (
	"io/ioutil"
	"net/url"

	"github.com/pkg/errors"
)

// LocalLoader is a FileLoader that loads file from the local filesystem.
type LocalLoader struct{}

// Load implements FileLoader.Load.
func (l LocalLoader) Load(url *url.URL) ([]byte, error) {
	if url.Path == "" {
		return nil, errors.New("missing path")
	}

	b, err := ioutil.ReadFile(url.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", url.Path)
	}

	return b, nil
}

func init() {
	ctr := func() (FileLoader, error) {
		return &LocalLoader{}, nil
	}

	RegisterFileLoaderCtor("", ctr)
	RegisterFileLoaderCtor("file", ctr)
}
