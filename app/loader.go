package app

import (
	"fmt"
	"net/url"
	"sync"

	"github.com/pkg/errors"
)

var (
	ctrMu sync.Mutex
	ctrs  = make(map[string]FileLoaderCtr)
)

// RegisterFileLoaderCtor registers a FileLoader constructor for the specified
// scheme.
func RegisterFileLoaderCtor(scheme string, ctr FileLoaderCtr) {
	ctrMu.Lock()
	defer ctrMu.Unlock()

	if _, exists := ctrs[scheme]; exists {
		panic(fmt.Sprintf("FileLoader already registered for scheme '%s'", scheme))
	}

	ctrs[scheme] = ctr
}

// FileLoaderCtr constructs a FileLoader.
type FileLoaderCtr func() (FileLoader, error)

// FileLoader loads files at a specified URL.
type FileLoader interface {
	Load(url *url.URL) ([]byte, error)
}

// LoadFile loads a file at the specified URL using the corresponding
// registered FileLoader. If no scheme is specified, LocalLoader is used.
//
// Keypairs, such as the validator identity, and TLS material are loaded
// through LoadFile.
func LoadFile(fileURL string) ([]byte, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file url %s", fileURL)
	}

	ctrMu.Lock()
	ctr, exists := ctrs[u.Scheme]
	ctrMu.Unlock()

	if !exists {
		return nil, errors.Errorf("no file loader for '%s'", u.Scheme)
	}

	l, err := ctr()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get loader for '%s'", fileURL)
	}

	return l.Load(u)
}
