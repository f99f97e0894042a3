package app

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path"
	"testing"
	"time"

	"github.com/ory/dockertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	s3test "github.com/rentchain/rentchain-go/aws/s3/test"
)

func writeTempFile(t *testing.T, contents []byte) string {
	f, err := ioutil.TempFile("", "file_loader")
	require.NoError(t, err)

	_, err = f.Write(contents)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	return f.Name()
}

func TestLocalLoader(t *testing.T) {
	name := writeTempFile(t, []byte("hello"))
	defer os.Remove(name)

	var loader LocalLoader

	for _, u := range []string{
		name,                           // /tmp/file
		fmt.Sprintf("file://%s", name), // file:///tmp/file
		fmt.Sprintf("file://%s", path.Join("localhost/", name)), // file://localhost/tmp/file
	} {
		contents, err := loader.Load(getURL(t, u))
		assert.NoError(t, err, "failed to load %s", u)
		assert.Equal(t, []byte("hello"), contents)
	}

	_, err := loader.Load(getURL(t, name+".missing"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	name := writeTempFile(t, []byte("[1,2,3]"))
	defer os.Remove(name)

	contents, err := LoadFile(name)
	require.NoError(t, err)
	assert.Equal(t, []byte("[1,2,3]"), contents)

	contents, err = LoadFile("file://" + name)
	require.NoError(t, err)
	assert.Equal(t, []byte("[1,2,3]"), contents)

	_, err = LoadFile("gs://bucket/key")
	assert.Error(t, err)

	_, err = LoadFile("://")
	assert.Error(t, err)
}

func TestRegisterFileLoaderCtor_Duplicate(t *testing.T) {
	assert.Panics(t, func() {
		RegisterFileLoaderCtor("file", func() (FileLoader, error) {
			return &LocalLoader{}, nil
		})
	})
}

func TestS3Loader(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker based test in short mode")
	}

	pool, err := dockertest.NewPool("")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, cleanupFunc, err := s3test.StartS3(ctx, pool)
	require.NoError(t, err)
	defer cleanupFunc()

	l := NewS3Loader(client)

	_, err = l.Load(getURL(t, "s3://bucket/keys/identity.json"))
	assert.NotNil(t, err)

	require.NoError(t, s3test.PutFile(ctx, client, "bucket", "keys/identity.json", []byte("hello")))

	contents, err := l.Load(getURL(t, "s3://bucket/keys/identity.json"))
	assert.NoError(t, err)
	assert.Equal(t, []byte("hello"), contents)
}

func TestS3Loader_BadURL(t *testing.T) {
	l := S3Loader{}

	for _, u := range []string{
		"file:///file",
		"bucket/ket",
		"s3://bucket",
		"s3://bucket/",
		"s3:///my/key",
	} {
		_, err := l.Load(getURL(t, u))
		assert.NotNil(t, err, "expected url to fail: %s", u)
	}
}

func getURL(t *testing.T, u string) *url.URL {
	url, err := url.Parse(u)
	require.NoError(t, err)

	return url
}
