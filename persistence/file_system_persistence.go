package persistence

import (
	"encoding/json"
	"os"
	"path"

	"github.com/jrsteele09/go-browserstore/kvstore"
	"github.com/pkg/errors"
)

const (
	metaDataFilename = "metadata.json"
	dataFilename     = "data.bin"
	fileMode         = 0700
)

// Filesystem is responsible for persisting key-values to a filesystem.
// It uses folders as keys and files within those folders as values.
// All access goes through an os.Root so keys can never escape the folder.
type Filesystem struct {
	folder string
	rootFS *os.Root
}

// New creates the folder when needed and opens a Filesystem persister rooted at it.
func New(folder string) (*Filesystem, error) {
	if err := os.MkdirAll(folder, fileMode); err != nil {
		return nil, errors.Wrap(err, "New: MkdirAll")
	}
	root, err := os.OpenRoot(folder)
	if err != nil {
		return nil, errors.Wrap(err, "New: OpenRoot")
	}
	return &Filesystem{folder: folder, rootFS: root}, nil
}

// Folder returns the directory the persister writes to.
func (fs *Filesystem) Folder() string {
	return fs.folder
}

// Close releases the root handle. Every operation after Close fails.
func (fs *Filesystem) Close() {
	_ = fs.rootFS.Close()
}

// Keys returns a list of keys available in the folder.
func (fs *Filesystem) Keys() ([]string, error) {
	dir, err := fs.rootFS.Open(".")
	if err != nil {
		return nil, errors.Wrap(err, "Keys: Open")
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		return nil, errors.Wrap(err, "Keys: ReadDir")
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			keys = append(keys, entry.Name())
		}
	}
	return keys, nil
}

// Write writes the ValueItem to the folder specified by the key.
func (fs *Filesystem) Write(key string, data *kvstore.ValueItem) error {
	if !kvstore.KeyValid(key) {
		return kvstore.ErrKeyInvalid
	}
	if err := fs.rootFS.MkdirAll(key, fileMode); err != nil {
		return errors.Wrap(err, "Write: MkdirAll")
	}

	serializedData, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "Write: Marshal")
	}

	if data.Data != nil {
		if err := fs.rootFS.WriteFile(path.Join(key, dataFilename), data.Data, fileMode); err != nil {
			return errors.Wrap(err, "Write: WriteFile data")
		}
	}

	// Metadata last: a folder with metadata always has its data file.
	if err := fs.rootFS.WriteFile(path.Join(key, metaDataFilename), serializedData, fileMode); err != nil {
		return errors.Wrap(err, "Write: WriteFile metadata")
	}
	return nil
}

// Delete removes the folder specified by the key.
func (fs *Filesystem) Delete(key string) error {
	if !kvstore.KeyValid(key) {
		return kvstore.ErrKeyInvalid
	}
	if err := fs.rootFS.RemoveAll(key); err != nil {
		return errors.Wrap(err, "Delete: RemoveAll")
	}
	return nil
}

// Read retrieves the ValueItem identified by the key.
func (fs *Filesystem) Read(key string, readValue bool) (*kvstore.ValueItem, error) {
	if !kvstore.KeyValid(key) {
		return nil, kvstore.ErrKeyInvalid
	}

	metaData, err := fs.rootFS.ReadFile(path.Join(key, metaDataFilename))
	if err != nil {
		return nil, errors.Wrap(notFound(err), "Read: ReadFile metadata")
	}

	var valueItem kvstore.ValueItem
	if err := json.Unmarshal(metaData, &valueItem); err != nil {
		return nil, errors.Wrap(err, "Read: Unmarshal")
	}

	if readValue {
		data, err := fs.rootFS.ReadFile(path.Join(key, dataFilename))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Wrap(err, "Read: ReadFile data")
		}
		if err := valueItem.SetData(data); err != nil {
			return nil, errors.Wrap(err, "Read: SetData")
		}
	}

	return &valueItem, nil
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return kvstore.ErrNotFound
	}
	return err
}
