package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileTier grava um arquivo por chave dentro de Dir. Sobrevive a reinícios.
type FileTier struct {
	Dir string
}

func NewFileTier(dir string) *FileTier { return &FileTier{Dir: dir} }

func (f *FileTier) Name() string { return "file" }

func (f *FileTier) path(key string) string {
	return filepath.Join(f.Dir, filepath.Base(key))
}

func (f *FileTier) Get(_ context.Context, key string) ([]byte, bool, error) {
	b, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// Set escreve num temporário e renomeia, para nunca deixar uma imagem pela metade.
func (f *FileTier) Set(_ context.Context, key string, val []byte) error {
	if err := os.MkdirAll(f.Dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	tmp, err := os.CreateTemp(f.Dir, "."+filepath.Base(key)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(val); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path(key))
}

func (f *FileTier) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
